package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/fieldwork/internal/presentation/tui"
)

var saveCmd = &cobra.Command{
	Use:   "save <draft.yaml|draft.json>",
	Short: "Save one section of a survey draft",
	Long: `Persists the survey and the given section into the configured record store.
The ids assigned by the store are written back into the draft file.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		section, _ := cmd.Flags().GetString("section")
		user, _ := cmd.Flags().GetString("user")
		id, _ := cmd.Flags().GetString("id")
		write, _ := cmd.Flags().GetBool("write")
		return runSave(cmd, args[0], section, user, id, write)
	},
}

func init() {
	rootCmd.AddCommand(saveCmd)
	saveCmd.Flags().StringP("section", "s", "", "Id of the section to save")
	saveCmd.Flags().StringP("user", "u", "", "Id of the user creating the survey")
	saveCmd.Flags().String("id", "", "Draft id in the draft store (default: file name)")
	saveCmd.Flags().Bool("write", true, "Write assigned ids back into the draft file")
	_ = saveCmd.MarkFlagRequired("section")
}

func runSave(cmd *cobra.Command, path, sectionID, userID, draftID string, write bool) error {
	cfg, logger, closer, err := loadRuntime(cmd)
	if err != nil {
		return err
	}
	defer closer.Close()

	d, err := readDraftFile(path)
	if err != nil {
		return err
	}
	if draftID == "" {
		draftID = draftIDFromPath(path)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	deps, err := buildDeps(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer deps.Close()

	svc := newService(cfg, deps, nil, logger)
	if err := svc.SaveDraft(ctx, draftID, d); err != nil {
		return err
	}

	render := tui.NewRenderer(stdoutFile(cmd))
	out := cmd.OutOrStdout()

	res, saveErr := svc.SaveSection(ctx, draftID, sectionID, userID)
	if saveErr != nil {
		text, err := render(tui.ErrorReport(d.Title, saveErr))
		if err == nil {
			fmt.Fprint(out, text)
		}
		return saveErr
	}

	if write {
		saved, err := svc.LoadDraft(ctx, draftID)
		if err != nil {
			return err
		}
		if err := writeDraftFile(path, saved); err != nil {
			return err
		}
		logger.Debug("Draft file updated", "path", path, "survey_id", saved.ID)
	}

	tracker, err := svc.Tracker(ctx, draftID)
	if err != nil {
		return err
	}
	text, err := render(tui.SaveReport(d.Title, res, tracker.Snapshot()))
	if err != nil {
		return err
	}
	fmt.Fprint(out, text)
	return nil
}
