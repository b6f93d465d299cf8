package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/fieldwork/internal/presentation/tui"
	"github.com/aretw0/fieldwork/pkg/domain"
	"github.com/aretw0/fieldwork/pkg/validation"
)

var validateCmd = &cobra.Command{
	Use:   "validate <draft.yaml|draft.json>",
	Short: "Check a survey draft for validation errors",
	Long:  `Runs every validation rule over the draft and reports each defect with its field.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		asJSON, _ := cmd.Flags().GetBool("json")
		return runValidate(cmd, args[0], asJSON)
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
	validateCmd.Flags().Bool("json", false, "Print the errors as JSON")
}

func runValidate(cmd *cobra.Command, path string, asJSON bool) error {
	d, err := readDraftFile(path)
	if err != nil {
		return err
	}

	errs := validation.ValidateDraft(d)
	out := cmd.OutOrStdout()

	if asJSON {
		list := []domain.ValidationError(errs)
		if list == nil {
			list = []domain.ValidationError{}
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(map[string]any{"valid": len(errs) == 0, "errors": list}); err != nil {
			return err
		}
	} else {
		render := tui.NewRenderer(stdoutFile(cmd))
		text, err := render(tui.ValidationReport(d.Title, errs))
		if err != nil {
			return err
		}
		fmt.Fprint(out, text)
	}

	if len(errs) > 0 {
		return fmt.Errorf("draft has %d validation errors", len(errs))
	}
	return nil
}

// stdoutFile returns the command output as a file when it is one, so
// renderers can detect a terminal.
func stdoutFile(cmd *cobra.Command) *os.File {
	f, _ := cmd.OutOrStdout().(*os.File)
	return f
}
