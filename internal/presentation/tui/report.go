package tui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/aretw0/fieldwork/pkg/domain"
	"github.com/aretw0/fieldwork/pkg/savestate"
	"github.com/aretw0/fieldwork/pkg/survey"
)

// ValidationReport formats validation errors of the draft named title as markdown.
func ValidationReport(title string, errs []domain.ValidationError) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s\n\n", heading(title))
	if len(errs) == 0 {
		sb.WriteString("✅ La encuesta es válida.\n")
		return sb.String()
	}

	fmt.Fprintf(&sb, "❌ %d errores de validación\n\n", len(errs))
	sb.WriteString("| Campo | Mensaje |\n|---|---|\n")
	for _, e := range errs {
		fmt.Fprintf(&sb, "| `%s` | %s |\n", e.Field, cell(e.Message))
	}
	return sb.String()
}

// SaveReport formats a save result and the resulting tracker state as markdown.
func SaveReport(title string, res survey.SaveResult, snap savestate.Snapshot) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s\n\n", heading(title))
	sb.WriteString("✅ " + savestate.MessageSaved + "\n\n")
	fmt.Fprintf(&sb, "- **Encuesta:** `%s`\n", res.SurveyID)
	fmt.Fprintf(&sb, "- **Sección:** `%s`\n", res.SectionID)
	fmt.Fprintf(&sb, "- **Preguntas:** %d\n", len(res.QuestionIDs))
	sb.WriteString("\n" + StateTable(snap))
	return sb.String()
}

// ErrorReport formats a failed save as markdown.
func ErrorReport(title string, err error) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s\n\n", heading(title))
	fmt.Fprintf(&sb, "❌ %s\n", domain.UserMessage(err))
	if errs := domain.ValidationErrors(err); len(errs) > 0 {
		sb.WriteString("\n| Campo | Mensaje |\n|---|---|\n")
		for _, e := range errs {
			fmt.Fprintf(&sb, "| `%s` | %s |\n", e.Field, cell(e.Message))
		}
	}
	return sb.String()
}

// StateTable lists section save states in id order.
func StateTable(snap savestate.Snapshot) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "**Estado global:** %s\n\n", snap.Global)
	if len(snap.States) == 0 {
		return sb.String()
	}

	ids := make([]string, 0, len(snap.States))
	for id := range snap.States {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	sb.WriteString("| Sección | Estado | Mensaje |\n|---|---|---|\n")
	for _, id := range ids {
		p := snap.States[id]
		fmt.Fprintf(&sb, "| `%s` | %s | %s |\n", id, p.State, cell(savestate.StatusMessage(p)))
	}
	return sb.String()
}

func heading(title string) string {
	if strings.TrimSpace(title) == "" {
		return "Encuesta sin título"
	}
	return title
}

func cell(s string) string {
	return strings.ReplaceAll(s, "|", "\\|")
}
