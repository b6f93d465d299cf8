package graph

import (
	"fmt"
	"sort"
	"strings"

	"github.com/aretw0/fieldwork/pkg/domain"
)

// endNode is the terminal node every flow can reach.
const endNode = "END"

// Overlay contains save state data to visualize on the graph.
type Overlay struct {
	States map[string]domain.SaveState
}

// GenerateMermaid produces a Mermaid flowchart of the section flow of d.
// Sections are linked in order unless section skip logic redirects them:
// - Section: [Rectangle] labeled with its title and question count
// - End of survey: ((Circle))
// - Section skip: solid labeled arrow
// - Question skip rule: dotted labeled arrow
// Overlay styles mark sections by save state if provided.
func GenerateMermaid(d *domain.SurveyDraft, overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	ids := make([]string, len(d.Sections))
	for i, sec := range d.Sections {
		ids[i] = nodeID(sec, i)
	}

	for i, sec := range d.Sections {
		label := escape(sec.Title)
		if label == "" {
			label = fmt.Sprintf("Sección %d", i+1)
		}
		fmt.Fprintf(&sb, "    %s[\"%s <br/> %d preguntas\"]\n", ids[i], label, len(sec.Questions))
	}
	fmt.Fprintf(&sb, "    %s((\"Fin\"))\n", endNode)

	for i, sec := range d.Sections {
		next := endNode
		if i+1 < len(ids) {
			next = ids[i+1]
		}

		if l := sec.SkipLogic; l != nil && l.Enabled {
			switch l.Action {
			case domain.SkipSpecificSection:
				if target := lookup(d.Sections, ids, l.TargetSectionID); target != "" {
					fmt.Fprintf(&sb, "    %s -- \"salto\" --> %s\n", ids[i], target)
					continue
				}
			case domain.SkipSpecificQuestion:
				if target := sectionOfQuestion(d.Sections, ids, l.TargetQuestionID); target != "" {
					fmt.Fprintf(&sb, "    %s -- \"salto a pregunta\" --> %s\n", ids[i], target)
					continue
				}
			case domain.SkipEndSurvey:
				fmt.Fprintf(&sb, "    %s -- \"fin\" --> %s\n", ids[i], endNode)
				continue
			}
		}
		fmt.Fprintf(&sb, "    %s --> %s\n", ids[i], next)

		for _, q := range sec.Questions {
			if q.Config == nil || q.Config.SkipLogic == nil || !q.Config.SkipLogic.Enabled {
				continue
			}
			for _, rule := range q.Config.SkipLogic.Rules {
				target := lookup(d.Sections, ids, rule.TargetSectionID)
				if target == "" {
					target = sectionOfQuestion(d.Sections, ids, rule.TargetQuestionID)
				}
				if target == "" {
					continue
				}
				cond := escape(strings.TrimSpace(rule.Condition + " " + rule.Value))
				fmt.Fprintf(&sb, "    %s -. \"%s\" .-> %s\n", ids[i], cond, target)
			}
		}
	}

	if overlay != nil && len(overlay.States) > 0 {
		sb.WriteString("\n    %% Save State Styles\n")
		// Force black text (color:#000) for contrast on light and dark themes
		sb.WriteString("    classDef saved fill:#e8f5e9,stroke:#2e7d32,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef saving fill:#fff8e1,stroke:#f9a825,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef failed fill:#ffebee,stroke:#c62828,stroke-width:4px,color:#000;\n")

		keys := make([]string, 0, len(overlay.States))
		for k := range overlay.States {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			target := lookup(d.Sections, ids, k)
			if target == "" {
				continue
			}
			switch overlay.States[k] {
			case domain.SaveSaved:
				fmt.Fprintf(&sb, "    class %s saved;\n", target)
			case domain.SaveSaving:
				fmt.Fprintf(&sb, "    class %s saving;\n", target)
			case domain.SaveError:
				fmt.Fprintf(&sb, "    class %s failed;\n", target)
			}
		}
	}

	return sb.String()
}

func nodeID(sec domain.Section, i int) string {
	if sec.ID == "" {
		return fmt.Sprintf("section_%d", i+1)
	}
	return sanitizeMermaidID(sec.ID)
}

func lookup(sections []domain.Section, ids []string, sectionID string) string {
	if sectionID == "" {
		return ""
	}
	if i := domain.FindSection(sections, sectionID); i >= 0 {
		return ids[i]
	}
	return ""
}

func sectionOfQuestion(sections []domain.Section, ids []string, questionID string) string {
	if questionID == "" {
		return ""
	}
	for i, sec := range sections {
		for _, q := range sec.Questions {
			if q.ID == questionID {
				return ids[i]
			}
		}
	}
	return ""
}

func escape(s string) string {
	return strings.ReplaceAll(s, "\"", "'")
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	s = strings.ReplaceAll(s, " ", "_")
	if strings.EqualFold(s, endNode) || strings.EqualFold(s, "end") {
		s = "s_" + s
	}
	return s
}
