package observability

import "strings"

// FieldKind strips index segments from a validation field identifier:
// "section_1_question_2_skip_logic_0" becomes "question_skip_logic".
func FieldKind(field string) string {
	parts := strings.Split(field, "_")
	kept := parts[:0]
	for _, p := range parts {
		if p == "" || isDigits(p) {
			continue
		}
		kept = append(kept, p)
	}
	// A question field with no suffix is the question text itself.
	if len(kept) > 1 && kept[0] == "section" && kept[1] == "question" {
		kept = kept[1:]
	}
	if len(kept) == 0 {
		return field
	}
	return strings.Join(kept, "_")
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
