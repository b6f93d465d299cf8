package domain

import "time"

// SaveState is the save status of a section as shown to the author.
type SaveState string

const (
	// SaveNotSaved is the initial state, also used for sections whose stored
	// copy may be stale after a sibling was saved.
	SaveNotSaved SaveState = "not-saved"
	SaveSaving   SaveState = "saving"
	SaveSaved    SaveState = "saved"
	SaveError    SaveState = "error"
)

// SaveProgress is the tracked status of one section.
type SaveProgress struct {
	State     SaveState         `json:"state"`
	Message   string            `json:"message,omitempty"`
	Errors    []ValidationError `json:"errors,omitempty"`
	Timestamp time.Time         `json:"timestamp,omitempty"`
}

// DeriveGlobalState folds per-section states into one:
// error wins over saving, and saved requires every section saved.
func DeriveGlobalState(states map[string]SaveProgress) SaveState {
	if len(states) == 0 {
		return SaveNotSaved
	}
	saving := false
	allSaved := true
	for _, p := range states {
		switch p.State {
		case SaveError:
			return SaveError
		case SaveSaving:
			saving = true
		}
		if p.State != SaveSaved {
			allSaved = false
		}
	}
	if saving {
		return SaveSaving
	}
	if allSaved {
		return SaveSaved
	}
	return SaveNotSaved
}
