package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrSectionIDRequired is returned when a save is requested without a section id.
var ErrSectionIDRequired = errors.New("section id is required")

// ErrSectionNotFound is returned when the section to save is not part of the draft.
var ErrSectionNotFound = errors.New("section not found in draft")

// ErrTitleRequired is returned when a survey would be created without a title.
var ErrTitleRequired = errors.New("survey title is required")

// ErrSurveyNotFound is returned when a survey id cannot be found in the record store.
var ErrSurveyNotFound = errors.New("survey not found")

// ErrDraftNotFound is returned when a draft id cannot be found in the draft store.
var ErrDraftNotFound = errors.New("draft not found")

// ErrDuplicateRecord is returned by record stores when an insert carries an id that already exists.
var ErrDuplicateRecord = errors.New("record id already exists")

// GenericPersistenceMessage is used when a store error carries no usable text.
const GenericPersistenceMessage = "Error desconocido al guardar"

// ValidationError is a single user-correctable defect in a draft.
// Field is a stable path such as "section_2_question_3_options".
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// DraftValidationError carries the full list of defects that blocked a save.
type DraftValidationError struct {
	Errors []ValidationError
}

func (e *DraftValidationError) Error() string {
	msgs := make([]string, len(e.Errors))
	for i, v := range e.Errors {
		msgs[i] = v.Message
	}
	return strings.Join(msgs, ", ")
}

// PreconditionError reports a missing identifier that aborts a save entirely.
type PreconditionError struct {
	Err error
}

func (e *PreconditionError) Error() string {
	return e.Err.Error()
}

func (e *PreconditionError) Unwrap() error {
	return e.Err
}

// StoreError is the error shape record store adapters report.
// Backends fill whichever fields they can; NormalizeError picks one.
type StoreError struct {
	Message          string
	ErrorDescription string
	Details          string
	Code             string
	Err              error
}

func (e *StoreError) Error() string {
	if msg := e.text(); msg != "" {
		return msg
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return GenericPersistenceMessage
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

func (e *StoreError) text() string {
	switch {
	case strings.TrimSpace(e.Message) != "":
		return e.Message
	case strings.TrimSpace(e.ErrorDescription) != "":
		return e.ErrorDescription
	case strings.TrimSpace(e.Details) != "":
		return e.Details
	}
	return ""
}

// NormalizeError renders a backing store failure as one human-readable line.
// Precedence: message, error_description, details, then a generic fallback.
func NormalizeError(err error) string {
	if err == nil {
		return GenericPersistenceMessage
	}
	var se *StoreError
	if errors.As(err, &se) {
		if msg := se.text(); msg != "" {
			return msg
		}
		return GenericPersistenceMessage
	}
	if msg := strings.TrimSpace(err.Error()); msg != "" {
		return msg
	}
	return GenericPersistenceMessage
}

// PersistenceError wraps a record store failure with its normalized message.
type PersistenceError struct {
	Op      string
	Table   string
	Message string
	Err     error
}

// NewPersistenceError normalizes err and attributes it to op on table.
func NewPersistenceError(op, table string, err error) *PersistenceError {
	return &PersistenceError{
		Op:      op,
		Table:   table,
		Message: NormalizeError(err),
		Err:     err,
	}
}

func (e *PersistenceError) Error() string {
	if e.Table == "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}
	return fmt.Sprintf("%s %s: %s", e.Op, e.Table, e.Message)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// ValidationErrors returns the structured defects carried by err, if any.
func ValidationErrors(err error) []ValidationError {
	var ve *DraftValidationError
	if errors.As(err, &ve) {
		return ve.Errors
	}
	return nil
}

// UserMessage returns the message a UI should display for err.
func UserMessage(err error) string {
	var pe *PersistenceError
	if errors.As(err, &pe) {
		return pe.Message
	}
	if err == nil {
		return ""
	}
	return err.Error()
}
