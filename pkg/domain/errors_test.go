package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "Message Wins",
			err:  &StoreError{Message: "duplicate key", ErrorDescription: "desc", Details: "details"},
			want: "duplicate key",
		},
		{
			name: "Falls Back To Description",
			err:  &StoreError{ErrorDescription: "invalid grant", Details: "details"},
			want: "invalid grant",
		},
		{
			name: "Falls Back To Details",
			err:  &StoreError{Message: "  ", Details: "Key (id)=(1) already exists."},
			want: "Key (id)=(1) already exists.",
		},
		{
			name: "Empty Store Error Uses Generic",
			err:  &StoreError{},
			want: GenericPersistenceMessage,
		},
		{
			name: "Wrapped Store Error",
			err:  fmt.Errorf("insert: %w", &StoreError{Details: "fk violation"}),
			want: "fk violation",
		},
		{
			name: "Plain Error",
			err:  errors.New("connection refused"),
			want: "connection refused",
		},
		{
			name: "Nil",
			err:  nil,
			want: GenericPersistenceMessage,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeError(tt.err))
		})
	}
}

func TestPersistenceError(t *testing.T) {
	cause := &StoreError{Message: "permission denied", Code: "42501"}
	err := NewPersistenceError("insert", "surveys", cause)

	assert.Equal(t, "permission denied", err.Message)
	assert.Equal(t, "insert surveys: permission denied", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "permission denied", UserMessage(fmt.Errorf("save: %w", err)))
}

func TestDraftValidationError(t *testing.T) {
	err := fmt.Errorf("blocked: %w", &DraftValidationError{Errors: []ValidationError{
		{Field: "title", Message: "a"},
		{Field: "sections", Message: "b"},
	}})

	assert.Len(t, ValidationErrors(err), 2)
	assert.Nil(t, ValidationErrors(errors.New("other")))

	var ve *DraftValidationError
	assert.ErrorAs(t, err, &ve)
	assert.Equal(t, "a, b", ve.Error())
}

func TestPreconditionError(t *testing.T) {
	err := &PreconditionError{Err: ErrSectionNotFound}
	assert.ErrorIs(t, err, ErrSectionNotFound)
	assert.Equal(t, ErrSectionNotFound.Error(), err.Error())
}
