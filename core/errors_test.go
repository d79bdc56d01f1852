package core

import (
	"reflect"
	"testing"

	"github.com/pkg/errors"
)

func Test_ValidationError_Messages(t *testing.T) {
	err := NewValidationError(errors.New("dados inválidos"),
		FieldError{Field: "email", Error: "email inválido"},
		FieldError{Field: "password", Error: "senha muito curta"},
	)
	vErr := err.(*ValidationError)
	want := []string{"email inválido", "senha muito curta"}
	if got := vErr.Messages(); !reflect.DeepEqual(got, want) {
		t.Errorf("Messages() = %v, want %v", got, want)
	}

	bare := NewValidationError(errors.New("dados inválidos")).(*ValidationError)
	if got := bare.Messages(); !reflect.DeepEqual(got, []string{"dados inválidos"}) {
		t.Errorf("Messages() = %v, want the wrapped error", got)
	}
}
