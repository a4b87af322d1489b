package staleness

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/staleness/internal/trace"
)

func TestFailureCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"incomplete", trace.ErrIncomplete, FailureIncomplete},
		{"wrapped incomplete", fmt.Errorf("replay: %w", trace.ErrIncomplete), FailureIncomplete},
		{"decode", &trace.DecodeError{Line: 1, Err: errors.New("bad")}, FailureDecode},
		{"invariant", fmt.Errorf("line 2: %w", newUnderflowError()), "CALL_STACK_UNDERFLOW"},
		{"other", errors.New("boom"), ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FailureCode(tt.err))
		})
	}
}
