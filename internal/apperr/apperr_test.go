package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"nil", nil, ""},
		{"plain", errors.New("boom"), KindInternal},
		{"direct", NotFound("ORDER_NOT_FOUND", "order not found"), KindNotFound},
		{"wrapped", fmt.Errorf("ctx: %w", Conflict("BID_ALREADY_ACCEPTED", "x")), KindConflict},
		{"dependency", Dependency(errors.New("timeout"), "CATALOG_UNAVAILABLE", "catalog"), KindDependencyFailure},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}

func TestErrorsIsMatchesKindAndCode(t *testing.T) {
	sentinel := Forbidden("NOT_ORDER_OWNER", "")
	err := fmt.Errorf("accept: %w", Forbidden("NOT_ORDER_OWNER", "only the owner may accept"))

	assert.True(t, errors.Is(err, sentinel))
	assert.False(t, errors.Is(err, Forbidden("OTHER", "")))
	assert.Equal(t, "NOT_ORDER_OWNER", CodeOf(err))
}

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("dial tcp: refused")
	err := Dependency(cause, "CATALOG_UNAVAILABLE", "catalog lookup failed")

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "dial tcp")
	assert.True(t, IsKind(err, KindDependencyFailure))
}
