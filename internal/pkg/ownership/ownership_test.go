package ownership

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ManuelReschke/TierFox/internal/pkg/apperrors"
)

const (
	owner = "0xabcdef0123456789abcdef0123456789abcdef01"
	other = "0x1111111111111111111111111111111111111111"
)

func TestCheck(t *testing.T) {
	tests := []struct {
		name   string
		caller string
		owner  string
		want   error
	}{
		{"owner", owner, owner, nil},
		{"owner mixed case", "0xABCDEF0123456789ABCDEF0123456789ABCDEF01", owner, nil},
		{"other caller", other, owner, apperrors.ErrForbidden},
		{"empty caller", "", owner, apperrors.ErrForbidden},
		{"garbage caller", "0xnope", owner, apperrors.ErrForbidden},
		{"missing resource", owner, "", apperrors.ErrNotFound},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := Check(tc.caller, tc.owner)
			if tc.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestCheckAsserted(t *testing.T) {
	assert.NoError(t, CheckAsserted(owner, "", owner))
	assert.NoError(t, CheckAsserted(owner, "0xABCDEF0123456789abcdef0123456789abcdef01", owner))
	assert.ErrorIs(t, CheckAsserted(other, owner, owner), apperrors.ErrForbidden, "asserting someone else's address")
	assert.ErrorIs(t, CheckAsserted(owner, other, owner), apperrors.ErrForbidden)
}
