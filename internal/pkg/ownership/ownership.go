package ownership

import (
	"fmt"
	"strings"

	"github.com/ManuelReschke/TierFox/internal/pkg/apperrors"
	"github.com/ManuelReschke/TierFox/internal/pkg/wallet"
)

// Check guards creator-side mutations. owner is the stored creator address of
// the resource ("" when the resource does not exist), caller the address bound
// to the request's wallet session. Both are compared lower-cased.
func Check(caller, owner string) error {
	if strings.TrimSpace(owner) == "" {
		return apperrors.ErrNotFound
	}
	c := wallet.Normalize(caller)
	if c == "" {
		return fmt.Errorf("missing caller address: %w", apperrors.ErrForbidden)
	}
	if c != wallet.Normalize(owner) {
		return fmt.Errorf("caller is not the owning creator: %w", apperrors.ErrForbidden)
	}
	return nil
}

// CheckAsserted additionally validates a client supplied creatorAddress
// field. It is optional, but when present it has to match the session.
func CheckAsserted(caller, asserted, owner string) error {
	if strings.TrimSpace(asserted) != "" && !wallet.Equal(caller, asserted) {
		return fmt.Errorf("creatorAddress does not match the signed-in wallet: %w", apperrors.ErrForbidden)
	}
	return Check(caller, owner)
}
