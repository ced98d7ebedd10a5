// Package agreement holds the duplicate-agreement guard.
package agreement

import (
	"context"
	"fmt"

	"github.com/louisbranch/crosspromo/internal/services/collab/domain"
)

// ActiveFinder lists active agreements occupying a pairing.
type ActiveFinder interface {
	FindActiveBetween(ctx context.Context, pairing domain.Pairing) ([]domain.Agreement, error)
}

// Guard reports whether a pairing is already taken by an active agreement.
type Guard struct {
	agreements ActiveFinder
}

// NewGuard builds a guard over agreements.
func NewGuard(agreements ActiveFinder) *Guard {
	return &Guard{agreements: agreements}
}

// HasActiveAgreement reports whether a PENDING or ACCEPTED agreement links the
// same two stores and the same two products, in either order.
func (g *Guard) HasActiveAgreement(ctx context.Context, pairing domain.Pairing) (bool, error) {
	if g == nil || g.agreements == nil {
		return false, fmt.Errorf("agreement guard is not configured")
	}
	found, err := g.agreements.FindActiveBetween(ctx, pairing)
	if err != nil {
		return false, fmt.Errorf("find active agreements: %w", err)
	}
	for _, agreement := range found {
		// Adapters may over-match; the pairing decides.
		if agreement.Status.Active() && pairing.Matches(agreement) {
			return true, nil
		}
	}
	return false, nil
}
