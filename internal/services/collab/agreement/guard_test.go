package agreement

import (
	"context"
	"errors"
	"testing"

	"github.com/louisbranch/crosspromo/internal/services/collab/domain"
)

type fakeFinder struct {
	agreements []domain.Agreement
	err        error
}

func (f fakeFinder) FindActiveBetween(_ context.Context, _ domain.Pairing) ([]domain.Agreement, error) {
	return f.agreements, f.err
}

func TestHasActiveAgreement(t *testing.T) {
	existing := domain.Agreement{
		ID:                 "agr-1",
		InitiatorStoreID:   "S1",
		PartnerStoreID:     "S2",
		InitiatorProductID: "P1",
		PartnerProductID:   "P2",
		Status:             domain.AgreementAccepted,
	}

	tests := []struct {
		name    string
		stored  []domain.Agreement
		pairing domain.Pairing
		want    bool
	}{
		{
			name:    "same order",
			stored:  []domain.Agreement{existing},
			pairing: domain.Pairing{StoreA: "S1", StoreB: "S2", ProductA: "P1", ProductB: "P2"},
			want:    true,
		},
		{
			name:    "reversed order",
			stored:  []domain.Agreement{existing},
			pairing: domain.Pairing{StoreA: "S2", StoreB: "S1", ProductA: "P2", ProductB: "P1"},
			want:    true,
		},
		{
			name:    "different product",
			stored:  []domain.Agreement{existing},
			pairing: domain.Pairing{StoreA: "S1", StoreB: "S2", ProductA: "P1", ProductB: "P3"},
			want:    false,
		},
		{
			name:    "absent product only matches absent",
			stored:  []domain.Agreement{existing},
			pairing: domain.Pairing{StoreA: "S1", StoreB: "S2"},
			want:    false,
		},
		{
			name: "ended agreement ignored",
			stored: []domain.Agreement{func() domain.Agreement {
				a := existing
				a.Status = domain.AgreementEnded
				return a
			}()},
			pairing: domain.Pairing{StoreA: "S1", StoreB: "S2", ProductA: "P1", ProductB: "P2"},
			want:    false,
		},
		{
			name:    "excluded agreement ignored",
			stored:  []domain.Agreement{existing},
			pairing: domain.Pairing{StoreA: "S1", StoreB: "S2", ProductA: "P1", ProductB: "P2", ExcludeID: "agr-1"},
			want:    false,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := NewGuard(fakeFinder{agreements: tc.stored}).HasActiveAgreement(context.Background(), tc.pairing)
			if err != nil {
				t.Fatalf("has active: %v", err)
			}
			if got != tc.want {
				t.Fatalf("has active = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestHasActiveAgreementPropagatesErrors(t *testing.T) {
	boom := errors.New("boom")
	_, err := NewGuard(fakeFinder{err: boom}).HasActiveAgreement(context.Background(), domain.Pairing{})
	if !errors.Is(err, boom) {
		t.Fatalf("error = %v, want boom", err)
	}
}

func TestNilGuard(t *testing.T) {
	var guard *Guard
	if _, err := guard.HasActiveAgreement(context.Background(), domain.Pairing{}); err == nil {
		t.Fatal("expected error for unconfigured guard")
	}
}
