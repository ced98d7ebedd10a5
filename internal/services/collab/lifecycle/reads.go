package lifecycle

import (
	"context"
	"errors"
	"sort"

	apperrors "github.com/louisbranch/crosspromo/internal/platform/errors"
	"github.com/louisbranch/crosspromo/internal/services/collab/domain"
	"github.com/louisbranch/crosspromo/internal/services/collab/storage"
)

// Proposal returns one proposal.
func (s *Service) Proposal(ctx context.Context, proposalID string) (domain.Proposal, error) {
	p, err := s.store.GetProposal(ctx, proposalID)
	if err != nil {
		return domain.Proposal{}, fail(lookup(err, apperrors.CodeProposalNotFound, "proposal not found"), "")
	}
	return p, nil
}

// Agreement returns one agreement.
func (s *Service) Agreement(ctx context.Context, agreementID string) (domain.Agreement, error) {
	a, err := s.store.GetAgreement(ctx, agreementID)
	if err != nil {
		return domain.Agreement{}, fail(lookup(err, apperrors.CodeAgreementNotFound, "agreement not found"), "")
	}
	return a, nil
}

// SentProposals lists proposals authored by partyID, newest first.
func (s *Service) SentProposals(ctx context.Context, partyID string) ([]domain.Proposal, error) {
	proposals, err := s.store.ListProposalsByProposer(ctx, partyID)
	if err != nil {
		return nil, fail(err, "")
	}
	return proposals, nil
}

// ReceivedProposals lists proposals addressed to the store partyID owns.
// Parties without a store have received nothing. An empty status lists all.
func (s *Service) ReceivedProposals(ctx context.Context, partyID string, status domain.ProposalStatus) ([]domain.Proposal, error) {
	store, err := s.store.GetStoreByOwner(ctx, partyID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return []domain.Proposal{}, nil
		}
		return nil, fail(err, "")
	}
	proposals, err := s.store.ListProposalsByTargetStore(ctx, store.ID, status)
	if err != nil {
		return nil, fail(err, "")
	}
	return proposals, nil
}

// ProposalsByStatus lists every proposal in status.
func (s *Service) ProposalsByStatus(ctx context.Context, status domain.ProposalStatus) ([]domain.Proposal, error) {
	proposals, err := s.store.ListProposalsByStatus(ctx, status)
	if err != nil {
		return nil, fail(err, "")
	}
	return proposals, nil
}

// AgreementsForParty lists agreements involving the party's store plus those
// materialized from the party's own proposals, newest first.
func (s *Service) AgreementsForParty(ctx context.Context, partyID string) ([]domain.Agreement, error) {
	seen := map[string]domain.Agreement{}

	store, err := s.store.GetStoreByOwner(ctx, partyID)
	switch {
	case err == nil:
		byStore, err := s.store.ListAgreementsByStore(ctx, store.ID)
		if err != nil {
			return nil, fail(err, "")
		}
		for _, a := range byStore {
			seen[a.ID] = a
		}
	case !errors.Is(err, storage.ErrNotFound):
		return nil, fail(err, "")
	}

	sent, err := s.store.ListProposalsByProposer(ctx, partyID)
	if err != nil {
		return nil, fail(err, "")
	}
	for _, p := range sent {
		if p.AgreementID == "" {
			continue
		}
		if _, ok := seen[p.AgreementID]; ok {
			continue
		}
		a, err := s.store.GetAgreement(ctx, p.AgreementID)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				continue
			}
			return nil, fail(err, "")
		}
		seen[a.ID] = a
	}

	out := make([]domain.Agreement, 0, len(seen))
	for _, a := range seen {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}
