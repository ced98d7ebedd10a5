package lifecycle

import (
	"context"
	"errors"

	apperrors "github.com/louisbranch/crosspromo/internal/platform/errors"
	"github.com/louisbranch/crosspromo/internal/services/collab/agreement"
	"github.com/louisbranch/crosspromo/internal/services/collab/domain"
	"github.com/louisbranch/crosspromo/internal/services/collab/notify"
	"github.com/louisbranch/crosspromo/internal/services/collab/proposal"
	"github.com/louisbranch/crosspromo/internal/services/collab/storage"
	"go.opentelemetry.io/otel/attribute"
)

// Submit validates sub and stores it as a pending proposal.
func (s *Service) Submit(ctx context.Context, sub proposal.Submission) (proposalID string, err error) {
	ctx, end := s.startSpan(ctx, "lifecycle.Submit", attribute.String("party.id", sub.ProposerPartyID))
	defer func() { end(err) }()

	err = s.store.Within(ctx, func(ctx context.Context, tx storage.Tx) error {
		draft, err := proposal.NewValidator(tx).Validate(ctx, sub)
		if err != nil {
			return err
		}
		newID, err := s.newID()
		if err != nil {
			return err
		}
		created := draft.Proposal(newID)
		created.CreatedAt = s.nowUTC()
		created.UpdatedAt = created.CreatedAt
		if err := tx.SaveProposal(ctx, created); err != nil {
			return err
		}
		proposalID = created.ID
		return nil
	})
	if err != nil {
		route := s.routes.Apply
		if apperrors.IsCode(err, apperrors.CodePartyNotFound) {
			route = s.routes.Login
		}
		return "", fail(err, route)
	}

	s.ensureRoom(ctx, domain.ProposalOwner(proposalID))
	return proposalID, nil
}

// decision is what a proposal transition leaves for post-commit effects.
type decision struct {
	proposal  domain.Proposal
	target    domain.Store
	agreement domain.Agreement
}

// loadDecidable resolves a proposal the actor may decide on.
func loadDecidable(ctx context.Context, tx storage.Tx, actorPartyID, proposalID string) (decision, error) {
	p, err := tx.GetProposal(ctx, proposalID)
	if err != nil {
		return decision{}, lookup(err, apperrors.CodeProposalNotFound, "proposal not found")
	}
	target, err := tx.GetStore(ctx, p.TargetStoreID)
	if err != nil {
		return decision{}, lookup(err, apperrors.CodeMissingStoreData, "target store not found")
	}
	if !target.OwnedBy(actorPartyID) {
		return decision{}, apperrors.New(apperrors.CodeUnauthorizedAction, "only the target store owner may decide")
	}
	if p.Status != domain.ProposalPending {
		return decision{}, apperrors.New(apperrors.CodeAlreadyProcessed, "proposal already processed")
	}
	return decision{proposal: p, target: target}, nil
}

// AcceptProposal accepts a pending proposal on behalf of the target store
// owner and materializes its agreement.
func (s *Service) AcceptProposal(ctx context.Context, actorPartyID, proposalID string) (accepted domain.Agreement, err error) {
	ctx, end := s.startSpan(ctx, "lifecycle.AcceptProposal",
		attribute.String("party.id", actorPartyID),
		attribute.String("proposal.id", proposalID),
	)
	defer func() { end(err) }()

	var result decision
	err = s.store.Within(ctx, func(ctx context.Context, tx storage.Tx) error {
		d, err := loadDecidable(ctx, tx, actorPartyID, proposalID)
		if err != nil {
			return err
		}

		duplicate, err := agreement.NewGuard(tx).HasActiveAgreement(ctx, domain.PairingForProposal(d.proposal))
		if err != nil {
			return err
		}
		if duplicate {
			return apperrors.New(apperrors.CodeDuplicateAgreement, "an active agreement already links these stores")
		}

		agreementID, err := s.newID()
		if err != nil {
			return err
		}
		now := s.nowUTC()
		d.agreement = domain.AgreementFromProposal(d.proposal, agreementID, now)
		if err := tx.SaveAgreement(ctx, d.agreement); err != nil {
			if errors.Is(err, storage.ErrAlreadyExists) {
				return apperrors.Wrap(apperrors.CodeDuplicateAgreement, "an active agreement already links these stores", err)
			}
			return err
		}

		updated, err := d.proposal.Accept(agreementID, now)
		if err != nil {
			return apperrors.Wrap(apperrors.CodeAlreadyProcessed, "proposal already processed", err)
		}
		if err := tx.SaveProposal(ctx, updated); err != nil {
			return err
		}
		d.proposal = updated
		result = d
		return nil
	})
	if err != nil {
		return domain.Agreement{}, fail(err, s.routes.Received)
	}

	s.ensureRoom(ctx, domain.AgreementOwner(result.agreement.ID))
	s.notify(ctx, result, s.notifier.ProposalAccepted)
	return result.agreement, nil
}

// RejectProposal rejects a pending proposal on behalf of the target store owner.
func (s *Service) RejectProposal(ctx context.Context, actorPartyID, proposalID string) (err error) {
	ctx, end := s.startSpan(ctx, "lifecycle.RejectProposal",
		attribute.String("party.id", actorPartyID),
		attribute.String("proposal.id", proposalID),
	)
	defer func() { end(err) }()

	var result decision
	err = s.store.Within(ctx, func(ctx context.Context, tx storage.Tx) error {
		d, err := loadDecidable(ctx, tx, actorPartyID, proposalID)
		if err != nil {
			return err
		}
		updated, err := d.proposal.Reject(s.nowUTC())
		if err != nil {
			return apperrors.Wrap(apperrors.CodeAlreadyProcessed, "proposal already processed", err)
		}
		if err := tx.SaveProposal(ctx, updated); err != nil {
			return err
		}
		d.proposal = updated
		result = d
		return nil
	})
	if err != nil {
		return fail(err, s.routes.Received)
	}

	s.notify(ctx, result, s.notifier.ProposalRejected)
	return nil
}

func (s *Service) notify(ctx context.Context, d decision, send func(context.Context, notify.Notice) error) {
	notice := notify.Notice{
		RecipientPartyID: d.proposal.ProposerPartyID(),
		ProposalID:       d.proposal.ID,
		StoreName:        d.target.Name,
		Title:            d.proposal.Title,
	}
	if err := send(ctx, notice); err != nil {
		s.logf("notification failed proposal=%s: %v", d.proposal.ID, err)
	}
}
