package lifecycle

import (
	"context"
	"errors"

	apperrors "github.com/louisbranch/crosspromo/internal/platform/errors"
	"github.com/louisbranch/crosspromo/internal/services/collab/agreement"
	"github.com/louisbranch/crosspromo/internal/services/collab/domain"
	"github.com/louisbranch/crosspromo/internal/services/collab/storage"
	"go.opentelemetry.io/otel/attribute"
)

// loadPendingAgreement resolves an agreement the actor may decide on
// through the direct path.
func loadPendingAgreement(ctx context.Context, tx storage.Tx, actorPartyID, agreementID string) (domain.Agreement, error) {
	a, err := tx.GetAgreement(ctx, agreementID)
	if err != nil {
		return domain.Agreement{}, lookup(err, apperrors.CodeAgreementNotFound, "agreement not found")
	}
	partner, err := tx.GetStore(ctx, a.PartnerStoreID)
	if err != nil {
		return domain.Agreement{}, lookup(err, apperrors.CodeMissingStoreData, "partner store not found")
	}
	if !partner.OwnedBy(actorPartyID) {
		return domain.Agreement{}, apperrors.New(apperrors.CodeUnauthorizedAction, "only the partner store owner may decide")
	}
	if a.Status != domain.AgreementPending {
		return domain.Agreement{}, apperrors.New(apperrors.CodeAlreadyProcessed, "agreement already processed")
	}
	return a, nil
}

// AcceptAgreement accepts a pending agreement created outside the proposal flow.
func (s *Service) AcceptAgreement(ctx context.Context, actorPartyID, agreementID string) (err error) {
	ctx, end := s.startSpan(ctx, "lifecycle.AcceptAgreement",
		attribute.String("party.id", actorPartyID),
		attribute.String("agreement.id", agreementID),
	)
	defer func() { end(err) }()

	var acceptedID string
	err = s.store.Within(ctx, func(ctx context.Context, tx storage.Tx) error {
		a, err := loadPendingAgreement(ctx, tx, actorPartyID, agreementID)
		if err != nil {
			return err
		}
		duplicate, err := agreement.NewGuard(tx).HasActiveAgreement(ctx, domain.PairingOf(a))
		if err != nil {
			return err
		}
		if duplicate {
			return apperrors.New(apperrors.CodeDuplicateAgreement, "an active agreement already links these stores")
		}
		accepted, err := a.Accept(s.nowUTC())
		if err != nil {
			return apperrors.Wrap(apperrors.CodeAlreadyProcessed, "agreement already processed", err)
		}
		if err := tx.SaveAgreement(ctx, accepted); err != nil {
			if errors.Is(err, storage.ErrAlreadyExists) {
				return apperrors.Wrap(apperrors.CodeDuplicateAgreement, "an active agreement already links these stores", err)
			}
			return err
		}
		acceptedID = accepted.ID
		return nil
	})
	if err != nil {
		return fail(err, s.routes.Received)
	}

	s.ensureRoom(ctx, domain.AgreementOwner(acceptedID))
	return nil
}

// RejectAgreement rejects a pending agreement created outside the proposal flow.
func (s *Service) RejectAgreement(ctx context.Context, actorPartyID, agreementID string) (err error) {
	ctx, end := s.startSpan(ctx, "lifecycle.RejectAgreement",
		attribute.String("party.id", actorPartyID),
		attribute.String("agreement.id", agreementID),
	)
	defer func() { end(err) }()

	err = s.store.Within(ctx, func(ctx context.Context, tx storage.Tx) error {
		a, err := loadPendingAgreement(ctx, tx, actorPartyID, agreementID)
		if err != nil {
			return err
		}
		rejected, err := a.Reject(s.nowUTC())
		if err != nil {
			return apperrors.Wrap(apperrors.CodeAlreadyProcessed, "agreement already processed", err)
		}
		return tx.SaveAgreement(ctx, rejected)
	})
	if err != nil {
		return fail(err, s.routes.Received)
	}
	return nil
}
