// Package proposal validates raw collaboration submissions.
package proposal

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	apperrors "github.com/louisbranch/crosspromo/internal/platform/errors"
	"github.com/louisbranch/crosspromo/internal/services/collab/domain"
	"github.com/louisbranch/crosspromo/internal/services/collab/storage"
)

// Submission is the raw form input for a new proposal.
type Submission struct {
	ProposerPartyID   string
	SourceStoreID     string
	TargetStoreID     string
	ProposerProductID string
	TargetProductID   string
	Title             string
	Description       string
	StartDate         string
	EndDate           string
	Terms             domain.Terms

	// Optional collaboration window. Blank or malformed values leave the
	// matching Terms date unset instead of failing the submission.
	CollaborationStartDate string
	CollaborationEndDate   string
}

// Draft is a submission that passed validation, with references resolved.
type Draft struct {
	Origin            domain.Origin
	TargetStore       domain.Store
	ProposerParty     domain.Party
	ProposerProductID string
	TargetProductID   string
	Title             string
	Description       string
	StartDate         domain.Date
	EndDate           domain.Date
	Terms             domain.Terms
}

// Proposal builds a pending proposal from the draft.
func (d Draft) Proposal(id string) domain.Proposal {
	return domain.Proposal{
		ID:                id,
		Origin:            d.Origin,
		TargetStoreID:     d.TargetStore.ID,
		ProposerProductID: d.ProposerProductID,
		TargetProductID:   d.TargetProductID,
		Title:             d.Title,
		Description:       d.Description,
		StartDate:         d.StartDate,
		EndDate:           d.EndDate,
		Terms:             d.Terms,
		Status:            domain.ProposalPending,
	}
}

// Validator checks submissions against the directory.
type Validator struct {
	directory storage.Directory
}

// NewValidator builds a validator reading from directory.
func NewValidator(directory storage.Directory) *Validator {
	return &Validator{directory: directory}
}

// Validate applies the submission rules in order and stops at the first
// failure. Failures are *apperrors.Error values; lookups that fail for any
// reason other than a missing record are reported as STORAGE_FAILURE.
func (v *Validator) Validate(ctx context.Context, sub Submission) (Draft, error) {
	if v == nil || v.directory == nil {
		return Draft{}, fmt.Errorf("proposal validator is not configured")
	}

	party, err := v.directory.GetParty(ctx, sub.ProposerPartyID)
	if err != nil {
		return Draft{}, lookupError(err, apperrors.CodePartyNotFound, "proposer party not found")
	}

	title := strings.TrimSpace(sub.Title)
	if title == "" {
		return Draft{}, apperrors.New(apperrors.CodeTitleRequired, "title is required")
	}
	description := strings.TrimSpace(sub.Description)
	if description == "" {
		return Draft{}, apperrors.New(apperrors.CodeDescriptionRequired, "description is required")
	}

	targetStoreID := strings.TrimSpace(sub.TargetStoreID)
	if targetStoreID == "" {
		return Draft{}, apperrors.New(apperrors.CodeTargetStoreRequired, "target store is required")
	}
	target, err := v.directory.GetStore(ctx, targetStoreID)
	if err != nil {
		return Draft{}, lookupError(err, apperrors.CodeStoreNotFound, "target store not found")
	}

	startDate, err := domain.ParseDate(sub.StartDate)
	if err != nil {
		return Draft{}, apperrors.Wrap(apperrors.CodeInvalidDateFormat, "invalid start date", err)
	}
	endDate, err := domain.ParseDate(sub.EndDate)
	if err != nil {
		return Draft{}, apperrors.Wrap(apperrors.CodeInvalidDateFormat, "invalid end date", err)
	}
	if !endDate.After(startDate) {
		return Draft{}, apperrors.New(apperrors.CodeInvalidDateRange, "end date must be after start date")
	}

	ownStore, hasStore, err := v.ownStore(ctx, party.ID)
	if err != nil {
		return Draft{}, err
	}

	if sourceStoreID := strings.TrimSpace(sub.SourceStoreID); sourceStoreID != "" {
		if !hasStore || ownStore.ID != sourceStoreID {
			return Draft{}, apperrors.WithMetadata(apperrors.CodeSourceStoreMismatch,
				"source store does not belong to proposer",
				map[string]string{"StoreID": sourceStoreID})
		}
	}

	proposerProductID := strings.TrimSpace(sub.ProposerProductID)
	if proposerProductID != "" {
		if !hasStore {
			return Draft{}, apperrors.New(apperrors.CodeSourceProductMismatch, "proposer has no store for product")
		}
		if err := v.productBelongs(ctx, proposerProductID, ownStore.ID, apperrors.CodeSourceProductMismatch); err != nil {
			return Draft{}, err
		}
	}

	targetProductID := strings.TrimSpace(sub.TargetProductID)
	if targetProductID != "" {
		if err := v.productBelongs(ctx, targetProductID, target.ID, apperrors.CodeTargetProductMismatch); err != nil {
			return Draft{}, err
		}
	}

	return Draft{
		Origin:            originFor(party, ownStore, hasStore),
		TargetStore:       target,
		ProposerParty:     party,
		ProposerProductID: proposerProductID,
		TargetProductID:   targetProductID,
		Title:             title,
		Description:       description,
		StartDate:         startDate,
		EndDate:           endDate,
		Terms:             submittedTerms(sub),
	}, nil
}

func (v *Validator) ownStore(ctx context.Context, partyID string) (domain.Store, bool, error) {
	store, err := v.directory.GetStoreByOwner(ctx, partyID)
	if err == nil {
		return store, true, nil
	}
	if errors.Is(err, storage.ErrNotFound) {
		return domain.Store{}, false, nil
	}
	return domain.Store{}, false, apperrors.Wrap(apperrors.CodeStorageFailure, "load proposer store", err)
}

func (v *Validator) productBelongs(ctx context.Context, productID, storeID string, code apperrors.Code) error {
	product, err := v.directory.GetProduct(ctx, productID)
	if err != nil {
		return lookupError(err, code, "product not found")
	}
	if product.StoreID != storeID {
		return apperrors.WithMetadata(code, "product belongs to another store",
			map[string]string{"ProductID": productID})
	}
	return nil
}

// originFor picks STORE_OWNER only for store owners that actually have a
// store; everyone else proposes as a customer.
func originFor(party domain.Party, store domain.Store, hasStore bool) domain.Origin {
	if party.Role == domain.RoleStoreOwner && hasStore {
		return domain.StoreOwnerOrigin{PartyID: party.ID, StoreID: store.ID}
	}
	origin := domain.CustomerOrigin{PartyID: party.ID}
	if hasStore {
		origin.StoreID = store.ID
	}
	return origin
}

func submittedTerms(sub Submission) domain.Terms {
	terms := domain.Terms{
		Duration:               strings.TrimSpace(sub.Terms.Duration),
		Location:               strings.TrimSpace(sub.Terms.Location),
		ProfitShare:            strings.TrimSpace(sub.Terms.ProfitShare),
		ExpectedBenefit:        strings.TrimSpace(sub.Terms.ExpectedBenefit),
		CollaborationStartDate: sub.Terms.CollaborationStartDate,
		CollaborationEndDate:   sub.Terms.CollaborationEndDate,
	}
	if date, ok := optionalDate("collaboration start", sub.CollaborationStartDate); ok {
		terms.CollaborationStartDate = date
	}
	if date, ok := optionalDate("collaboration end", sub.CollaborationEndDate); ok {
		terms.CollaborationEndDate = date
	}
	return terms
}

// optionalDate parses a non-blank date and reports whether it produced one.
// Malformed input is logged and dropped.
func optionalDate(label, value string) (domain.Date, bool) {
	date, err := domain.ParseOptionalDate(value)
	if err != nil {
		log.Printf("proposal: ignoring %s date: %v", label, err)
		return domain.Date{}, false
	}
	return date, !date.IsZero()
}

func lookupError(err error, notFound apperrors.Code, message string) error {
	if errors.Is(err, storage.ErrNotFound) {
		return apperrors.New(notFound, message)
	}
	return apperrors.Wrap(apperrors.CodeStorageFailure, "directory lookup", err)
}
