package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/louisbranch/crosspromo/internal/services/collab/domain"
	"github.com/louisbranch/crosspromo/internal/services/collab/storage"
)

const proposalColumns = `id, source, proposer_party_id, proposer_store_id, target_store_id,
	proposer_product_id, target_product_id, title, description, start_date, end_date,
	duration, location, profit_share, expected_benefit, collaboration_start_date,
	collaboration_end_date, status, agreement_id, created_at, updated_at`

// SaveProposal inserts or replaces one proposal.
func (s *Store) SaveProposal(ctx context.Context, proposal domain.Proposal) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	proposalID := strings.TrimSpace(proposal.ID)
	if proposalID == "" {
		return fmt.Errorf("proposal id is required")
	}
	if proposal.Origin == nil {
		return fmt.Errorf("proposal origin is required")
	}
	createdAt, updatedAt := normalizeTimes(proposal.CreatedAt, proposal.UpdatedAt)

	_, err := s.q.ExecContext(ctx,
		`INSERT INTO proposals (`+proposalColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   status = excluded.status,
		   agreement_id = excluded.agreement_id,
		   title = excluded.title,
		   description = excluded.description,
		   start_date = excluded.start_date,
		   end_date = excluded.end_date,
		   duration = excluded.duration,
		   location = excluded.location,
		   profit_share = excluded.profit_share,
		   expected_benefit = excluded.expected_benefit,
		   collaboration_start_date = excluded.collaboration_start_date,
		   collaboration_end_date = excluded.collaboration_end_date,
		   updated_at = excluded.updated_at`,
		proposalID,
		string(proposal.Origin.Source()),
		proposal.ProposerPartyID(),
		proposal.ProposerStoreID(),
		strings.TrimSpace(proposal.TargetStoreID),
		strings.TrimSpace(proposal.ProposerProductID),
		strings.TrimSpace(proposal.TargetProductID),
		proposal.Title,
		proposal.Description,
		proposal.StartDate.String(),
		proposal.EndDate.String(),
		proposal.Terms.Duration,
		proposal.Terms.Location,
		proposal.Terms.ProfitShare,
		proposal.Terms.ExpectedBenefit,
		proposal.Terms.CollaborationStartDate.String(),
		proposal.Terms.CollaborationEndDate.String(),
		string(proposal.Status),
		strings.TrimSpace(proposal.AgreementID),
		toMillis(createdAt),
		toMillis(updatedAt),
	)
	if err != nil {
		return fmt.Errorf("save proposal: %w", err)
	}
	return nil
}

// GetProposal returns one proposal by id.
func (s *Store) GetProposal(ctx context.Context, proposalID string) (domain.Proposal, error) {
	return s.getProposal(ctx, "id", proposalID)
}

// GetProposalByAgreement returns the proposal that produced agreementID.
func (s *Store) GetProposalByAgreement(ctx context.Context, agreementID string) (domain.Proposal, error) {
	return s.getProposal(ctx, "agreement_id", agreementID)
}

func (s *Store) getProposal(ctx context.Context, column string, value string) (domain.Proposal, error) {
	if err := s.ready(ctx); err != nil {
		return domain.Proposal{}, err
	}
	value = strings.TrimSpace(value)
	if value == "" {
		return domain.Proposal{}, storage.ErrNotFound
	}
	row := s.q.QueryRowContext(ctx,
		`SELECT `+proposalColumns+` FROM proposals WHERE `+column+` = ? LIMIT 1`,
		value,
	)
	proposal, err := scanProposal(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Proposal{}, storage.ErrNotFound
		}
		return domain.Proposal{}, fmt.Errorf("get proposal: %w", err)
	}
	return proposal, nil
}

// ListProposalsByProposer returns proposals authored by partyID, newest first.
func (s *Store) ListProposalsByProposer(ctx context.Context, partyID string) ([]domain.Proposal, error) {
	return s.listProposals(ctx,
		`SELECT `+proposalColumns+` FROM proposals
		  WHERE proposer_party_id = ?
		  ORDER BY created_at DESC, id ASC`,
		strings.TrimSpace(partyID),
	)
}

// ListProposalsByTargetStore returns proposals addressed to storeID. An empty
// status lists every status.
func (s *Store) ListProposalsByTargetStore(ctx context.Context, storeID string, status domain.ProposalStatus) ([]domain.Proposal, error) {
	if status == "" {
		return s.listProposals(ctx,
			`SELECT `+proposalColumns+` FROM proposals
			  WHERE target_store_id = ?
			  ORDER BY created_at DESC, id ASC`,
			strings.TrimSpace(storeID),
		)
	}
	return s.listProposals(ctx,
		`SELECT `+proposalColumns+` FROM proposals
		  WHERE target_store_id = ? AND status = ?
		  ORDER BY created_at DESC, id ASC`,
		strings.TrimSpace(storeID), string(status),
	)
}

// ListProposalsByStatus returns every proposal in status.
func (s *Store) ListProposalsByStatus(ctx context.Context, status domain.ProposalStatus) ([]domain.Proposal, error) {
	return s.listProposals(ctx,
		`SELECT `+proposalColumns+` FROM proposals
		  WHERE status = ?
		  ORDER BY created_at DESC, id ASC`,
		string(status),
	)
}

func (s *Store) listProposals(ctx context.Context, query string, args ...any) ([]domain.Proposal, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list proposals: %w", err)
	}
	defer rows.Close()

	proposals := make([]domain.Proposal, 0)
	for rows.Next() {
		proposal, err := scanProposal(rows)
		if err != nil {
			return nil, fmt.Errorf("list proposals: %w", err)
		}
		proposals = append(proposals, proposal)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list proposals: %w", err)
	}
	return proposals, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProposal(row rowScanner) (domain.Proposal, error) {
	var (
		proposal    domain.Proposal
		source      string
		partyID     string
		storeID     string
		startDate   string
		endDate     string
		collabStart string
		collabEnd   string
		status      string
		createdAt   int64
		updatedAt   int64
	)
	if err := row.Scan(
		&proposal.ID,
		&source,
		&partyID,
		&storeID,
		&proposal.TargetStoreID,
		&proposal.ProposerProductID,
		&proposal.TargetProductID,
		&proposal.Title,
		&proposal.Description,
		&startDate,
		&endDate,
		&proposal.Terms.Duration,
		&proposal.Terms.Location,
		&proposal.Terms.ProfitShare,
		&proposal.Terms.ExpectedBenefit,
		&collabStart,
		&collabEnd,
		&status,
		&proposal.AgreementID,
		&createdAt,
		&updatedAt,
	); err != nil {
		return domain.Proposal{}, err
	}

	origin, err := domain.NewOrigin(domain.Source(source), partyID, storeID)
	if err != nil {
		return domain.Proposal{}, fmt.Errorf("proposal %s: %w", proposal.ID, err)
	}
	proposal.Origin = origin
	if proposal.StartDate, err = domain.ParseOptionalDate(startDate); err != nil {
		return domain.Proposal{}, fmt.Errorf("proposal %s: %w", proposal.ID, err)
	}
	if proposal.EndDate, err = domain.ParseOptionalDate(endDate); err != nil {
		return domain.Proposal{}, fmt.Errorf("proposal %s: %w", proposal.ID, err)
	}
	if proposal.Terms.CollaborationStartDate, err = domain.ParseOptionalDate(collabStart); err != nil {
		return domain.Proposal{}, fmt.Errorf("proposal %s: %w", proposal.ID, err)
	}
	if proposal.Terms.CollaborationEndDate, err = domain.ParseOptionalDate(collabEnd); err != nil {
		return domain.Proposal{}, fmt.Errorf("proposal %s: %w", proposal.ID, err)
	}
	proposal.Status = domain.ProposalStatus(status)
	proposal.CreatedAt = fromMillis(createdAt)
	proposal.UpdatedAt = fromMillis(updatedAt)
	return proposal, nil
}

func normalizeTimes(createdAt, updatedAt time.Time) (time.Time, time.Time) {
	createdAt = createdAt.UTC()
	updatedAt = updatedAt.UTC()
	if createdAt.IsZero() && updatedAt.IsZero() {
		now := time.Now().UTC()
		return now, now
	}
	if createdAt.IsZero() {
		createdAt = updatedAt
	}
	if updatedAt.IsZero() {
		updatedAt = createdAt
	}
	return createdAt, updatedAt
}
