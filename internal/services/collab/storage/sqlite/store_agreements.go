package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/louisbranch/crosspromo/internal/services/collab/domain"
	"github.com/louisbranch/crosspromo/internal/services/collab/storage"
)

const agreementColumns = `id, initiator_store_id, initiator_party_id, partner_store_id,
	initiator_product_id, partner_product_id, start_date, end_date, title, description,
	status, proposal_id, created_at, updated_at`

// SaveAgreement inserts or replaces one agreement.
func (s *Store) SaveAgreement(ctx context.Context, agreement domain.Agreement) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	agreementID := strings.TrimSpace(agreement.ID)
	if agreementID == "" {
		return fmt.Errorf("agreement id is required")
	}
	if strings.TrimSpace(agreement.PartnerStoreID) == "" {
		return fmt.Errorf("agreement partner store is required")
	}
	createdAt, updatedAt := normalizeTimes(agreement.CreatedAt, agreement.UpdatedAt)

	_, err := s.q.ExecContext(ctx,
		`INSERT INTO agreements (`+agreementColumns+`, pair_key)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   status = excluded.status,
		   title = excluded.title,
		   description = excluded.description,
		   start_date = excluded.start_date,
		   end_date = excluded.end_date,
		   updated_at = excluded.updated_at`,
		agreementID,
		strings.TrimSpace(agreement.InitiatorStoreID),
		strings.TrimSpace(agreement.InitiatorPartyID),
		strings.TrimSpace(agreement.PartnerStoreID),
		strings.TrimSpace(agreement.InitiatorProductID),
		strings.TrimSpace(agreement.PartnerProductID),
		agreement.StartDate.String(),
		agreement.EndDate.String(),
		agreement.Title,
		agreement.Description,
		string(agreement.Status),
		strings.TrimSpace(agreement.ProposalID),
		toMillis(createdAt),
		toMillis(updatedAt),
		domain.PairingOf(agreement).Key(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return storage.ErrAlreadyExists
		}
		return fmt.Errorf("save agreement: %w", err)
	}
	return nil
}

// GetAgreement returns one agreement by id.
func (s *Store) GetAgreement(ctx context.Context, agreementID string) (domain.Agreement, error) {
	if err := s.ready(ctx); err != nil {
		return domain.Agreement{}, err
	}
	agreementID = strings.TrimSpace(agreementID)
	if agreementID == "" {
		return domain.Agreement{}, storage.ErrNotFound
	}
	row := s.q.QueryRowContext(ctx,
		`SELECT `+agreementColumns+` FROM agreements WHERE id = ?`,
		agreementID,
	)
	agreement, err := scanAgreement(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Agreement{}, storage.ErrNotFound
		}
		return domain.Agreement{}, fmt.Errorf("get agreement: %w", err)
	}
	return agreement, nil
}

// ListAgreementsByStore returns agreements that storeID takes part in.
func (s *Store) ListAgreementsByStore(ctx context.Context, storeID string) ([]domain.Agreement, error) {
	storeID = strings.TrimSpace(storeID)
	return s.listAgreements(ctx,
		`SELECT `+agreementColumns+` FROM agreements
		  WHERE initiator_store_id = ? OR partner_store_id = ?
		  ORDER BY created_at DESC, id ASC`,
		storeID, storeID,
	)
}

// ListAgreementsByStatus returns every agreement in status.
func (s *Store) ListAgreementsByStatus(ctx context.Context, status domain.AgreementStatus) ([]domain.Agreement, error) {
	return s.listAgreements(ctx,
		`SELECT `+agreementColumns+` FROM agreements
		  WHERE status = ?
		  ORDER BY created_at ASC, id ASC`,
		string(status),
	)
}

// FindActiveBetween returns active agreements occupying pairing.
func (s *Store) FindActiveBetween(ctx context.Context, pairing domain.Pairing) ([]domain.Agreement, error) {
	return s.listAgreements(ctx,
		`SELECT `+agreementColumns+` FROM agreements
		  WHERE pair_key = ?
		    AND status IN (?, ?)
		    AND id != ?
		  ORDER BY created_at ASC, id ASC`,
		pairing.Key(),
		string(domain.AgreementPending),
		string(domain.AgreementAccepted),
		strings.TrimSpace(pairing.ExcludeID),
	)
}

func (s *Store) listAgreements(ctx context.Context, query string, args ...any) ([]domain.Agreement, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list agreements: %w", err)
	}
	defer rows.Close()

	agreements := make([]domain.Agreement, 0)
	for rows.Next() {
		agreement, err := scanAgreement(rows)
		if err != nil {
			return nil, fmt.Errorf("list agreements: %w", err)
		}
		agreements = append(agreements, agreement)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list agreements: %w", err)
	}
	return agreements, nil
}

func scanAgreement(row rowScanner) (domain.Agreement, error) {
	var (
		agreement domain.Agreement
		startDate string
		endDate   string
		status    string
		createdAt int64
		updatedAt int64
	)
	if err := row.Scan(
		&agreement.ID,
		&agreement.InitiatorStoreID,
		&agreement.InitiatorPartyID,
		&agreement.PartnerStoreID,
		&agreement.InitiatorProductID,
		&agreement.PartnerProductID,
		&startDate,
		&endDate,
		&agreement.Title,
		&agreement.Description,
		&status,
		&agreement.ProposalID,
		&createdAt,
		&updatedAt,
	); err != nil {
		return domain.Agreement{}, err
	}

	var err error
	if agreement.StartDate, err = domain.ParseOptionalDate(startDate); err != nil {
		return domain.Agreement{}, fmt.Errorf("agreement %s: %w", agreement.ID, err)
	}
	if agreement.EndDate, err = domain.ParseOptionalDate(endDate); err != nil {
		return domain.Agreement{}, fmt.Errorf("agreement %s: %w", agreement.ID, err)
	}
	agreement.Status = domain.AgreementStatus(status)
	agreement.CreatedAt = fromMillis(createdAt)
	agreement.UpdatedAt = fromMillis(updatedAt)
	return agreement, nil
}
