// Package storage defines persistence contracts for collaboration state.
package storage

import (
	"context"
	"errors"

	"github.com/louisbranch/crosspromo/internal/services/collab/domain"
)

var (
	// ErrNotFound indicates a requested record is missing.
	ErrNotFound = errors.New("record not found")
	// ErrAlreadyExists indicates a uniqueness-constrained record already exists.
	ErrAlreadyExists = errors.New("record already exists")
)

// ProposalStore persists proposals.
type ProposalStore interface {
	// SaveProposal inserts or replaces a proposal by id.
	SaveProposal(ctx context.Context, proposal domain.Proposal) error
	GetProposal(ctx context.Context, proposalID string) (domain.Proposal, error)
	// GetProposalByAgreement returns the proposal that materialized agreementID.
	GetProposalByAgreement(ctx context.Context, agreementID string) (domain.Proposal, error)
	ListProposalsByProposer(ctx context.Context, partyID string) ([]domain.Proposal, error)
	ListProposalsByTargetStore(ctx context.Context, storeID string, status domain.ProposalStatus) ([]domain.Proposal, error)
	ListProposalsByStatus(ctx context.Context, status domain.ProposalStatus) ([]domain.Proposal, error)
}

// AgreementStore persists agreements.
type AgreementStore interface {
	// SaveAgreement inserts or replaces an agreement by id. Saving a second
	// ACCEPTED agreement for a pairing may return ErrAlreadyExists.
	SaveAgreement(ctx context.Context, agreement domain.Agreement) error
	GetAgreement(ctx context.Context, agreementID string) (domain.Agreement, error)
	// ListAgreementsByStore returns agreements where storeID is initiator or partner.
	ListAgreementsByStore(ctx context.Context, storeID string) ([]domain.Agreement, error)
	ListAgreementsByStatus(ctx context.Context, status domain.AgreementStatus) ([]domain.Agreement, error)
	// FindActiveBetween returns PENDING or ACCEPTED agreements that occupy pairing.
	FindActiveBetween(ctx context.Context, pairing domain.Pairing) ([]domain.Agreement, error)
}

// Directory reads parties, stores, and products owned by other services.
type Directory interface {
	GetParty(ctx context.Context, partyID string) (domain.Party, error)
	GetStore(ctx context.Context, storeID string) (domain.Store, error)
	GetStoreByOwner(ctx context.Context, partyID string) (domain.Store, error)
	GetProduct(ctx context.Context, productID string) (domain.Product, error)
}

// RoomStore persists communication rooms.
type RoomStore interface {
	// SaveRoom inserts a room. A second room for the same owner returns ErrAlreadyExists.
	SaveRoom(ctx context.Context, room domain.Room) error
	GetRoomByOwner(ctx context.Context, owner domain.Owner) (domain.Room, error)
	ListRooms(ctx context.Context) ([]domain.Room, error)
}

// Tx is the set of repositories visible inside one unit of work.
type Tx interface {
	ProposalStore
	AgreementStore
	Directory
	RoomStore
}

// UnitOfWork runs fn atomically. When fn returns an error every write made
// through tx is discarded.
type UnitOfWork interface {
	Within(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}

// Store is the full persistence surface used by the collaboration service.
type Store interface {
	Tx
	UnitOfWork
}

// DirectoryWriter loads directory records for tooling and tests.
type DirectoryWriter interface {
	PutParty(ctx context.Context, party domain.Party) error
	PutStore(ctx context.Context, store domain.Store) error
	PutProduct(ctx context.Context, product domain.Product) error
}
