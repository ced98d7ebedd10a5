// Package room provisions communication rooms for linked parties.
package room

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/louisbranch/crosspromo/internal/platform/id"
	"github.com/louisbranch/crosspromo/internal/services/collab/domain"
	"github.com/louisbranch/crosspromo/internal/services/collab/storage"
)

const (
	fallbackTarget    = "Target Store"
	fallbackInitiator = "Initiator"
	fallbackPartner   = "Partner"
)

// Store is the persistence surface the provisioner reads and writes.
type Store interface {
	storage.RoomStore
	storage.Directory
	GetProposal(ctx context.Context, proposalID string) (domain.Proposal, error)
	GetProposalByAgreement(ctx context.Context, agreementID string) (domain.Proposal, error)
	GetAgreement(ctx context.Context, agreementID string) (domain.Agreement, error)
}

// Provisioner creates at most one room per owner.
type Provisioner struct {
	store Store
	newID id.Generator
	now   func() time.Time
}

// Option customizes a Provisioner.
type Option func(*Provisioner)

// WithIDGenerator overrides room id generation.
func WithIDGenerator(gen id.Generator) Option {
	return func(p *Provisioner) {
		if gen != nil {
			p.newID = gen
		}
	}
}

// WithClock overrides the creation timestamp source.
func WithClock(now func() time.Time) Option {
	return func(p *Provisioner) {
		if now != nil {
			p.now = now
		}
	}
}

// NewProvisioner builds a provisioner over store.
func NewProvisioner(store Store, opts ...Option) *Provisioner {
	p := &Provisioner{store: store, newID: id.NewID, now: time.Now}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Ensure returns the room for owner, creating it when absent. Repeat calls
// return the same room. When a concurrent caller wins the insert, the
// winner's room is returned.
func (p *Provisioner) Ensure(ctx context.Context, owner domain.Owner) (domain.Room, error) {
	if p == nil || p.store == nil {
		return domain.Room{}, fmt.Errorf("room provisioner is not configured")
	}
	if err := owner.Validate(); err != nil {
		return domain.Room{}, err
	}

	existing, err := p.store.GetRoomByOwner(ctx, owner)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return domain.Room{}, fmt.Errorf("get room for %s: %w", owner, err)
	}

	name, err := p.name(ctx, owner)
	if err != nil {
		return domain.Room{}, err
	}
	roomID, err := p.newID()
	if err != nil {
		return domain.Room{}, err
	}
	room := domain.Room{
		ID:        roomID,
		Owner:     owner,
		Name:      name,
		Active:    true,
		CreatedAt: p.now().UTC(),
	}
	if err := p.store.SaveRoom(ctx, room); err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			winner, getErr := p.store.GetRoomByOwner(ctx, owner)
			if getErr != nil {
				return domain.Room{}, fmt.Errorf("reload room for %s: %w", owner, getErr)
			}
			return winner, nil
		}
		return domain.Room{}, fmt.Errorf("save room for %s: %w", owner, err)
	}
	return room, nil
}

func (p *Provisioner) name(ctx context.Context, owner domain.Owner) (string, error) {
	switch owner.Kind {
	case domain.OwnerProposal:
		proposal, err := p.store.GetProposal(ctx, owner.ID)
		if err != nil {
			return "", fmt.Errorf("load proposal %s: %w", owner.ID, err)
		}
		return p.proposalName(ctx, proposal)
	default:
		agreement, err := p.store.GetAgreement(ctx, owner.ID)
		if err != nil {
			return "", fmt.Errorf("load agreement %s: %w", owner.ID, err)
		}
		origin, err := p.store.GetProposalByAgreement(ctx, agreement.ID)
		switch {
		case err == nil:
			return p.proposalName(ctx, origin)
		case errors.Is(err, storage.ErrNotFound):
			return p.agreementName(ctx, agreement)
		default:
			return "", fmt.Errorf("load originating proposal for %s: %w", agreement.ID, err)
		}
	}
}

// proposalName prefers the proposer's display name over their store name.
func (p *Provisioner) proposalName(ctx context.Context, proposal domain.Proposal) (string, error) {
	first, err := p.partyName(ctx, proposal.ProposerPartyID())
	if err != nil {
		return "", err
	}
	if first == "" {
		if first, err = p.storeName(ctx, proposal.ProposerStoreID()); err != nil {
			return "", err
		}
	}
	second, err := p.storeName(ctx, proposal.TargetStoreID)
	if err != nil {
		return "", err
	}
	if second == "" {
		second = fallbackTarget
	}
	return domain.RoomName(first, second), nil
}

func (p *Provisioner) agreementName(ctx context.Context, agreement domain.Agreement) (string, error) {
	first, err := p.storeName(ctx, agreement.InitiatorStoreID)
	if err != nil {
		return "", err
	}
	if first == "" {
		if first, err = p.partyName(ctx, agreement.InitiatorPartyID); err != nil {
			return "", err
		}
	}
	if first == "" {
		first = fallbackInitiator
	}
	second, err := p.storeName(ctx, agreement.PartnerStoreID)
	if err != nil {
		return "", err
	}
	if second == "" {
		second = fallbackPartner
	}
	return domain.RoomName(first, second), nil
}

// partyName returns "" for blank or unknown parties.
func (p *Provisioner) partyName(ctx context.Context, partyID string) (string, error) {
	if partyID == "" {
		return "", nil
	}
	party, err := p.store.GetParty(ctx, partyID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return "", nil
		}
		return "", fmt.Errorf("load party %s: %w", partyID, err)
	}
	return party.DisplayName, nil
}

// storeName returns "" for blank or unknown stores.
func (p *Provisioner) storeName(ctx context.Context, storeID string) (string, error) {
	if storeID == "" {
		return "", nil
	}
	store, err := p.store.GetStore(ctx, storeID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return "", nil
		}
		return "", fmt.Errorf("load store %s: %w", storeID, err)
	}
	return store.Name, nil
}
