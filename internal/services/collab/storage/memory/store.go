// Package memory provides an in-process collaboration store for tests and
// single-process tooling.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/louisbranch/crosspromo/internal/services/collab/domain"
	"github.com/louisbranch/crosspromo/internal/services/collab/storage"
)

type state struct {
	parties    map[string]domain.Party
	stores     map[string]domain.Store
	products   map[string]domain.Product
	proposals  map[string]domain.Proposal
	agreements map[string]domain.Agreement
	rooms      map[string]domain.Room
}

func newState() *state {
	return &state{
		parties:    map[string]domain.Party{},
		stores:     map[string]domain.Store{},
		products:   map[string]domain.Product{},
		proposals:  map[string]domain.Proposal{},
		agreements: map[string]domain.Agreement{},
		rooms:      map[string]domain.Room{},
	}
}

func (s *state) clone() *state {
	out := newState()
	for k, v := range s.parties {
		out.parties[k] = v
	}
	for k, v := range s.stores {
		out.stores[k] = v
	}
	for k, v := range s.products {
		out.products[k] = v
	}
	for k, v := range s.proposals {
		out.proposals[k] = v
	}
	for k, v := range s.agreements {
		out.agreements[k] = v
	}
	for k, v := range s.rooms {
		out.rooms[k] = v
	}
	return out
}

// Store keeps collaboration state in maps guarded by one mutex. Units of work
// are serialized and operate on a copy that replaces the live state on
// success.
type Store struct {
	mu   sync.Mutex
	txMu sync.Mutex
	data *state
}

// New returns an empty store.
func New() *Store {
	return &Store{data: newState()}
}

// Within runs fn against a snapshot and commits it when fn succeeds.
func (s *Store) Within(ctx context.Context, fn func(ctx context.Context, tx storage.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if fn == nil {
		return fmt.Errorf("unit of work function is required")
	}
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.Lock()
	snapshot := s.data.clone()
	s.mu.Unlock()

	tx := &txView{data: snapshot}
	if err := fn(ctx, tx); err != nil {
		return err
	}

	s.mu.Lock()
	s.data = snapshot
	s.mu.Unlock()
	return nil
}

func (s *Store) view(fn func(v *txView) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(&txView{data: s.data})
}

// update applies a single write outside any unit of work. It waits for open
// units of work so their commit cannot drop the write.
func (s *Store) update(fn func(v *txView) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()
	return s.view(fn)
}

func (s *Store) SaveProposal(ctx context.Context, proposal domain.Proposal) error {
	return s.update(func(v *txView) error { return v.SaveProposal(ctx, proposal) })
}

func (s *Store) GetProposal(ctx context.Context, proposalID string) (out domain.Proposal, err error) {
	err = s.view(func(v *txView) error { out, err = v.GetProposal(ctx, proposalID); return err })
	return out, err
}

func (s *Store) GetProposalByAgreement(ctx context.Context, agreementID string) (out domain.Proposal, err error) {
	err = s.view(func(v *txView) error { out, err = v.GetProposalByAgreement(ctx, agreementID); return err })
	return out, err
}

func (s *Store) ListProposalsByProposer(ctx context.Context, partyID string) (out []domain.Proposal, err error) {
	err = s.view(func(v *txView) error { out, err = v.ListProposalsByProposer(ctx, partyID); return err })
	return out, err
}

func (s *Store) ListProposalsByTargetStore(ctx context.Context, storeID string, status domain.ProposalStatus) (out []domain.Proposal, err error) {
	err = s.view(func(v *txView) error { out, err = v.ListProposalsByTargetStore(ctx, storeID, status); return err })
	return out, err
}

func (s *Store) ListProposalsByStatus(ctx context.Context, status domain.ProposalStatus) (out []domain.Proposal, err error) {
	err = s.view(func(v *txView) error { out, err = v.ListProposalsByStatus(ctx, status); return err })
	return out, err
}

func (s *Store) SaveAgreement(ctx context.Context, agreement domain.Agreement) error {
	return s.update(func(v *txView) error { return v.SaveAgreement(ctx, agreement) })
}

func (s *Store) GetAgreement(ctx context.Context, agreementID string) (out domain.Agreement, err error) {
	err = s.view(func(v *txView) error { out, err = v.GetAgreement(ctx, agreementID); return err })
	return out, err
}

func (s *Store) ListAgreementsByStore(ctx context.Context, storeID string) (out []domain.Agreement, err error) {
	err = s.view(func(v *txView) error { out, err = v.ListAgreementsByStore(ctx, storeID); return err })
	return out, err
}

func (s *Store) ListAgreementsByStatus(ctx context.Context, status domain.AgreementStatus) (out []domain.Agreement, err error) {
	err = s.view(func(v *txView) error { out, err = v.ListAgreementsByStatus(ctx, status); return err })
	return out, err
}

func (s *Store) FindActiveBetween(ctx context.Context, pairing domain.Pairing) (out []domain.Agreement, err error) {
	err = s.view(func(v *txView) error { out, err = v.FindActiveBetween(ctx, pairing); return err })
	return out, err
}

func (s *Store) GetParty(ctx context.Context, partyID string) (out domain.Party, err error) {
	err = s.view(func(v *txView) error { out, err = v.GetParty(ctx, partyID); return err })
	return out, err
}

func (s *Store) GetStore(ctx context.Context, storeID string) (out domain.Store, err error) {
	err = s.view(func(v *txView) error { out, err = v.GetStore(ctx, storeID); return err })
	return out, err
}

func (s *Store) GetStoreByOwner(ctx context.Context, partyID string) (out domain.Store, err error) {
	err = s.view(func(v *txView) error { out, err = v.GetStoreByOwner(ctx, partyID); return err })
	return out, err
}

func (s *Store) GetProduct(ctx context.Context, productID string) (out domain.Product, err error) {
	err = s.view(func(v *txView) error { out, err = v.GetProduct(ctx, productID); return err })
	return out, err
}

func (s *Store) SaveRoom(ctx context.Context, room domain.Room) error {
	return s.update(func(v *txView) error { return v.SaveRoom(ctx, room) })
}

func (s *Store) GetRoomByOwner(ctx context.Context, owner domain.Owner) (out domain.Room, err error) {
	err = s.view(func(v *txView) error { out, err = v.GetRoomByOwner(ctx, owner); return err })
	return out, err
}

func (s *Store) ListRooms(ctx context.Context) (out []domain.Room, err error) {
	err = s.view(func(v *txView) error { out, err = v.ListRooms(ctx); return err })
	return out, err
}

// PutParty upserts a party.
func (s *Store) PutParty(ctx context.Context, party domain.Party) error {
	return s.update(func(v *txView) error { return v.putParty(ctx, party) })
}

// PutStore upserts a store. A second store for the same owner or name is rejected.
func (s *Store) PutStore(ctx context.Context, store domain.Store) error {
	return s.update(func(v *txView) error { return v.putStore(ctx, store) })
}

// PutProduct upserts a product.
func (s *Store) PutProduct(ctx context.Context, product domain.Product) error {
	return s.update(func(v *txView) error { return v.putProduct(ctx, product) })
}

// txView implements the repositories over one state value. Callers hold
// whatever lock protects data.
type txView struct {
	data *state
}

func (v *txView) SaveProposal(ctx context.Context, proposal domain.Proposal) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.TrimSpace(proposal.ID) == "" {
		return fmt.Errorf("proposal id is required")
	}
	if proposal.Origin == nil {
		return fmt.Errorf("proposal origin is required")
	}
	v.data.proposals[proposal.ID] = proposal
	return nil
}

func (v *txView) GetProposal(ctx context.Context, proposalID string) (domain.Proposal, error) {
	if err := ctx.Err(); err != nil {
		return domain.Proposal{}, err
	}
	proposal, ok := v.data.proposals[strings.TrimSpace(proposalID)]
	if !ok {
		return domain.Proposal{}, storage.ErrNotFound
	}
	return proposal, nil
}

func (v *txView) GetProposalByAgreement(ctx context.Context, agreementID string) (domain.Proposal, error) {
	if err := ctx.Err(); err != nil {
		return domain.Proposal{}, err
	}
	agreementID = strings.TrimSpace(agreementID)
	if agreementID == "" {
		return domain.Proposal{}, storage.ErrNotFound
	}
	for _, proposal := range v.data.proposals {
		if proposal.AgreementID == agreementID {
			return proposal, nil
		}
	}
	return domain.Proposal{}, storage.ErrNotFound
}

func (v *txView) ListProposalsByProposer(ctx context.Context, partyID string) ([]domain.Proposal, error) {
	return v.filterProposals(ctx, func(p domain.Proposal) bool {
		return p.ProposerPartyID() == strings.TrimSpace(partyID)
	})
}

func (v *txView) ListProposalsByTargetStore(ctx context.Context, storeID string, status domain.ProposalStatus) ([]domain.Proposal, error) {
	return v.filterProposals(ctx, func(p domain.Proposal) bool {
		return p.TargetStoreID == strings.TrimSpace(storeID) && (status == "" || p.Status == status)
	})
}

func (v *txView) ListProposalsByStatus(ctx context.Context, status domain.ProposalStatus) ([]domain.Proposal, error) {
	return v.filterProposals(ctx, func(p domain.Proposal) bool { return p.Status == status })
}

func (v *txView) filterProposals(ctx context.Context, keep func(domain.Proposal) bool) ([]domain.Proposal, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([]domain.Proposal, 0)
	for _, proposal := range v.data.proposals {
		if keep(proposal) {
			out = append(out, proposal)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (v *txView) SaveAgreement(ctx context.Context, agreement domain.Agreement) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.TrimSpace(agreement.ID) == "" {
		return fmt.Errorf("agreement id is required")
	}
	if strings.TrimSpace(agreement.PartnerStoreID) == "" {
		return fmt.Errorf("agreement partner store is required")
	}
	if agreement.Status == domain.AgreementAccepted {
		pairing := domain.PairingOf(agreement)
		for _, existing := range v.data.agreements {
			if existing.Status == domain.AgreementAccepted && pairing.Matches(existing) {
				return storage.ErrAlreadyExists
			}
		}
	}
	v.data.agreements[agreement.ID] = agreement
	return nil
}

func (v *txView) GetAgreement(ctx context.Context, agreementID string) (domain.Agreement, error) {
	if err := ctx.Err(); err != nil {
		return domain.Agreement{}, err
	}
	agreement, ok := v.data.agreements[strings.TrimSpace(agreementID)]
	if !ok {
		return domain.Agreement{}, storage.ErrNotFound
	}
	return agreement, nil
}

func (v *txView) ListAgreementsByStore(ctx context.Context, storeID string) ([]domain.Agreement, error) {
	storeID = strings.TrimSpace(storeID)
	return v.filterAgreements(ctx, func(a domain.Agreement) bool {
		return a.InitiatorStoreID == storeID || a.PartnerStoreID == storeID
	}, false)
}

func (v *txView) ListAgreementsByStatus(ctx context.Context, status domain.AgreementStatus) ([]domain.Agreement, error) {
	return v.filterAgreements(ctx, func(a domain.Agreement) bool { return a.Status == status }, true)
}

func (v *txView) FindActiveBetween(ctx context.Context, pairing domain.Pairing) ([]domain.Agreement, error) {
	return v.filterAgreements(ctx, func(a domain.Agreement) bool {
		return a.Status.Active() && pairing.Matches(a)
	}, true)
}

func (v *txView) filterAgreements(ctx context.Context, keep func(domain.Agreement) bool, oldestFirst bool) ([]domain.Agreement, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([]domain.Agreement, 0)
	for _, agreement := range v.data.agreements {
		if keep(agreement) {
			out = append(out, agreement)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			if oldestFirst {
				return out[i].CreatedAt.Before(out[j].CreatedAt)
			}
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (v *txView) GetParty(ctx context.Context, partyID string) (domain.Party, error) {
	if err := ctx.Err(); err != nil {
		return domain.Party{}, err
	}
	party, ok := v.data.parties[strings.TrimSpace(partyID)]
	if !ok {
		return domain.Party{}, storage.ErrNotFound
	}
	return party, nil
}

func (v *txView) GetStore(ctx context.Context, storeID string) (domain.Store, error) {
	if err := ctx.Err(); err != nil {
		return domain.Store{}, err
	}
	store, ok := v.data.stores[strings.TrimSpace(storeID)]
	if !ok {
		return domain.Store{}, storage.ErrNotFound
	}
	return store, nil
}

func (v *txView) GetStoreByOwner(ctx context.Context, partyID string) (domain.Store, error) {
	if err := ctx.Err(); err != nil {
		return domain.Store{}, err
	}
	partyID = strings.TrimSpace(partyID)
	if partyID == "" {
		return domain.Store{}, storage.ErrNotFound
	}
	for _, store := range v.data.stores {
		if store.OwnerPartyID == partyID {
			return store, nil
		}
	}
	return domain.Store{}, storage.ErrNotFound
}

func (v *txView) GetProduct(ctx context.Context, productID string) (domain.Product, error) {
	if err := ctx.Err(); err != nil {
		return domain.Product{}, err
	}
	product, ok := v.data.products[strings.TrimSpace(productID)]
	if !ok {
		return domain.Product{}, storage.ErrNotFound
	}
	return product, nil
}

func (v *txView) SaveRoom(ctx context.Context, room domain.Room) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.TrimSpace(room.ID) == "" {
		return fmt.Errorf("room id is required")
	}
	if err := room.Owner.Validate(); err != nil {
		return err
	}
	for _, existing := range v.data.rooms {
		if existing.ID == room.ID || existing.Owner == room.Owner {
			return storage.ErrAlreadyExists
		}
	}
	v.data.rooms[room.ID] = room
	return nil
}

func (v *txView) GetRoomByOwner(ctx context.Context, owner domain.Owner) (domain.Room, error) {
	if err := ctx.Err(); err != nil {
		return domain.Room{}, err
	}
	for _, room := range v.data.rooms {
		if room.Owner == owner {
			return room, nil
		}
	}
	return domain.Room{}, storage.ErrNotFound
}

func (v *txView) ListRooms(ctx context.Context) ([]domain.Room, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([]domain.Room, 0, len(v.data.rooms))
	for _, room := range v.data.rooms {
		out = append(out, room)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (v *txView) putParty(ctx context.Context, party domain.Party) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.TrimSpace(party.ID) == "" {
		return fmt.Errorf("party id is required")
	}
	v.data.parties[party.ID] = party
	return nil
}

func (v *txView) putStore(ctx context.Context, store domain.Store) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.TrimSpace(store.ID) == "" {
		return fmt.Errorf("store id is required")
	}
	for _, existing := range v.data.stores {
		if existing.ID == store.ID {
			continue
		}
		if existing.OwnerPartyID == store.OwnerPartyID || existing.Name == store.Name {
			return storage.ErrAlreadyExists
		}
	}
	v.data.stores[store.ID] = store
	return nil
}

func (v *txView) putProduct(ctx context.Context, product domain.Product) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.TrimSpace(product.ID) == "" {
		return fmt.Errorf("product id is required")
	}
	v.data.products[product.ID] = product
	return nil
}

var _ storage.Store = (*Store)(nil)
var _ storage.DirectoryWriter = (*Store)(nil)
