package domain

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// AgreementStatus is the lifecycle state of an agreement.
type AgreementStatus string

const (
	AgreementPending   AgreementStatus = "PENDING"
	AgreementAccepted  AgreementStatus = "ACCEPTED"
	AgreementRejected  AgreementStatus = "REJECTED"
	AgreementCancelled AgreementStatus = "CANCELLED"
	AgreementEnded     AgreementStatus = "ENDED"
)

// Active reports whether the status counts toward the one-active-agreement rule.
func (s AgreementStatus) Active() bool {
	return s == AgreementPending || s == AgreementAccepted
}

// Agreement is a materialized collaboration between an initiator and a
// partner store.
type Agreement struct {
	ID                 string
	InitiatorStoreID   string
	InitiatorPartyID   string
	PartnerStoreID     string
	InitiatorProductID string
	PartnerProductID   string
	StartDate          Date
	EndDate            Date
	Title              string
	Description        string
	Status             AgreementStatus
	ProposalID         string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// AgreementFromProposal derives the accepted agreement for p.
//
// Store-owner proposals make the proposer's store the initiator. Customer
// proposals use the customer's own store when they have one and leave the
// initiator store empty otherwise. The initiating party is always recorded.
func AgreementFromProposal(p Proposal, agreementID string, at time.Time) Agreement {
	return Agreement{
		ID:                 agreementID,
		InitiatorStoreID:   p.ProposerStoreID(),
		InitiatorPartyID:   p.ProposerPartyID(),
		PartnerStoreID:     p.TargetStoreID,
		InitiatorProductID: p.ProposerProductID,
		PartnerProductID:   p.TargetProductID,
		StartDate:          p.StartDate,
		EndDate:            p.EndDate,
		Title:              p.Title,
		Description:        p.Description,
		Status:             AgreementAccepted,
		ProposalID:         p.ID,
		CreatedAt:          at.UTC(),
		UpdatedAt:          at.UTC(),
	}
}

// Accept moves a pending agreement to accepted.
func (a Agreement) Accept(at time.Time) (Agreement, error) {
	return a.decide(AgreementAccepted, at)
}

// Reject moves a pending agreement to rejected.
func (a Agreement) Reject(at time.Time) (Agreement, error) {
	return a.decide(AgreementRejected, at)
}

func (a Agreement) decide(next AgreementStatus, at time.Time) (Agreement, error) {
	if a.Status != AgreementPending {
		return a, fmt.Errorf("move agreement %s from %s to %s: %w", a.ID, a.Status, next, ErrNotPending)
	}
	a.Status = next
	a.UpdatedAt = at.UTC()
	return a, nil
}

// PairStoreID is the store that stands for the initiator when pairing
// agreements. Agreements without an initiator store pair the partner with
// itself.
func (a Agreement) PairStoreID() string {
	if a.InitiatorStoreID != "" {
		return a.InitiatorStoreID
	}
	return a.PartnerStoreID
}

// Pairing identifies the stores and products an agreement links. Both pairs
// are unordered; an empty product only matches another empty product.
type Pairing struct {
	StoreA    string
	StoreB    string
	ProductA  string
	ProductB  string
	ExcludeID string
}

// PairingForProposal builds the pairing an accepted p would occupy.
func PairingForProposal(p Proposal) Pairing {
	storeA := p.ProposerStoreID()
	if storeA == "" {
		storeA = p.TargetStoreID
	}
	return Pairing{
		StoreA:   storeA,
		StoreB:   p.TargetStoreID,
		ProductA: p.ProposerProductID,
		ProductB: p.TargetProductID,
	}
}

// PairingOf returns the pairing occupied by a, excluding a itself.
func PairingOf(a Agreement) Pairing {
	return Pairing{
		StoreA:    a.PairStoreID(),
		StoreB:    a.PartnerStoreID,
		ProductA:  a.InitiatorProductID,
		ProductB:  a.PartnerProductID,
		ExcludeID: a.ID,
	}
}

// Matches reports whether a occupies the same pairing, ignoring status.
func (p Pairing) Matches(a Agreement) bool {
	if p.ExcludeID != "" && a.ID == p.ExcludeID {
		return false
	}
	return PairingOf(a).Key() == p.Key()
}

// Key is a canonical form of the pairing, equal for both orderings.
func (p Pairing) Key() string {
	stores := []string{strings.TrimSpace(p.StoreA), strings.TrimSpace(p.StoreB)}
	products := []string{strings.TrimSpace(p.ProductA), strings.TrimSpace(p.ProductB)}
	sort.Strings(stores)
	sort.Strings(products)
	return stores[0] + "|" + stores[1] + "|" + products[0] + "|" + products[1]
}
