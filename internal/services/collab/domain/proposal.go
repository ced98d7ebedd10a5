package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrNotPending indicates a transition was attempted after a decision.
var ErrNotPending = errors.New("not pending")

// Source classifies who authored a proposal.
type Source string

const (
	SourceStoreOwner Source = "STORE_OWNER"
	SourceCustomer   Source = "CUSTOMER"
)

// Origin identifies the author of a proposal. It is either a
// StoreOwnerOrigin or a CustomerOrigin.
type Origin interface {
	Source() Source
	// Proposer returns the authoring party id.
	Proposer() string
	// Store returns the authoring store, when there is one.
	Store() (string, bool)
	isOrigin()
}

// StoreOwnerOrigin is a proposal authored on behalf of the proposer's store.
type StoreOwnerOrigin struct {
	PartyID string
	StoreID string
}

func (StoreOwnerOrigin) Source() Source          { return SourceStoreOwner }
func (o StoreOwnerOrigin) Proposer() string      { return o.PartyID }
func (o StoreOwnerOrigin) Store() (string, bool) { return o.StoreID, o.StoreID != "" }
func (StoreOwnerOrigin) isOrigin()               {}

// CustomerOrigin is a proposal authored by an individual. StoreID is set
// only when the customer happens to own a store.
type CustomerOrigin struct {
	PartyID string
	StoreID string
}

func (CustomerOrigin) Source() Source          { return SourceCustomer }
func (o CustomerOrigin) Proposer() string      { return o.PartyID }
func (o CustomerOrigin) Store() (string, bool) { return o.StoreID, o.StoreID != "" }
func (CustomerOrigin) isOrigin()               {}

// NewOrigin rebuilds an origin from its stored parts.
func NewOrigin(source Source, partyID, storeID string) (Origin, error) {
	partyID = strings.TrimSpace(partyID)
	storeID = strings.TrimSpace(storeID)
	if partyID == "" {
		return nil, fmt.Errorf("origin party id is required")
	}
	switch source {
	case SourceStoreOwner:
		if storeID == "" {
			return nil, fmt.Errorf("store owner origin requires a store")
		}
		return StoreOwnerOrigin{PartyID: partyID, StoreID: storeID}, nil
	case SourceCustomer:
		return CustomerOrigin{PartyID: partyID, StoreID: storeID}, nil
	default:
		return nil, fmt.Errorf("unknown origin source %q", source)
	}
}

// ProposalStatus is the decision state of a proposal.
type ProposalStatus string

const (
	ProposalPending  ProposalStatus = "PENDING"
	ProposalAccepted ProposalStatus = "ACCEPTED"
	ProposalRejected ProposalStatus = "REJECTED"
)

// Terms carries the optional commercial details of a proposal. The
// collaboration window is informational and may be unset or partial.
type Terms struct {
	Duration               string
	Location               string
	ProfitShare            string
	ExpectedBenefit        string
	CollaborationStartDate Date
	CollaborationEndDate   Date
}

// Proposal is a request from one party to a target store.
type Proposal struct {
	ID                string
	Origin            Origin
	TargetStoreID     string
	ProposerProductID string
	TargetProductID   string
	Title             string
	Description       string
	StartDate         Date
	EndDate           Date
	Terms             Terms
	Status            ProposalStatus
	AgreementID       string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// ProposerPartyID returns the authoring party, or "" without an origin.
func (p Proposal) ProposerPartyID() string {
	if p.Origin == nil {
		return ""
	}
	return p.Origin.Proposer()
}

// ProposerStoreID returns the authoring store, or "" when there is none.
func (p Proposal) ProposerStoreID() string {
	if p.Origin == nil {
		return ""
	}
	storeID, _ := p.Origin.Store()
	return storeID
}

// Accept records the decision and links the materialized agreement.
func (p Proposal) Accept(agreementID string, at time.Time) (Proposal, error) {
	if p.Status != ProposalPending {
		return p, fmt.Errorf("accept proposal %s in status %s: %w", p.ID, p.Status, ErrNotPending)
	}
	p.Status = ProposalAccepted
	p.AgreementID = agreementID
	p.UpdatedAt = at.UTC()
	return p, nil
}

// Reject records a rejection.
func (p Proposal) Reject(at time.Time) (Proposal, error) {
	if p.Status != ProposalPending {
		return p, fmt.Errorf("reject proposal %s in status %s: %w", p.ID, p.Status, ErrNotPending)
	}
	p.Status = ProposalRejected
	p.UpdatedAt = at.UTC()
	return p, nil
}
