package domain

import (
	"errors"
	"testing"
	"time"
)

func TestNewOrigin(t *testing.T) {
	origin, err := NewOrigin(SourceStoreOwner, "p1", "s1")
	if err != nil {
		t.Fatalf("new origin: %v", err)
	}
	if origin.Source() != SourceStoreOwner || origin.Proposer() != "p1" {
		t.Fatalf("origin = %#v", origin)
	}
	if storeID, ok := origin.Store(); !ok || storeID != "s1" {
		t.Fatalf("store = %q/%v, want s1/true", storeID, ok)
	}

	customer, err := NewOrigin(SourceCustomer, "p2", "")
	if err != nil {
		t.Fatalf("new customer origin: %v", err)
	}
	if _, ok := customer.Store(); ok {
		t.Fatal("expected customer without store")
	}

	if _, err := NewOrigin(SourceStoreOwner, "p1", ""); err == nil {
		t.Fatal("expected store owner origin without store to fail")
	}
	if _, err := NewOrigin(Source("ADMIN"), "p1", "s1"); err == nil {
		t.Fatal("expected unknown source to fail")
	}
}

func TestProposalDecisionsHappenOnce(t *testing.T) {
	now := time.Date(2025, time.June, 1, 9, 0, 0, 0, time.UTC)
	pending := Proposal{ID: "prop-1", Status: ProposalPending}

	accepted, err := pending.Accept("agr-1", now)
	if err != nil {
		t.Fatalf("accept: %v", err)
	}
	if accepted.Status != ProposalAccepted || accepted.AgreementID != "agr-1" {
		t.Fatalf("accepted = %+v", accepted)
	}
	if !accepted.UpdatedAt.Equal(now) {
		t.Fatalf("updated_at = %v, want %v", accepted.UpdatedAt, now)
	}
	if pending.Status != ProposalPending {
		t.Fatal("accept must not mutate the receiver")
	}

	if _, err := accepted.Reject(now); !errors.Is(err, ErrNotPending) {
		t.Fatalf("reject after accept error = %v, want ErrNotPending", err)
	}
	rejected, err := pending.Reject(now)
	if err != nil {
		t.Fatalf("reject: %v", err)
	}
	if _, err := rejected.Accept("agr-2", now); !errors.Is(err, ErrNotPending) {
		t.Fatalf("accept after reject error = %v, want ErrNotPending", err)
	}
}

func TestProposalProposerAccessors(t *testing.T) {
	p := Proposal{Origin: CustomerOrigin{PartyID: "cust"}}
	if p.ProposerPartyID() != "cust" || p.ProposerStoreID() != "" {
		t.Fatalf("proposer = %q/%q", p.ProposerPartyID(), p.ProposerStoreID())
	}
	if (Proposal{}).ProposerPartyID() != "" {
		t.Fatal("expected empty proposer without origin")
	}
}
