package domain

import (
	"fmt"
	"strings"
	"time"
)

// OwnerKind names the record type a room belongs to.
type OwnerKind string

const (
	OwnerProposal  OwnerKind = "proposal"
	OwnerAgreement OwnerKind = "agreement"
)

// Owner is the single proposal or agreement a room belongs to.
type Owner struct {
	Kind OwnerKind
	ID   string
}

// ProposalOwner returns the owner reference for a proposal.
func ProposalOwner(proposalID string) Owner {
	return Owner{Kind: OwnerProposal, ID: proposalID}
}

// AgreementOwner returns the owner reference for an agreement.
func AgreementOwner(agreementID string) Owner {
	return Owner{Kind: OwnerAgreement, ID: agreementID}
}

// Validate checks that the owner names a known kind and an id.
func (o Owner) Validate() error {
	switch o.Kind {
	case OwnerProposal, OwnerAgreement:
	default:
		return fmt.Errorf("unknown room owner kind %q", o.Kind)
	}
	if strings.TrimSpace(o.ID) == "" {
		return fmt.Errorf("room owner id is required")
	}
	return nil
}

func (o Owner) String() string {
	return string(o.Kind) + ":" + o.ID
}

// Room is the communication channel between two linked parties.
type Room struct {
	ID        string
	Owner     Owner
	Name      string
	Active    bool
	CreatedAt time.Time
}

// RoomName joins the two parties' display names.
func RoomName(first, second string) string {
	return strings.TrimSpace(first) + " - " + strings.TrimSpace(second)
}
