// Package audit checks that rooms and their owners still line up.
package audit

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/louisbranch/crosspromo/internal/services/collab/domain"
	"github.com/louisbranch/crosspromo/internal/services/collab/storage"
)

// IssueType classifies one linkage problem.
type IssueType string

const (
	IssueOrphanedRoom         IssueType = "ORPHANED_ROOM"
	IssueBrokenProposalLink   IssueType = "BROKEN_PROPOSAL_LINK"
	IssueBrokenAgreementLink  IssueType = "BROKEN_AGREEMENT_LINK"
	IssueDuplicateRooms       IssueType = "DUPLICATE_ROOMS_FOR_OWNER"
	IssueMissingAgreementRoom IssueType = "MISSING_AGREEMENT_ROOM"
)

// Issue is one finding.
type Issue struct {
	Type    IssueType
	Owner   domain.Owner
	RoomIDs []string
}

func (i Issue) String() string {
	return fmt.Sprintf("%s owner=%s rooms=%v", i.Type, i.Owner, i.RoomIDs)
}

// Report summarizes one audit run.
type Report struct {
	RoomsScanned      int
	AgreementsScanned int
	Issues            []Issue
	// Repaired lists rooms created during the run.
	Repaired []domain.Room
}

// Healthy reports whether no issues remain unrepaired.
func (r Report) Healthy() bool {
	return len(r.Issues) == len(r.Repaired) && r.onlyMissingRooms()
}

func (r Report) onlyMissingRooms() bool {
	for _, issue := range r.Issues {
		if issue.Type != IssueMissingAgreementRoom {
			return false
		}
	}
	return true
}

// Count returns the number of issues of type.
func (r Report) Count(issueType IssueType) int {
	n := 0
	for _, issue := range r.Issues {
		if issue.Type == issueType {
			n++
		}
	}
	return n
}

// Store is the read surface the audit needs.
type Store interface {
	ListRooms(ctx context.Context) ([]domain.Room, error)
	GetProposal(ctx context.Context, proposalID string) (domain.Proposal, error)
	GetAgreement(ctx context.Context, agreementID string) (domain.Agreement, error)
	ListAgreementsByStatus(ctx context.Context, status domain.AgreementStatus) ([]domain.Agreement, error)
}

// RoomEnsurer provisions rooms during repair.
type RoomEnsurer interface {
	Ensure(ctx context.Context, owner domain.Owner) (domain.Room, error)
}

// Options controls an audit run.
type Options struct {
	// Repair provisions rooms for accepted agreements that lack one.
	Repair bool
}

// Run scans every room and every accepted agreement.
func Run(ctx context.Context, store Store, rooms RoomEnsurer, opts Options) (Report, error) {
	if store == nil {
		return Report{}, fmt.Errorf("audit store is required")
	}
	if opts.Repair && rooms == nil {
		return Report{}, fmt.Errorf("repair requires a room provisioner")
	}

	allRooms, err := store.ListRooms(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("list rooms: %w", err)
	}
	report := Report{RoomsScanned: len(allRooms)}

	byOwner := map[domain.Owner][]string{}
	for _, room := range allRooms {
		if room.Owner.Validate() != nil {
			report.Issues = append(report.Issues, Issue{Type: IssueOrphanedRoom, Owner: room.Owner, RoomIDs: []string{room.ID}})
			continue
		}
		byOwner[room.Owner] = append(byOwner[room.Owner], room.ID)

		broken, err := ownerMissing(ctx, store, room.Owner)
		if err != nil {
			return Report{}, err
		}
		if broken {
			issueType := IssueBrokenProposalLink
			if room.Owner.Kind == domain.OwnerAgreement {
				issueType = IssueBrokenAgreementLink
			}
			report.Issues = append(report.Issues, Issue{Type: issueType, Owner: room.Owner, RoomIDs: []string{room.ID}})
		}
	}

	owners := make([]domain.Owner, 0, len(byOwner))
	for owner, ids := range byOwner {
		if len(ids) > 1 {
			owners = append(owners, owner)
		}
	}
	sort.Slice(owners, func(i, j int) bool { return owners[i].String() < owners[j].String() })
	for _, owner := range owners {
		report.Issues = append(report.Issues, Issue{Type: IssueDuplicateRooms, Owner: owner, RoomIDs: byOwner[owner]})
	}

	accepted, err := store.ListAgreementsByStatus(ctx, domain.AgreementAccepted)
	if err != nil {
		return Report{}, fmt.Errorf("list accepted agreements: %w", err)
	}
	report.AgreementsScanned = len(accepted)
	for _, agreement := range accepted {
		owner := domain.AgreementOwner(agreement.ID)
		if len(byOwner[owner]) > 0 {
			continue
		}
		report.Issues = append(report.Issues, Issue{Type: IssueMissingAgreementRoom, Owner: owner})
		if !opts.Repair {
			continue
		}
		room, err := rooms.Ensure(ctx, owner)
		if err != nil {
			return report, fmt.Errorf("repair room for %s: %w", owner, err)
		}
		report.Repaired = append(report.Repaired, room)
	}
	return report, nil
}

func ownerMissing(ctx context.Context, store Store, owner domain.Owner) (bool, error) {
	var err error
	switch owner.Kind {
	case domain.OwnerProposal:
		_, err = store.GetProposal(ctx, owner.ID)
	default:
		_, err = store.GetAgreement(ctx, owner.ID)
	}
	if err == nil {
		return false, nil
	}
	if errors.Is(err, storage.ErrNotFound) {
		return true, nil
	}
	return false, fmt.Errorf("load owner %s: %w", owner, err)
}
