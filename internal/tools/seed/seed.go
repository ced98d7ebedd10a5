// Package seed loads demo directory records and collaboration history into a
// collab database.
package seed

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/louisbranch/crosspromo/internal/services/collab/domain"
	"github.com/louisbranch/crosspromo/internal/services/collab/lifecycle"
	"github.com/louisbranch/crosspromo/internal/services/collab/proposal"
	"github.com/louisbranch/crosspromo/internal/services/collab/room"
	"github.com/louisbranch/crosspromo/internal/services/collab/storage"
)

//go:embed fixtures/*.json
var fixturesFS embed.FS

// DefaultManifest names the embedded fixture used when no path is given.
const DefaultManifest = "demo"

// Manifest defines one seed graph.
type Manifest struct {
	Name             string                    `json:"name"`
	Parties          []ManifestParty           `json:"parties"`
	Stores           []ManifestStore           `json:"stores"`
	Products         []ManifestProduct         `json:"products"`
	LegacyAgreements []ManifestLegacyAgreement `json:"legacy_agreements"`
	Proposals        []ManifestProposal        `json:"proposals"`
}

// ManifestParty defines one account holder.
type ManifestParty struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Role        string `json:"role"`
}

// ManifestStore defines one storefront.
type ManifestStore struct {
	ID           string `json:"id"`
	OwnerPartyID string `json:"owner_party_id"`
	Name         string `json:"name"`
	Category     string `json:"category,omitempty"`
	ContactPhone string `json:"contact_phone,omitempty"`
	ContactEmail string `json:"contact_email,omitempty"`
}

// ManifestProduct defines one catalog item.
type ManifestProduct struct {
	ID         string `json:"id"`
	StoreID    string `json:"store_id"`
	Name       string `json:"name"`
	Category   string `json:"category,omitempty"`
	Type       string `json:"type,omitempty"`
	PriceMinor int64  `json:"price_minor"`
	Available  bool   `json:"available"`
}

// ManifestLegacyAgreement defines a PENDING agreement created without a
// proposal, as older clients did.
type ManifestLegacyAgreement struct {
	ID               string `json:"id"`
	InitiatorStoreID string `json:"initiator_store_id"`
	PartnerStoreID   string `json:"partner_store_id"`
	Title            string `json:"title"`
	Description      string `json:"description,omitempty"`
	StartDate        string `json:"start_date,omitempty"`
	EndDate          string `json:"end_date,omitempty"`
}

// ManifestProposal is submitted through the lifecycle service. Decision is
// empty, "accept", or "reject" and is applied by the target store owner.
type ManifestProposal struct {
	ProposerPartyID        string `json:"proposer_party_id"`
	SourceStoreID          string `json:"source_store_id,omitempty"`
	TargetStoreID          string `json:"target_store_id"`
	ProposerProductID      string `json:"proposer_product_id,omitempty"`
	TargetProductID        string `json:"target_product_id,omitempty"`
	Title                  string `json:"title"`
	Description            string `json:"description"`
	StartDate              string `json:"start_date"`
	EndDate                string `json:"end_date"`
	Duration               string `json:"duration,omitempty"`
	Location               string `json:"location,omitempty"`
	ProfitShare            string `json:"profit_share,omitempty"`
	ExpectedBenefit        string `json:"expected_benefit,omitempty"`
	CollaborationStartDate string `json:"collaboration_start_date,omitempty"`
	CollaborationEndDate   string `json:"collaboration_end_date,omitempty"`
	Decision               string `json:"decision,omitempty"`
}

// Store is the persistence surface seeding writes through.
type Store interface {
	storage.Store
	storage.DirectoryWriter
}

// Result counts what one run wrote.
type Result struct {
	Parties   int
	Stores    int
	Products  int
	Legacy    int
	Submitted int
	Accepted  int
	Rejected  int
	Skipped   int
}

// LoadManifest reads a manifest from path, or the embedded fixture named
// DefaultManifest when path is empty.
func LoadManifest(path string) (Manifest, error) {
	var (
		data []byte
		err  error
	)
	if strings.TrimSpace(path) == "" {
		data, err = fixturesFS.ReadFile("fixtures/" + DefaultManifest + ".json")
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return Manifest{}, fmt.Errorf("read manifest: %w", err)
	}
	var manifest Manifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return Manifest{}, fmt.Errorf("decode manifest: %w", err)
	}
	return manifest, nil
}

// Apply writes manifest into store. Directory records and legacy agreements
// are upserted; proposals already sent with the same title and target are
// skipped so reruns stay stable.
func Apply(ctx context.Context, store Store, manifest Manifest, out io.Writer, verbose bool) (Result, error) {
	if store == nil {
		return Result{}, errors.New("seed store is required")
	}
	if out == nil {
		out = io.Discard
	}
	logf := func(format string, args ...any) {
		if verbose {
			fmt.Fprintf(out, format+"\n", args...)
		}
	}

	var result Result
	for _, p := range manifest.Parties {
		party := domain.Party{ID: p.ID, DisplayName: p.DisplayName, Role: domain.ParseRole(p.Role)}
		if err := store.PutParty(ctx, party); err != nil {
			return result, fmt.Errorf("put party %s: %w", p.ID, err)
		}
		result.Parties++
		logf("party %s (%s)", p.ID, party.Role)
	}
	for _, s := range manifest.Stores {
		if err := store.PutStore(ctx, domain.Store(s)); err != nil {
			return result, fmt.Errorf("put store %s: %w", s.ID, err)
		}
		result.Stores++
		logf("store %s %q", s.ID, s.Name)
	}
	for _, p := range manifest.Products {
		if err := store.PutProduct(ctx, domain.Product(p)); err != nil {
			return result, fmt.Errorf("put product %s: %w", p.ID, err)
		}
		result.Products++
	}
	for _, legacy := range manifest.LegacyAgreements {
		agreement, err := legacyAgreement(legacy)
		if err != nil {
			return result, err
		}
		if err := store.SaveAgreement(ctx, agreement); err != nil {
			return result, fmt.Errorf("save legacy agreement %s: %w", legacy.ID, err)
		}
		result.Legacy++
		logf("legacy agreement %s", legacy.ID)
	}

	service, err := lifecycle.New(lifecycle.Config{
		Store: store,
		Rooms: room.NewProvisioner(store),
		Logf:  logf,
	})
	if err != nil {
		return result, err
	}
	for _, p := range manifest.Proposals {
		if err := applyProposal(ctx, store, service, p, &result, logf); err != nil {
			return result, err
		}
	}
	return result, nil
}

func legacyAgreement(m ManifestLegacyAgreement) (domain.Agreement, error) {
	agreement := domain.Agreement{
		ID:               m.ID,
		InitiatorStoreID: m.InitiatorStoreID,
		PartnerStoreID:   m.PartnerStoreID,
		Title:            m.Title,
		Description:      m.Description,
		Status:           domain.AgreementPending,
	}
	var err error
	if m.StartDate != "" {
		if agreement.StartDate, err = domain.ParseDate(m.StartDate); err != nil {
			return domain.Agreement{}, fmt.Errorf("legacy agreement %s start date: %w", m.ID, err)
		}
	}
	if m.EndDate != "" {
		if agreement.EndDate, err = domain.ParseDate(m.EndDate); err != nil {
			return domain.Agreement{}, fmt.Errorf("legacy agreement %s end date: %w", m.ID, err)
		}
	}
	return agreement, nil
}

func applyProposal(ctx context.Context, store Store, service *lifecycle.Service, m ManifestProposal, result *Result, logf func(string, ...any)) error {
	sent, err := service.SentProposals(ctx, m.ProposerPartyID)
	if err != nil {
		return fmt.Errorf("list sent proposals for %s: %w", m.ProposerPartyID, err)
	}
	for _, existing := range sent {
		if existing.Title == m.Title && existing.TargetStoreID == m.TargetStoreID {
			result.Skipped++
			logf("proposal %q already sent", m.Title)
			return nil
		}
	}

	proposalID, err := service.Submit(ctx, proposal.Submission{
		ProposerPartyID:   m.ProposerPartyID,
		SourceStoreID:     m.SourceStoreID,
		TargetStoreID:     m.TargetStoreID,
		ProposerProductID: m.ProposerProductID,
		TargetProductID:   m.TargetProductID,
		Title:             m.Title,
		Description:       m.Description,
		StartDate:         m.StartDate,
		EndDate:           m.EndDate,
		Terms: domain.Terms{
			Duration:        m.Duration,
			Location:        m.Location,
			ProfitShare:     m.ProfitShare,
			ExpectedBenefit: m.ExpectedBenefit,
		},
		CollaborationStartDate: m.CollaborationStartDate,
		CollaborationEndDate:   m.CollaborationEndDate,
	})
	if err != nil {
		return fmt.Errorf("submit proposal %q: %w", m.Title, err)
	}
	result.Submitted++
	logf("proposal %s %q", proposalID, m.Title)

	if m.Decision == "" {
		return nil
	}
	target, err := store.GetStore(ctx, m.TargetStoreID)
	if err != nil {
		return fmt.Errorf("load target store %s: %w", m.TargetStoreID, err)
	}
	switch strings.ToLower(strings.TrimSpace(m.Decision)) {
	case "accept":
		if _, err := service.AcceptProposal(ctx, target.OwnerPartyID, proposalID); err != nil {
			return fmt.Errorf("accept proposal %q: %w", m.Title, err)
		}
		result.Accepted++
	case "reject":
		if err := service.RejectProposal(ctx, target.OwnerPartyID, proposalID); err != nil {
			return fmt.Errorf("reject proposal %q: %w", m.Title, err)
		}
		result.Rejected++
	default:
		return fmt.Errorf("proposal %q: unknown decision %q", m.Title, m.Decision)
	}
	return nil
}
