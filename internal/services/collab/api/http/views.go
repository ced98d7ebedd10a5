package http

import (
	"time"

	"github.com/louisbranch/crosspromo/internal/services/collab/domain"
)

type termsJSON struct {
	Duration               string `json:"duration,omitempty"`
	Location               string `json:"location,omitempty"`
	ProfitShare            string `json:"profit_share,omitempty"`
	ExpectedBenefit        string `json:"expected_benefit,omitempty"`
	CollaborationStartDate string `json:"collaboration_start_date,omitempty"`
	CollaborationEndDate   string `json:"collaboration_end_date,omitempty"`
}

type proposalJSON struct {
	ID                string    `json:"id"`
	Source            string    `json:"source"`
	ProposerPartyID   string    `json:"proposer_party_id"`
	ProposerStoreID   string    `json:"proposer_store_id,omitempty"`
	TargetStoreID     string    `json:"target_store_id"`
	ProposerProductID string    `json:"proposer_product_id,omitempty"`
	TargetProductID   string    `json:"target_product_id,omitempty"`
	Title             string    `json:"title"`
	Description       string    `json:"description"`
	StartDate         string    `json:"start_date"`
	EndDate           string    `json:"end_date"`
	Terms             termsJSON `json:"terms"`
	Status            string    `json:"status"`
	AgreementID       string    `json:"agreement_id,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

type agreementJSON struct {
	ID                 string    `json:"id"`
	InitiatorStoreID   string    `json:"initiator_store_id,omitempty"`
	InitiatorPartyID   string    `json:"initiator_party_id,omitempty"`
	PartnerStoreID     string    `json:"partner_store_id"`
	InitiatorProductID string    `json:"initiator_product_id,omitempty"`
	PartnerProductID   string    `json:"partner_product_id,omitempty"`
	Title              string    `json:"title"`
	Description        string    `json:"description"`
	StartDate          string    `json:"start_date,omitempty"`
	EndDate            string    `json:"end_date,omitempty"`
	Status             string    `json:"status"`
	ProposalID         string    `json:"proposal_id,omitempty"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

func proposalView(p domain.Proposal) proposalJSON {
	view := proposalJSON{
		ID:                p.ID,
		ProposerPartyID:   p.ProposerPartyID(),
		ProposerStoreID:   p.ProposerStoreID(),
		TargetStoreID:     p.TargetStoreID,
		ProposerProductID: p.ProposerProductID,
		TargetProductID:   p.TargetProductID,
		Title:             p.Title,
		Description:       p.Description,
		StartDate:         p.StartDate.String(),
		EndDate:           p.EndDate.String(),
		Terms:             termsView(p.Terms),
		Status:            string(p.Status),
		AgreementID:       p.AgreementID,
		CreatedAt:         p.CreatedAt,
		UpdatedAt:         p.UpdatedAt,
	}
	if p.Origin != nil {
		view.Source = string(p.Origin.Source())
	}
	return view
}

func termsView(t domain.Terms) termsJSON {
	return termsJSON{
		Duration:               t.Duration,
		Location:               t.Location,
		ProfitShare:            t.ProfitShare,
		ExpectedBenefit:        t.ExpectedBenefit,
		CollaborationStartDate: t.CollaborationStartDate.String(),
		CollaborationEndDate:   t.CollaborationEndDate.String(),
	}
}

func proposalList(proposals []domain.Proposal) []proposalJSON {
	out := make([]proposalJSON, 0, len(proposals))
	for _, p := range proposals {
		out = append(out, proposalView(p))
	}
	return out
}

func agreementView(a domain.Agreement) agreementJSON {
	return agreementJSON{
		ID:                 a.ID,
		InitiatorStoreID:   a.InitiatorStoreID,
		InitiatorPartyID:   a.InitiatorPartyID,
		PartnerStoreID:     a.PartnerStoreID,
		InitiatorProductID: a.InitiatorProductID,
		PartnerProductID:   a.PartnerProductID,
		Title:              a.Title,
		Description:        a.Description,
		StartDate:          a.StartDate.String(),
		EndDate:            a.EndDate.String(),
		Status:             string(a.Status),
		ProposalID:         a.ProposalID,
		CreatedAt:          a.CreatedAt,
		UpdatedAt:          a.UpdatedAt,
	}
}

func agreementList(agreements []domain.Agreement) []agreementJSON {
	out := make([]agreementJSON, 0, len(agreements))
	for _, a := range agreements {
		out = append(out, agreementView(a))
	}
	return out
}
