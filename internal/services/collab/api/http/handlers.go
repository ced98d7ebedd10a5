package http

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	apperrors "github.com/louisbranch/crosspromo/internal/platform/errors"
	"github.com/louisbranch/crosspromo/internal/platform/httpx"
	"github.com/louisbranch/crosspromo/internal/platform/requestctx"
	"github.com/louisbranch/crosspromo/internal/services/collab/domain"
	"github.com/louisbranch/crosspromo/internal/services/collab/proposal"
)

// Service is the lifecycle surface the handlers call.
type Service interface {
	Submit(ctx context.Context, sub proposal.Submission) (string, error)
	AcceptProposal(ctx context.Context, actorPartyID, proposalID string) (domain.Agreement, error)
	RejectProposal(ctx context.Context, actorPartyID, proposalID string) error
	AcceptAgreement(ctx context.Context, actorPartyID, agreementID string) error
	RejectAgreement(ctx context.Context, actorPartyID, agreementID string) error
	Proposal(ctx context.Context, proposalID string) (domain.Proposal, error)
	SentProposals(ctx context.Context, partyID string) ([]domain.Proposal, error)
	ReceivedProposals(ctx context.Context, partyID string, status domain.ProposalStatus) ([]domain.Proposal, error)
	AgreementsForParty(ctx context.Context, partyID string) ([]domain.Agreement, error)
}

type handlers struct {
	service    Service
	loginRoute string
}

// withParty resolves the acting party from the request header. Form posts
// without one are sent to login; API calls get a 401.
func withParty(loginRoute string) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			partyID := strings.TrimSpace(r.Header.Get(PartyHeader))
			if partyID == "" {
				if strings.HasPrefix(r.URL.Path, "/api/") {
					_ = httpx.WriteJSON(w, http.StatusUnauthorized, httpx.ErrorBody{
						Code:    string(apperrors.CodePartyNotFound),
						Message: "acting party is required",
					})
					return
				}
				httpx.WriteRedirect(w, r, apperrors.HintFor(loginRoute, apperrors.CodePartyNotFound))
				return
			}
			next.ServeHTTP(w, r.WithContext(requestctx.WithPartyID(r.Context(), partyID)))
		})
	}
}

func (h handlers) actor(r *http.Request) (context.Context, string) {
	ctx := httpx.RequestContext(r)
	return ctx, requestctx.PartyIDFromContext(ctx)
}

// redirectResult sends form posts back to the failure hint, or to success
// with the outcome slug.
func (h handlers) redirectResult(w http.ResponseWriter, r *http.Request, err error, successRoute, outcome string) {
	if err != nil {
		if hint := apperrors.HintOf(err); hint != "" {
			httpx.WriteRedirect(w, r, hint)
			return
		}
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteRedirect(w, r, successRoute+"?success="+url.QueryEscape(outcome))
}

func (h handlers) handleApply(w http.ResponseWriter, r *http.Request) {
	ctx, partyID := h.actor(r)
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	sub := proposal.Submission{
		ProposerPartyID:   partyID,
		SourceStoreID:     r.PostForm.Get("source_store_id"),
		TargetStoreID:     r.PostForm.Get("target_store_id"),
		ProposerProductID: r.PostForm.Get("proposer_product_id"),
		TargetProductID:   r.PostForm.Get("target_product_id"),
		Title:             r.PostForm.Get("title"),
		Description:       r.PostForm.Get("description"),
		StartDate:         r.PostForm.Get("start_date"),
		EndDate:           r.PostForm.Get("end_date"),
		Terms: domain.Terms{
			Duration:        r.PostForm.Get("duration"),
			Location:        r.PostForm.Get("location"),
			ProfitShare:     r.PostForm.Get("profit_share"),
			ExpectedBenefit: r.PostForm.Get("expected_benefit"),
		},
		CollaborationStartDate: r.PostForm.Get("collaboration_start_date"),
		CollaborationEndDate:   r.PostForm.Get("collaboration_end_date"),
	}
	_, err := h.service.Submit(ctx, sub)
	h.redirectResult(w, r, err, SentPage, "proposal_submitted")
}

func (h handlers) handleAcceptProposal(w http.ResponseWriter, r *http.Request) {
	ctx, partyID := h.actor(r)
	_, err := h.service.AcceptProposal(ctx, partyID, strings.TrimSpace(r.PathValue("proposalID")))
	h.redirectResult(w, r, err, ReceivedPage, "proposal_accepted")
}

func (h handlers) handleRejectProposal(w http.ResponseWriter, r *http.Request) {
	ctx, partyID := h.actor(r)
	err := h.service.RejectProposal(ctx, partyID, strings.TrimSpace(r.PathValue("proposalID")))
	h.redirectResult(w, r, err, ReceivedPage, "proposal_rejected")
}

func (h handlers) handleAcceptAgreement(w http.ResponseWriter, r *http.Request) {
	ctx, partyID := h.actor(r)
	err := h.service.AcceptAgreement(ctx, partyID, strings.TrimSpace(r.PathValue("agreementID")))
	h.redirectResult(w, r, err, ReceivedPage, "collaboration_accepted")
}

func (h handlers) handleRejectAgreement(w http.ResponseWriter, r *http.Request) {
	ctx, partyID := h.actor(r)
	err := h.service.RejectAgreement(ctx, partyID, strings.TrimSpace(r.PathValue("agreementID")))
	h.redirectResult(w, r, err, ReceivedPage, "collaboration_rejected")
}

// subject returns the party a listing is for. Callers may only list their own.
func (h handlers) subject(r *http.Request) (context.Context, string, error) {
	ctx, partyID := h.actor(r)
	requested := strings.TrimSpace(r.URL.Query().Get("party_id"))
	if requested != "" && requested != partyID {
		return ctx, "", apperrors.New(apperrors.CodeUnauthorizedAction, "cannot list another party")
	}
	return ctx, partyID, nil
}

func (h handlers) handleProposal(w http.ResponseWriter, r *http.Request) {
	ctx, partyID := h.actor(r)
	p, err := h.service.Proposal(ctx, strings.TrimSpace(r.PathValue("proposalID")))
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	if p.ProposerPartyID() != partyID {
		received, err := h.ownsTarget(ctx, partyID, p)
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		if !received {
			httpx.WriteError(w, r, apperrors.New(apperrors.CodeUnauthorizedAction, "not a party to this proposal"))
			return
		}
	}
	_ = httpx.WriteJSON(w, http.StatusOK, proposalView(p))
}

// ownsTarget reports whether partyID received p.
func (h handlers) ownsTarget(ctx context.Context, partyID string, p domain.Proposal) (bool, error) {
	received, err := h.service.ReceivedProposals(ctx, partyID, "")
	if err != nil {
		return false, err
	}
	for _, candidate := range received {
		if candidate.ID == p.ID {
			return true, nil
		}
	}
	return false, nil
}

func (h handlers) handleSentProposals(w http.ResponseWriter, r *http.Request) {
	ctx, partyID, err := h.subject(r)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	proposals, err := h.service.SentProposals(ctx, partyID)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	_ = httpx.WriteJSON(w, http.StatusOK, proposalList(proposals))
}

func (h handlers) handleReceivedProposals(w http.ResponseWriter, r *http.Request) {
	ctx, partyID, err := h.subject(r)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	status := domain.ProposalStatus(strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("status"))))
	proposals, err := h.service.ReceivedProposals(ctx, partyID, status)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	_ = httpx.WriteJSON(w, http.StatusOK, proposalList(proposals))
}

func (h handlers) handleAgreements(w http.ResponseWriter, r *http.Request) {
	ctx, partyID, err := h.subject(r)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	agreements, err := h.service.AgreementsForParty(ctx, partyID)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	_ = httpx.WriteJSON(w, http.StatusOK, agreementList(agreements))
}
