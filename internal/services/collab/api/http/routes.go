// Package http exposes the collaboration lifecycle over HTTP.
package http

import (
	"net/http"

	"github.com/louisbranch/crosspromo/internal/platform/httpx"
)

// Route patterns served by the handler.
const (
	ApplyPattern           = "/collaborations/apply"
	AcceptProposalPattern  = "/proposals/{proposalID}/accept"
	RejectProposalPattern  = "/proposals/{proposalID}/reject"
	AcceptAgreementPattern = "/collaborations/{agreementID}/accept"
	RejectAgreementPattern = "/collaborations/{agreementID}/reject"
	ProposalAPIPattern     = "/api/proposals/{proposalID}"
	SentProposalsAPI       = "/api/proposals/sent"
	ReceivedProposalsAPI   = "/api/proposals/received"
	AgreementsAPI          = "/api/agreements"
	SentPage               = "/mypage/sent"
	ReceivedPage           = "/mypage/received"
	PartyHeader            = "X-Party-ID"
)

func registerRoutes(mux *http.ServeMux, h handlers) {
	if mux == nil {
		return
	}
	mux.HandleFunc(http.MethodPost+" "+ApplyPattern, h.handleApply)
	mux.HandleFunc(http.MethodPost+" "+AcceptProposalPattern, h.handleAcceptProposal)
	mux.HandleFunc(http.MethodPost+" "+RejectProposalPattern, h.handleRejectProposal)
	mux.HandleFunc(http.MethodPost+" "+AcceptAgreementPattern, h.handleAcceptAgreement)
	mux.HandleFunc(http.MethodPost+" "+RejectAgreementPattern, h.handleRejectAgreement)
	mux.HandleFunc(http.MethodGet+" "+SentProposalsAPI, h.handleSentProposals)
	mux.HandleFunc(http.MethodGet+" "+ReceivedProposalsAPI, h.handleReceivedProposals)
	mux.HandleFunc(http.MethodGet+" "+ProposalAPIPattern, h.handleProposal)
	mux.HandleFunc(http.MethodGet+" "+AgreementsAPI, h.handleAgreements)
}

// NewHandler builds the routed handler with the standard middleware chain.
func NewHandler(service Service, loginRoute string) http.Handler {
	mux := http.NewServeMux()
	registerRoutes(mux, handlers{service: service, loginRoute: loginRoute})
	return httpx.Chain(mux,
		httpx.RecoverPanic(),
		httpx.RequestID("collab"),
		withParty(loginRoute),
	)
}
