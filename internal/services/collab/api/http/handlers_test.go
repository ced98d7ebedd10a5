package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	apperrors "github.com/louisbranch/crosspromo/internal/platform/errors"
	"github.com/louisbranch/crosspromo/internal/platform/httpx"
	"github.com/louisbranch/crosspromo/internal/services/collab/domain"
	"github.com/louisbranch/crosspromo/internal/services/collab/lifecycle"
	"github.com/louisbranch/crosspromo/internal/services/collab/room"
	"github.com/louisbranch/crosspromo/internal/services/collab/storage/memory"
)

func newTestServer(t *testing.T) (http.Handler, *memory.Store) {
	t.Helper()
	ctx := context.Background()
	store := memory.New()
	for _, party := range []domain.Party{
		{ID: "owner-1", DisplayName: "Ana", Role: domain.RoleStoreOwner},
		{ID: "owner-2", DisplayName: "Bo", Role: domain.RoleStoreOwner},
	} {
		if err := store.PutParty(ctx, party); err != nil {
			t.Fatalf("put party: %v", err)
		}
	}
	for _, s := range []domain.Store{
		{ID: "S1", OwnerPartyID: "owner-1", Name: "Bean Bar"},
		{ID: "S2", OwnerPartyID: "owner-2", Name: "Crumb Co"},
	} {
		if err := store.PutStore(ctx, s); err != nil {
			t.Fatalf("put store: %v", err)
		}
	}
	service, err := lifecycle.New(lifecycle.Config{
		Store:  store,
		Rooms:  room.NewProvisioner(store),
		Routes: lifecycle.DefaultRoutes,
		Logf:   func(string, ...any) {},
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return NewHandler(service, lifecycle.DefaultRoutes.Login), store
}

func postForm(handler http.Handler, path, partyID string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if partyID != "" {
		req.Header.Set(PartyHeader, partyID)
	}
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}

func getJSON(handler http.Handler, path, partyID string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if partyID != "" {
		req.Header.Set(PartyHeader, partyID)
	}
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}

func applyForm() url.Values {
	return url.Values{
		"target_store_id": {"S2"},
		"title":           {"Summer latte"},
		"description":     {"Bundle a latte with a scone"},
		"start_date":      {"2025-08-01"},
		"end_date":        {"2025-08-15"},
	}
}

func TestApplyAcceptFlow(t *testing.T) {
	handler, store := newTestServer(t)

	rr := postForm(handler, ApplyPattern, "owner-1", applyForm())
	if rr.Code != http.StatusSeeOther {
		t.Fatalf("apply status = %d, want %d", rr.Code, http.StatusSeeOther)
	}
	if got := rr.Header().Get("Location"); got != "/mypage/sent?success=proposal_submitted" {
		t.Fatalf("apply location = %q", got)
	}

	rr = getJSON(handler, SentProposalsAPI, "owner-1")
	if rr.Code != http.StatusOK {
		t.Fatalf("sent status = %d", rr.Code)
	}
	var sent []proposalJSON
	if err := json.NewDecoder(rr.Body).Decode(&sent); err != nil {
		t.Fatalf("decode sent: %v", err)
	}
	if len(sent) != 1 || sent[0].Source != "STORE_OWNER" {
		t.Fatalf("sent = %+v", sent)
	}
	proposalID := sent[0].ID

	rr = postForm(handler, "/proposals/"+proposalID+"/accept", "owner-2", nil)
	if got := rr.Header().Get("Location"); got != "/mypage/received?success=proposal_accepted" {
		t.Fatalf("accept location = %q", got)
	}

	rr = postForm(handler, "/proposals/"+proposalID+"/accept", "owner-2", nil)
	if got := rr.Header().Get("Location"); got != "/mypage/received?error=already_processed" {
		t.Fatalf("second accept location = %q", got)
	}

	rr = getJSON(handler, AgreementsAPI+"?party_id=owner-2", "owner-2")
	var agreements []agreementJSON
	if err := json.NewDecoder(rr.Body).Decode(&agreements); err != nil {
		t.Fatalf("decode agreements: %v", err)
	}
	if len(agreements) != 1 || agreements[0].InitiatorStoreID != "S1" {
		t.Fatalf("agreements = %+v", agreements)
	}

	rooms, err := store.ListRooms(context.Background())
	if err != nil {
		t.Fatalf("list rooms: %v", err)
	}
	if len(rooms) != 2 {
		t.Fatalf("rooms = %d, want proposal and agreement rooms", len(rooms))
	}
}

func TestApplyValidationRedirectsToForm(t *testing.T) {
	handler, _ := newTestServer(t)

	form := applyForm()
	form.Set("end_date", "2025-07-01")
	rr := postForm(handler, ApplyPattern, "owner-1", form)
	if got := rr.Header().Get("Location"); got != "/collaborations/apply?error=invalid_date_range" {
		t.Fatalf("location = %q", got)
	}
}

func TestMissingPartyHeader(t *testing.T) {
	handler, _ := newTestServer(t)

	rr := postForm(handler, ApplyPattern, "", applyForm())
	if got := rr.Header().Get("Location"); got != "/login?error=party_not_found" {
		t.Fatalf("location = %q", got)
	}

	rr = getJSON(handler, SentProposalsAPI, "")
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusUnauthorized)
	}
}

func TestProposalVisibility(t *testing.T) {
	handler, _ := newTestServer(t)

	postForm(handler, ApplyPattern, "owner-1", applyForm())
	rr := getJSON(handler, SentProposalsAPI, "owner-1")
	var sent []proposalJSON
	if err := json.NewDecoder(rr.Body).Decode(&sent); err != nil {
		t.Fatalf("decode: %v", err)
	}
	path := "/api/proposals/" + sent[0].ID

	for _, partyID := range []string{"owner-1", "owner-2"} {
		if rr := getJSON(handler, path, partyID); rr.Code != http.StatusOK {
			t.Fatalf("%s status = %d, want 200", partyID, rr.Code)
		}
	}

	rr = getJSON(handler, path, "intruder")
	if rr.Code != http.StatusForbidden {
		t.Fatalf("intruder status = %d, want %d", rr.Code, http.StatusForbidden)
	}

	rr = getJSON(handler, "/api/proposals/missing", "owner-1")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("missing status = %d, want %d", rr.Code, http.StatusNotFound)
	}
	var body httpx.ErrorBody
	if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if body.Code != "PROPOSAL_NOT_FOUND" {
		t.Fatalf("code = %q", body.Code)
	}
}

// brokenInbox serves one proposal but fails every received-proposal lookup.
type brokenInbox struct {
	Service
	proposal domain.Proposal
}

func (b brokenInbox) Proposal(context.Context, string) (domain.Proposal, error) {
	return b.proposal, nil
}

func (b brokenInbox) ReceivedProposals(context.Context, string, domain.ProposalStatus) ([]domain.Proposal, error) {
	return nil, apperrors.Wrap(apperrors.CodeStorageFailure, "storage failure", errors.New("database is locked"))
}

func TestProposalVisibilityReportsStorageFailure(t *testing.T) {
	handler := NewHandler(brokenInbox{proposal: domain.Proposal{
		ID:            "prop-1",
		Origin:        domain.StoreOwnerOrigin{PartyID: "owner-1", StoreID: "S1"},
		TargetStoreID: "S2",
		Status:        domain.ProposalPending,
	}}, lifecycle.DefaultRoutes.Login)

	rr := getJSON(handler, "/api/proposals/prop-1", "owner-1")
	if rr.Code != http.StatusOK {
		t.Fatalf("proposer status = %d, want 200", rr.Code)
	}

	rr = getJSON(handler, "/api/proposals/prop-1", "owner-2")
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusServiceUnavailable)
	}
	var body httpx.ErrorBody
	if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if body.Code != string(apperrors.CodeStorageFailure) {
		t.Fatalf("code = %q, want STORAGE_FAILURE", body.Code)
	}
}

func TestApplyCarriesCollaborationWindow(t *testing.T) {
	handler, _ := newTestServer(t)

	form := applyForm()
	form.Set("collaboration_start_date", "2025-08-05")
	form.Set("collaboration_end_date", "next month")
	rr := postForm(handler, ApplyPattern, "owner-1", form)
	if got := rr.Header().Get("Location"); got != "/mypage/sent?success=proposal_submitted" {
		t.Fatalf("apply location = %q", got)
	}

	rr = getJSON(handler, SentProposalsAPI, "owner-1")
	var sent []proposalJSON
	if err := json.NewDecoder(rr.Body).Decode(&sent); err != nil {
		t.Fatalf("decode sent: %v", err)
	}
	if len(sent) != 1 {
		t.Fatalf("sent = %d, want 1", len(sent))
	}
	if got := sent[0].Terms.CollaborationStartDate; got != "2025-08-05" {
		t.Fatalf("collaboration start = %q, want 2025-08-05", got)
	}
	if got := sent[0].Terms.CollaborationEndDate; got != "" {
		t.Fatalf("collaboration end = %q, want unset", got)
	}
}

func TestListingAnotherPartyIsForbidden(t *testing.T) {
	handler, _ := newTestServer(t)

	rr := getJSON(handler, ReceivedProposalsAPI+"?party_id=owner-2", "owner-1")
	if rr.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusForbidden)
	}
}

func TestLegacyAgreementRoutes(t *testing.T) {
	handler, store := newTestServer(t)
	legacy := domain.Agreement{ID: "legacy-1", InitiatorStoreID: "S1", PartnerStoreID: "S2", Status: domain.AgreementPending}
	if err := store.SaveAgreement(context.Background(), legacy); err != nil {
		t.Fatalf("save legacy: %v", err)
	}

	rr := postForm(handler, "/collaborations/legacy-1/accept", "owner-1", nil)
	if got := rr.Header().Get("Location"); got != "/mypage/received?error=unauthorized_action" {
		t.Fatalf("location = %q", got)
	}
	rr = postForm(handler, "/collaborations/legacy-1/reject", "owner-2", nil)
	if got := rr.Header().Get("Location"); got != "/mypage/received?success=collaboration_rejected" {
		t.Fatalf("location = %q", got)
	}
}
