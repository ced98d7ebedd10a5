package proposal

import (
	"context"
	"errors"
	"testing"

	apperrors "github.com/louisbranch/crosspromo/internal/platform/errors"
	"github.com/louisbranch/crosspromo/internal/services/collab/domain"
	"github.com/louisbranch/crosspromo/internal/services/collab/storage"
)

type fakeDirectory struct {
	parties  map[string]domain.Party
	stores   map[string]domain.Store
	products map[string]domain.Product
	err      error
}

func newFakeDirectory() *fakeDirectory {
	return &fakeDirectory{
		parties: map[string]domain.Party{
			"owner-1":  {ID: "owner-1", DisplayName: "Ana", Role: domain.RoleStoreOwner},
			"owner-2":  {ID: "owner-2", DisplayName: "Bo", Role: domain.RoleStoreOwner},
			"customer": {ID: "customer", DisplayName: "Cy", Role: domain.RoleCustomer},
			"maker":    {ID: "maker", DisplayName: "Di", Role: domain.RoleCustomer},
		},
		stores: map[string]domain.Store{
			"S1": {ID: "S1", OwnerPartyID: "owner-1", Name: "Bean Bar"},
			"S2": {ID: "S2", OwnerPartyID: "owner-2", Name: "Crumb Co"},
			"S3": {ID: "S3", OwnerPartyID: "maker", Name: "Maker Nook"},
		},
		products: map[string]domain.Product{
			"P1": {ID: "P1", StoreID: "S1"},
			"P2": {ID: "P2", StoreID: "S2"},
		},
	}
}

func (f *fakeDirectory) GetParty(_ context.Context, id string) (domain.Party, error) {
	if f.err != nil {
		return domain.Party{}, f.err
	}
	p, ok := f.parties[id]
	if !ok {
		return domain.Party{}, storage.ErrNotFound
	}
	return p, nil
}

func (f *fakeDirectory) GetStore(_ context.Context, id string) (domain.Store, error) {
	s, ok := f.stores[id]
	if !ok {
		return domain.Store{}, storage.ErrNotFound
	}
	return s, nil
}

func (f *fakeDirectory) GetStoreByOwner(_ context.Context, partyID string) (domain.Store, error) {
	for _, s := range f.stores {
		if s.OwnerPartyID == partyID {
			return s, nil
		}
	}
	return domain.Store{}, storage.ErrNotFound
}

func (f *fakeDirectory) GetProduct(_ context.Context, id string) (domain.Product, error) {
	p, ok := f.products[id]
	if !ok {
		return domain.Product{}, storage.ErrNotFound
	}
	return p, nil
}

func validSubmission() Submission {
	return Submission{
		ProposerPartyID: "owner-1",
		TargetStoreID:   "S2",
		Title:           " 콜라보 제안 ",
		Description:     "공동 프로모션",
		StartDate:       "2025-08-01",
		EndDate:         "2025-08-15",
	}
}

func TestValidateRules(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Submission)
		want   apperrors.Code
	}{
		{name: "unknown party", mutate: func(s *Submission) { s.ProposerPartyID = "ghost" }, want: apperrors.CodePartyNotFound},
		{name: "blank title", mutate: func(s *Submission) { s.Title = "  " }, want: apperrors.CodeTitleRequired},
		{name: "blank description", mutate: func(s *Submission) { s.Description = "" }, want: apperrors.CodeDescriptionRequired},
		{name: "title checked before description", mutate: func(s *Submission) { s.Title = ""; s.Description = "" }, want: apperrors.CodeTitleRequired},
		{name: "missing target", mutate: func(s *Submission) { s.TargetStoreID = " " }, want: apperrors.CodeTargetStoreRequired},
		{name: "unknown target", mutate: func(s *Submission) { s.TargetStoreID = "S9" }, want: apperrors.CodeStoreNotFound},
		{name: "bad start", mutate: func(s *Submission) { s.StartDate = "08/01/2025" }, want: apperrors.CodeInvalidDateFormat},
		{name: "missing end", mutate: func(s *Submission) { s.EndDate = "" }, want: apperrors.CodeInvalidDateFormat},
		{name: "end before start", mutate: func(s *Submission) { s.EndDate = "2025-07-31" }, want: apperrors.CodeInvalidDateRange},
		{name: "end equals start", mutate: func(s *Submission) { s.EndDate = s.StartDate }, want: apperrors.CodeInvalidDateRange},
		{name: "foreign source store", mutate: func(s *Submission) { s.SourceStoreID = "S2" }, want: apperrors.CodeSourceStoreMismatch},
		{name: "customer claims store", mutate: func(s *Submission) { s.ProposerPartyID = "customer"; s.SourceStoreID = "S1" }, want: apperrors.CodeSourceStoreMismatch},
		{name: "foreign proposer product", mutate: func(s *Submission) { s.ProposerProductID = "P2" }, want: apperrors.CodeSourceProductMismatch},
		{name: "unknown proposer product", mutate: func(s *Submission) { s.ProposerProductID = "P9" }, want: apperrors.CodeSourceProductMismatch},
		{name: "customer without store offers product", mutate: func(s *Submission) { s.ProposerPartyID = "customer"; s.ProposerProductID = "P1" }, want: apperrors.CodeSourceProductMismatch},
		{name: "foreign target product", mutate: func(s *Submission) { s.TargetProductID = "P1" }, want: apperrors.CodeTargetProductMismatch},
		{name: "unknown target product", mutate: func(s *Submission) { s.TargetProductID = "P9" }, want: apperrors.CodeTargetProductMismatch},
	}

	validator := NewValidator(newFakeDirectory())
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			sub := validSubmission()
			tc.mutate(&sub)
			_, err := validator.Validate(context.Background(), sub)
			if got := apperrors.CodeOf(err); got != tc.want {
				t.Fatalf("code = %s, want %s (err %v)", got, tc.want, err)
			}
		})
	}
}

func TestValidateStoreOwnerDraft(t *testing.T) {
	sub := validSubmission()
	sub.SourceStoreID = "S1"
	sub.ProposerProductID = "P1"
	sub.TargetProductID = "P2"
	sub.Terms = domain.Terms{Location: " downtown "}

	draft, err := NewValidator(newFakeDirectory()).Validate(context.Background(), sub)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if draft.Origin != (domain.StoreOwnerOrigin{PartyID: "owner-1", StoreID: "S1"}) {
		t.Fatalf("origin = %#v, want store owner S1", draft.Origin)
	}
	if draft.Title != "콜라보 제안" {
		t.Fatalf("title = %q, want trimmed", draft.Title)
	}
	if draft.Terms.Location != "downtown" {
		t.Fatalf("location = %q, want downtown", draft.Terms.Location)
	}
	if draft.StartDate.String() != "2025-08-01" || draft.EndDate.String() != "2025-08-15" {
		t.Fatalf("dates = %s..%s", draft.StartDate, draft.EndDate)
	}

	p := draft.Proposal("prop-1")
	if p.Status != domain.ProposalPending || p.TargetStoreID != "S2" {
		t.Fatalf("proposal = %+v", p)
	}
}

func TestValidateCollaborationWindowIsLenient(t *testing.T) {
	tests := []struct {
		name      string
		start     string
		end       string
		wantStart string
		wantEnd   string
	}{
		{name: "both set", start: " 2025-08-03 ", end: "2025-08-10", wantStart: "2025-08-03", wantEnd: "2025-08-10"},
		{name: "blank", start: "", end: "  ", wantStart: "", wantEnd: ""},
		{name: "malformed start dropped", start: "08/03/2025", end: "2025-08-10", wantStart: "", wantEnd: "2025-08-10"},
		{name: "malformed end dropped", start: "2025-08-03", end: "soon", wantStart: "2025-08-03", wantEnd: ""},
		{name: "window not range checked", start: "2025-09-01", end: "2025-08-01", wantStart: "2025-09-01", wantEnd: "2025-08-01"},
	}

	validator := NewValidator(newFakeDirectory())
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			sub := validSubmission()
			sub.CollaborationStartDate = tc.start
			sub.CollaborationEndDate = tc.end
			draft, err := validator.Validate(context.Background(), sub)
			if err != nil {
				t.Fatalf("validate: %v", err)
			}
			if got := draft.Terms.CollaborationStartDate.String(); got != tc.wantStart {
				t.Fatalf("collaboration start = %q, want %q", got, tc.wantStart)
			}
			if got := draft.Terms.CollaborationEndDate.String(); got != tc.wantEnd {
				t.Fatalf("collaboration end = %q, want %q", got, tc.wantEnd)
			}
		})
	}
}

func TestValidateAllowsOwnStoreAsTarget(t *testing.T) {
	sub := validSubmission()
	sub.TargetStoreID = "S1"

	draft, err := NewValidator(newFakeDirectory()).Validate(context.Background(), sub)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if draft.TargetStore.ID != "S1" {
		t.Fatalf("target = %q, want S1", draft.TargetStore.ID)
	}
}

func TestValidateCustomerOrigins(t *testing.T) {
	validator := NewValidator(newFakeDirectory())

	sub := validSubmission()
	sub.ProposerPartyID = "customer"
	draft, err := validator.Validate(context.Background(), sub)
	if err != nil {
		t.Fatalf("validate customer: %v", err)
	}
	if draft.Origin != (domain.CustomerOrigin{PartyID: "customer"}) {
		t.Fatalf("origin = %#v, want storeless customer", draft.Origin)
	}

	sub.ProposerPartyID = "maker"
	draft, err = validator.Validate(context.Background(), sub)
	if err != nil {
		t.Fatalf("validate maker: %v", err)
	}
	if draft.Origin != (domain.CustomerOrigin{PartyID: "maker", StoreID: "S3"}) {
		t.Fatalf("origin = %#v, want customer with store S3", draft.Origin)
	}
}

func TestValidateStorageFault(t *testing.T) {
	dir := newFakeDirectory()
	dir.err = errors.New("database is locked")

	_, err := NewValidator(dir).Validate(context.Background(), validSubmission())
	if got := apperrors.CodeOf(err); got != apperrors.CodeStorageFailure {
		t.Fatalf("code = %s, want STORAGE_FAILURE", got)
	}
	if !errors.Is(err, dir.err) {
		t.Fatalf("expected cause to be preserved, got %v", err)
	}
}
