package maintenance

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/louisbranch/crosspromo/internal/services/collab/audit"
	"github.com/louisbranch/crosspromo/internal/services/collab/domain"
	"github.com/louisbranch/crosspromo/internal/services/collab/room"
	"github.com/louisbranch/crosspromo/internal/services/collab/storage/memory"
)

func TestParseConfigDefaults(t *testing.T) {
	t.Setenv("CROSSPROMO_COLLAB_DB_PATH", "")
	fs := flag.NewFlagSet("maintenance", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, nil)
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.DBPath != filepath.Join("data", "collab.db") {
		t.Fatalf("db path = %q", cfg.DBPath)
	}
	if cfg.Timeout != 10*time.Minute {
		t.Fatalf("timeout = %v, want 10m", cfg.Timeout)
	}
	if cfg.WarningsCap != 25 {
		t.Fatalf("warnings cap = %d, want 25", cfg.WarningsCap)
	}
	if cfg.Repair {
		t.Fatal("expected repair disabled by default")
	}
}

func TestParseConfigFlags(t *testing.T) {
	t.Setenv("CROSSPROMO_COLLAB_DB_PATH", "/env/collab.db")
	fs := flag.NewFlagSet("maintenance", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, []string{"-repair", "-json", "-timeout", "30s"})
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.DBPath != "/env/collab.db" {
		t.Fatalf("db path = %q, want env value", cfg.DBPath)
	}
	if !cfg.Repair || !cfg.JSONOutput {
		t.Fatalf("cfg = %+v, want repair and json", cfg)
	}
	if cfg.Timeout != 30*time.Second {
		t.Fatalf("timeout = %v, want 30s", cfg.Timeout)
	}
}

func seedAcceptedWithoutRoom(t *testing.T) *memory.Store {
	t.Helper()
	store := memory.New()
	ctx := context.Background()
	if err := store.PutStore(ctx, domain.Store{ID: "S1", OwnerPartyID: "owner-1", Name: "Bean Bar"}); err != nil {
		t.Fatalf("put store: %v", err)
	}
	if err := store.PutStore(ctx, domain.Store{ID: "S2", OwnerPartyID: "owner-2", Name: "Crumb Co"}); err != nil {
		t.Fatalf("put store: %v", err)
	}
	agreement := domain.Agreement{ID: "a-1", InitiatorStoreID: "S1", PartnerStoreID: "S2", Status: domain.AgreementAccepted}
	if err := store.SaveAgreement(ctx, agreement); err != nil {
		t.Fatalf("save agreement: %v", err)
	}
	return store
}

func TestRunAuditReportsMissingRoom(t *testing.T) {
	store := seedAcceptedWithoutRoom(t)
	var out bytes.Buffer

	err := runAudit(context.Background(), store, room.NewProvisioner(store), Config{WarningsCap: 25}, &out)
	if !errors.Is(err, errUnhealthy) {
		t.Fatalf("err = %v, want errUnhealthy", err)
	}
	if !strings.Contains(out.String(), string(audit.IssueMissingAgreementRoom)) {
		t.Fatalf("output = %q, want missing room issue", out.String())
	}

	rooms, err := store.ListRooms(context.Background())
	if err != nil {
		t.Fatalf("list rooms: %v", err)
	}
	if len(rooms) != 0 {
		t.Fatalf("rooms = %d, want none without repair", len(rooms))
	}
}

func TestRunAuditRepairsJSON(t *testing.T) {
	store := seedAcceptedWithoutRoom(t)
	var out bytes.Buffer

	cfg := Config{Repair: true, JSONOutput: true, WarningsCap: 25}
	if err := runAudit(context.Background(), store, room.NewProvisioner(store), cfg, &out); err != nil {
		t.Fatalf("run audit: %v", err)
	}

	var report jsonReport
	if err := json.Unmarshal(out.Bytes(), &report); err != nil {
		t.Fatalf("decode report: %v", err)
	}
	if !report.Healthy {
		t.Fatalf("report = %+v, want healthy after repair", report)
	}
	if len(report.Repaired) != 1 || report.Repaired[0].Name != "Bean Bar - Crumb Co" {
		t.Fatalf("repaired = %+v", report.Repaired)
	}
	if report.AgreementsScanned != 1 {
		t.Fatalf("agreements scanned = %d, want 1", report.AgreementsScanned)
	}
}

func TestCapIssues(t *testing.T) {
	issues := []audit.Issue{{Type: audit.IssueOrphanedRoom}, {Type: audit.IssueOrphanedRoom}, {Type: audit.IssueOrphanedRoom}}
	if got, total := capIssues(issues, 0); total != 3 || len(got) != 3 {
		t.Fatalf("expected all issues, got %d (total=%d)", len(got), total)
	}
	if got, total := capIssues(issues, 2); total != 3 || len(got) != 2 {
		t.Fatalf("expected capped issues, got %d (total=%d)", len(got), total)
	}
}

func TestRunOnEmptyDatabase(t *testing.T) {
	var out, errOut bytes.Buffer
	cfg := Config{DBPath: filepath.Join(t.TempDir(), "collab.db")}
	if err := Run(context.Background(), cfg, &out, &errOut); err != nil {
		t.Fatalf("run: %v (stderr=%q)", err, errOut.String())
	}
	if !strings.Contains(out.String(), "No issues found") {
		t.Fatalf("output = %q", out.String())
	}
}
