// Package maintenance audits collaboration rooms against their owners and
// optionally provisions rooms that accepted agreements are missing.
package maintenance

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/louisbranch/crosspromo/internal/platform/config"
	"github.com/louisbranch/crosspromo/internal/services/collab/audit"
	"github.com/louisbranch/crosspromo/internal/services/collab/room"
	collabsqlite "github.com/louisbranch/crosspromo/internal/services/collab/storage/sqlite"
)

// Config holds maintenance command configuration.
type Config struct {
	DBPath      string        `env:"COLLAB_DB_PATH"`
	Timeout     time.Duration `env:"MAINTENANCE_TIMEOUT" envDefault:"10m"`
	Repair      bool
	JSONOutput  bool
	WarningsCap int
}

// ParseConfig parses env defaults and then flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := config.ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	if cfg.DBPath == "" {
		cfg.DBPath = filepath.Join("data", "collab.db")
	}
	cfg.WarningsCap = 25

	fs.StringVar(&cfg.DBPath, "db-path", cfg.DBPath, "path to collab sqlite database (default: CROSSPROMO_COLLAB_DB_PATH or data/collab.db)")
	fs.BoolVar(&cfg.Repair, "repair", false, "provision missing rooms for accepted agreements")
	fs.BoolVar(&cfg.JSONOutput, "json", false, "output a JSON report")
	fs.IntVar(&cfg.WarningsCap, "warnings-cap", cfg.WarningsCap, "max issues to print (0 = no limit)")
	fs.DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "overall timeout")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// errUnhealthy marks a completed audit that left issues behind.
var errUnhealthy = errors.New("room audit found unresolved issues")

// Run executes the maintenance command against the configured database.
func Run(ctx context.Context, cfg Config, out io.Writer, errOut io.Writer) error {
	if out == nil {
		out = io.Discard
	}
	if errOut == nil {
		errOut = io.Discard
	}

	store, err := collabsqlite.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open collab store: %w", err)
	}
	defer func() {
		if closeErr := store.Close(); closeErr != nil {
			fmt.Fprintf(errOut, "Error: close collab store: %v\n", closeErr)
		}
	}()

	return runAudit(ctx, store, room.NewProvisioner(store), cfg, out)
}

func runAudit(ctx context.Context, store audit.Store, rooms audit.RoomEnsurer, cfg Config, out io.Writer) error {
	report, err := audit.Run(ctx, store, rooms, audit.Options{Repair: cfg.Repair})
	if err != nil {
		return err
	}

	if cfg.JSONOutput {
		if err := writeJSON(out, report, cfg.WarningsCap); err != nil {
			return err
		}
	} else {
		writeText(out, report, cfg.WarningsCap)
	}

	if !report.Healthy() {
		return errUnhealthy
	}
	return nil
}

type jsonReport struct {
	RoomsScanned      int          `json:"rooms_scanned"`
	AgreementsScanned int          `json:"agreements_scanned"`
	Healthy           bool         `json:"healthy"`
	Issues            []jsonIssue  `json:"issues,omitempty"`
	IssuesTotal       int          `json:"issues_total"`
	Repaired          []jsonRepair `json:"repaired,omitempty"`
}

type jsonIssue struct {
	Type      string   `json:"type"`
	OwnerKind string   `json:"owner_kind"`
	OwnerID   string   `json:"owner_id"`
	RoomIDs   []string `json:"room_ids,omitempty"`
}

type jsonRepair struct {
	RoomID  string `json:"room_id"`
	Name    string `json:"name"`
	OwnerID string `json:"owner_id"`
}

func writeJSON(out io.Writer, report audit.Report, warningsCap int) error {
	issues, total := capIssues(report.Issues, warningsCap)
	payload := jsonReport{
		RoomsScanned:      report.RoomsScanned,
		AgreementsScanned: report.AgreementsScanned,
		Healthy:           report.Healthy(),
		IssuesTotal:       total,
	}
	for _, issue := range issues {
		payload.Issues = append(payload.Issues, jsonIssue{
			Type:      string(issue.Type),
			OwnerKind: string(issue.Owner.Kind),
			OwnerID:   issue.Owner.ID,
			RoomIDs:   issue.RoomIDs,
		})
	}
	for _, repaired := range report.Repaired {
		payload.Repaired = append(payload.Repaired, jsonRepair{
			RoomID:  repaired.ID,
			Name:    repaired.Name,
			OwnerID: repaired.Owner.ID,
		})
	}
	encoded, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	fmt.Fprintln(out, string(encoded))
	return nil
}

func writeText(out io.Writer, report audit.Report, warningsCap int) {
	fmt.Fprintf(out, "Scanned %d rooms and %d accepted agreements\n", report.RoomsScanned, report.AgreementsScanned)
	issues, total := capIssues(report.Issues, warningsCap)
	if total == 0 {
		fmt.Fprintln(out, "No issues found")
		return
	}
	fmt.Fprintf(out, "Issues: %d\n", total)
	for _, issue := range issues {
		fmt.Fprintf(out, "  %s\n", issue)
	}
	if len(issues) < total {
		fmt.Fprintf(out, "  ... %d more\n", total-len(issues))
	}
	for _, repaired := range report.Repaired {
		fmt.Fprintf(out, "Provisioned room %s (%s) for %s\n", repaired.ID, repaired.Name, repaired.Owner)
	}
}

func capIssues(issues []audit.Issue, limit int) ([]audit.Issue, int) {
	total := len(issues)
	if limit <= 0 || total <= limit {
		return issues, total
	}
	return issues[:limit], total
}
