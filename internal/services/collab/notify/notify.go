// Package notify tells proposers about decisions on their proposals.
package notify

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/louisbranch/crosspromo/internal/platform/i18n/catalog"
)

const (
	keyProposalAccepted = "notify.proposal_accepted"
	keyProposalRejected = "notify.proposal_rejected"
)

// Notice describes one decision to report to a proposer.
type Notice struct {
	RecipientPartyID string
	ProposalID       string
	StoreName        string
	Title            string
	Locale           string
}

// Sender delivers decision notices. Delivery itself is owned elsewhere.
type Sender interface {
	ProposalAccepted(ctx context.Context, notice Notice) error
	ProposalRejected(ctx context.Context, notice Notice) error
}

// LogSender renders notices with the message catalog and logs them.
type LogSender struct {
	bundle *catalog.Bundle
	logf   func(format string, args ...any)
}

// NewLogSender returns a sender logging through log.Printf.
func NewLogSender() *LogSender {
	return &LogSender{bundle: catalog.Default(), logf: log.Printf}
}

// ProposalAccepted logs an acceptance notice.
func (s *LogSender) ProposalAccepted(ctx context.Context, notice Notice) error {
	return s.send(ctx, keyProposalAccepted, notice)
}

// ProposalRejected logs a rejection notice.
func (s *LogSender) ProposalRejected(ctx context.Context, notice Notice) error {
	return s.send(ctx, keyProposalRejected, notice)
}

// Render formats the notice text for key in the notice locale.
func (s *LogSender) Render(key string, notice Notice) string {
	bundle := s.bundle
	if bundle == nil {
		bundle = catalog.Default()
	}
	return bundle.Printer(notice.Locale).Sprintf(key, notice.StoreName, notice.Title)
}

func (s *LogSender) send(ctx context.Context, key string, notice Notice) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.TrimSpace(notice.RecipientPartyID) == "" {
		return fmt.Errorf("notice recipient is required")
	}
	logf := s.logf
	if logf == nil {
		logf = log.Printf
	}
	logf("notify party=%s proposal=%s: %s", notice.RecipientPartyID, notice.ProposalID, s.Render(key, notice))
	return nil
}

// Discard drops every notice.
type Discard struct{}

func (Discard) ProposalAccepted(context.Context, Notice) error { return nil }
func (Discard) ProposalRejected(context.Context, Notice) error { return nil }
