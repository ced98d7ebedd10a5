// Package requestctx carries request-scoped identity through context.
package requestctx

import "context"

// partyIDContextKey is the context key for the acting party identity.
type partyIDContextKey struct{}

// WithPartyID stores the acting party identifier in context.
func WithPartyID(ctx context.Context, partyID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, partyIDContextKey{}, partyID)
}

// PartyIDFromContext returns the acting party identifier stored in context.
func PartyIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	value, _ := ctx.Value(partyIDContextKey{}).(string)
	return value
}
