// Package domain models cross-promotion collaborations between storefronts
// and between storefronts and individual customers.
//
// A collaboration starts as a Proposal addressed to a target store. The
// target store's owner accepts or rejects it exactly once; acceptance
// materializes an Agreement that records who initiated the deal and which
// products are involved. Once two parties are linked, a Room gives them a
// shared channel. Rooms belong to exactly one proposal or agreement.
//
// Parties, stores, and products are directory records owned by other
// services; this package only reads them.
package domain
