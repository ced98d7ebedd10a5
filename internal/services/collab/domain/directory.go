package domain

import "strings"

// Role describes how a party participates in the marketplace.
type Role string

const (
	RoleCustomer   Role = "CUSTOMER"
	RoleStoreOwner Role = "STORE_OWNER"
)

// ParseRole normalizes a role label. Unknown labels fall back to customer.
func ParseRole(value string) Role {
	if strings.EqualFold(strings.TrimSpace(value), string(RoleStoreOwner)) {
		return RoleStoreOwner
	}
	return RoleCustomer
}

// Party is an authenticated account holder.
type Party struct {
	ID          string
	DisplayName string
	Role        Role
}

// Store is a storefront owned by exactly one party.
type Store struct {
	ID           string
	OwnerPartyID string
	Name         string
	Category     string
	ContactPhone string
	ContactEmail string
}

// OwnedBy reports whether partyID owns the store.
func (s Store) OwnedBy(partyID string) bool {
	return s.OwnerPartyID != "" && s.OwnerPartyID == partyID
}

// Product is a catalog item offered by a store.
type Product struct {
	ID         string
	StoreID    string
	Name       string
	Category   string
	Type       string
	PriceMinor int64
	Available  bool
}
