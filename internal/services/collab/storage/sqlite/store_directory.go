package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/louisbranch/crosspromo/internal/services/collab/domain"
	"github.com/louisbranch/crosspromo/internal/services/collab/storage"
)

// GetParty returns one party by id.
func (s *Store) GetParty(ctx context.Context, partyID string) (domain.Party, error) {
	if err := s.ready(ctx); err != nil {
		return domain.Party{}, err
	}
	partyID = strings.TrimSpace(partyID)
	if partyID == "" {
		return domain.Party{}, storage.ErrNotFound
	}

	var party domain.Party
	var role string
	err := s.q.QueryRowContext(ctx,
		`SELECT id, display_name, role FROM parties WHERE id = ?`,
		partyID,
	).Scan(&party.ID, &party.DisplayName, &role)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Party{}, storage.ErrNotFound
		}
		return domain.Party{}, fmt.Errorf("get party: %w", err)
	}
	party.Role = domain.ParseRole(role)
	return party, nil
}

// GetStore returns one store by id.
func (s *Store) GetStore(ctx context.Context, storeID string) (domain.Store, error) {
	return s.getStore(ctx, "id", storeID)
}

// GetStoreByOwner returns the store owned by partyID.
func (s *Store) GetStoreByOwner(ctx context.Context, partyID string) (domain.Store, error) {
	return s.getStore(ctx, "owner_party_id", partyID)
}

func (s *Store) getStore(ctx context.Context, column string, value string) (domain.Store, error) {
	if err := s.ready(ctx); err != nil {
		return domain.Store{}, err
	}
	value = strings.TrimSpace(value)
	if value == "" {
		return domain.Store{}, storage.ErrNotFound
	}

	var store domain.Store
	err := s.q.QueryRowContext(ctx,
		`SELECT id, owner_party_id, name, category, contact_phone, contact_email
		   FROM stores
		  WHERE `+column+` = ?`,
		value,
	).Scan(&store.ID, &store.OwnerPartyID, &store.Name, &store.Category, &store.ContactPhone, &store.ContactEmail)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Store{}, storage.ErrNotFound
		}
		return domain.Store{}, fmt.Errorf("get store: %w", err)
	}
	return store, nil
}

// GetProduct returns one product by id.
func (s *Store) GetProduct(ctx context.Context, productID string) (domain.Product, error) {
	if err := s.ready(ctx); err != nil {
		return domain.Product{}, err
	}
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return domain.Product{}, storage.ErrNotFound
	}

	var product domain.Product
	var available int
	err := s.q.QueryRowContext(ctx,
		`SELECT id, store_id, name, category, type, price_minor, available
		   FROM products
		  WHERE id = ?`,
		productID,
	).Scan(&product.ID, &product.StoreID, &product.Name, &product.Category, &product.Type, &product.PriceMinor, &available)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Product{}, storage.ErrNotFound
		}
		return domain.Product{}, fmt.Errorf("get product: %w", err)
	}
	product.Available = available != 0
	return product, nil
}

// PutParty inserts or replaces a party record.
func (s *Store) PutParty(ctx context.Context, party domain.Party) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if strings.TrimSpace(party.ID) == "" {
		return fmt.Errorf("party id is required")
	}
	_, err := s.q.ExecContext(ctx,
		`INSERT INTO parties (id, display_name, role) VALUES (?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET display_name = excluded.display_name, role = excluded.role`,
		strings.TrimSpace(party.ID), strings.TrimSpace(party.DisplayName), string(party.Role),
	)
	if err != nil {
		return fmt.Errorf("put party: %w", err)
	}
	return nil
}

// PutStore inserts or replaces a store record. Store names and owners are unique.
func (s *Store) PutStore(ctx context.Context, store domain.Store) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if strings.TrimSpace(store.ID) == "" {
		return fmt.Errorf("store id is required")
	}
	_, err := s.q.ExecContext(ctx,
		`INSERT INTO stores (id, owner_party_id, name, category, contact_phone, contact_email)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   owner_party_id = excluded.owner_party_id,
		   name = excluded.name,
		   category = excluded.category,
		   contact_phone = excluded.contact_phone,
		   contact_email = excluded.contact_email`,
		strings.TrimSpace(store.ID),
		strings.TrimSpace(store.OwnerPartyID),
		strings.TrimSpace(store.Name),
		store.Category,
		store.ContactPhone,
		store.ContactEmail,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return storage.ErrAlreadyExists
		}
		return fmt.Errorf("put store: %w", err)
	}
	return nil
}

// PutProduct inserts or replaces a product record.
func (s *Store) PutProduct(ctx context.Context, product domain.Product) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if strings.TrimSpace(product.ID) == "" {
		return fmt.Errorf("product id is required")
	}
	_, err := s.q.ExecContext(ctx,
		`INSERT INTO products (id, store_id, name, category, type, price_minor, available)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   store_id = excluded.store_id,
		   name = excluded.name,
		   category = excluded.category,
		   type = excluded.type,
		   price_minor = excluded.price_minor,
		   available = excluded.available`,
		strings.TrimSpace(product.ID),
		strings.TrimSpace(product.StoreID),
		product.Name,
		product.Category,
		product.Type,
		product.PriceMinor,
		boolToInt(product.Available),
	)
	if err != nil {
		return fmt.Errorf("put product: %w", err)
	}
	return nil
}
