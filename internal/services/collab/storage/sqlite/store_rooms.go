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

// SaveRoom inserts a room. Owners are unique.
func (s *Store) SaveRoom(ctx context.Context, room domain.Room) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if strings.TrimSpace(room.ID) == "" {
		return fmt.Errorf("room id is required")
	}
	if err := room.Owner.Validate(); err != nil {
		return err
	}
	createdAt, _ := normalizeTimes(room.CreatedAt, room.CreatedAt)

	_, err := s.q.ExecContext(ctx,
		`INSERT INTO rooms (id, owner_kind, owner_id, name, active, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		strings.TrimSpace(room.ID),
		string(room.Owner.Kind),
		strings.TrimSpace(room.Owner.ID),
		room.Name,
		boolToInt(room.Active),
		toMillis(createdAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return storage.ErrAlreadyExists
		}
		return fmt.Errorf("save room: %w", err)
	}
	return nil
}

// GetRoomByOwner returns the room belonging to owner.
func (s *Store) GetRoomByOwner(ctx context.Context, owner domain.Owner) (domain.Room, error) {
	if err := s.ready(ctx); err != nil {
		return domain.Room{}, err
	}
	if err := owner.Validate(); err != nil {
		return domain.Room{}, storage.ErrNotFound
	}
	row := s.q.QueryRowContext(ctx,
		`SELECT id, owner_kind, owner_id, name, active, created_at
		   FROM rooms
		  WHERE owner_kind = ? AND owner_id = ?`,
		string(owner.Kind), strings.TrimSpace(owner.ID),
	)
	room, err := scanRoom(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Room{}, storage.ErrNotFound
		}
		return domain.Room{}, fmt.Errorf("get room: %w", err)
	}
	return room, nil
}

// ListRooms returns every room ordered by creation.
func (s *Store) ListRooms(ctx context.Context) ([]domain.Room, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	rows, err := s.q.QueryContext(ctx,
		`SELECT id, owner_kind, owner_id, name, active, created_at
		   FROM rooms
		  ORDER BY created_at ASC, id ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}
	defer rows.Close()

	rooms := make([]domain.Room, 0)
	for rows.Next() {
		room, err := scanRoom(rows)
		if err != nil {
			return nil, fmt.Errorf("list rooms: %w", err)
		}
		rooms = append(rooms, room)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}
	return rooms, nil
}

func scanRoom(row rowScanner) (domain.Room, error) {
	var (
		room      domain.Room
		kind      string
		active    int
		createdAt int64
	)
	if err := row.Scan(&room.ID, &kind, &room.Owner.ID, &room.Name, &active, &createdAt); err != nil {
		return domain.Room{}, err
	}
	room.Owner.Kind = domain.OwnerKind(kind)
	room.Active = active != 0
	room.CreatedAt = fromMillis(createdAt)
	return room, nil
}
