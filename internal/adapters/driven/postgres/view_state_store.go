package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/Masterminds/squirrel"

	"github.com/custodia-labs/metatext-core/internal/core/domain"
	"github.com/custodia-labs/metatext-core/internal/core/ports/driven"
)

// Verify interface compliance
var (
	_ driven.ViewStateStore  = (*ViewStateStore)(nil)
	_ driven.NavigationStore = (*NavigationStore)(nil)
)

// ViewStateStore implements driven.ViewStateStore using PostgreSQL.
// Used when Redis is not configured.
type ViewStateStore struct {
	db *DB
}

// NewViewStateStore creates a new ViewStateStore
func NewViewStateStore(db *DB) *ViewStateStore {
	return &ViewStateStore{db: db}
}

// Get retrieves the view state for a user and metatext
func (s *ViewStateStore) Get(ctx context.Context, userID string, metatextID int64) (*domain.ViewState, error) {
	row, err := queryRow(ctx, s.db, psql.Select(
		"user_id", "metatext_id", "query", "only_favorites", "current_page", "chunks_per_page", "updated_at",
	).From("view_states").Where(squirrel.Eq{"user_id": userID, "metatext_id": metatextID}))
	if err != nil {
		return nil, err
	}

	var state domain.ViewState
	err = row.Scan(
		&state.UserID,
		&state.MetatextID,
		&state.Query,
		&state.OnlyFavorites,
		&state.CurrentPage,
		&state.ChunksPerPage,
		&state.UpdatedAt,
	)
	if err != nil {
		return nil, translateError(err)
	}
	return &state, nil
}

// Save upserts the view state
func (s *ViewStateStore) Save(ctx context.Context, state *domain.ViewState) error {
	if state.UpdatedAt.IsZero() {
		state.UpdatedAt = time.Now()
	}
	_, err := exec(ctx, s.db, psql.Insert("view_states").
		Columns("user_id", "metatext_id", "query", "only_favorites", "current_page", "chunks_per_page", "updated_at").
		Values(state.UserID, state.MetatextID, state.Query, state.OnlyFavorites, state.CurrentPage, state.ChunksPerPage, state.UpdatedAt).
		Suffix(`ON CONFLICT (user_id, metatext_id) DO UPDATE SET
			query = EXCLUDED.query,
			only_favorites = EXCLUDED.only_favorites,
			current_page = EXCLUDED.current_page,
			chunks_per_page = EXCLUDED.chunks_per_page,
			updated_at = EXCLUDED.updated_at`))
	return err
}

// Delete removes the view state
func (s *ViewStateStore) Delete(ctx context.Context, userID string, metatextID int64) error {
	_, err := exec(ctx, s.db, psql.Delete("view_states").
		Where(squirrel.Eq{"user_id": userID, "metatext_id": metatextID}))
	return err
}

// NavigationStore implements driven.NavigationStore using PostgreSQL
type NavigationStore struct {
	db *DB
}

// NewNavigationStore creates a new NavigationStore
func NewNavigationStore(db *DB) *NavigationStore {
	return &NavigationStore{db: db}
}

// Put stores a request, replacing any pending one
func (s *NavigationStore) Put(ctx context.Context, req *domain.NavigationRequest) error {
	if req.RequestedAt.IsZero() {
		req.RequestedAt = time.Now()
	}
	_, err := exec(ctx, s.db, psql.Insert("navigation_requests").
		Columns("user_id", "metatext_id", "chunk_id", "requested_at").
		Values(req.UserID, req.MetatextID, req.ChunkID, req.RequestedAt).
		Suffix(`ON CONFLICT (user_id, metatext_id) DO UPDATE SET
			chunk_id = EXCLUDED.chunk_id,
			requested_at = EXCLUDED.requested_at`))
	return err
}

// Take deletes and returns the pending request in one statement
func (s *NavigationStore) Take(ctx context.Context, userID string, metatextID int64) (*domain.NavigationRequest, error) {
	row, err := queryRow(ctx, s.db, psql.Delete("navigation_requests").
		Where(squirrel.Eq{"user_id": userID, "metatext_id": metatextID}).
		Suffix("RETURNING user_id, metatext_id, chunk_id, requested_at"))
	if err != nil {
		return nil, err
	}

	var req domain.NavigationRequest
	if err := row.Scan(&req.UserID, &req.MetatextID, &req.ChunkID, &req.RequestedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &req, nil
}
