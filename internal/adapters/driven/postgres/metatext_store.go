package postgres

import (
	"context"
	"database/sql"

	"github.com/Masterminds/squirrel"

	"github.com/custodia-labs/metatext-core/internal/core/domain"
	"github.com/custodia-labs/metatext-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.MetatextStore = (*MetatextStore)(nil)

var metatextColumns = []string{"id", "source_document_id", "title", "owner_id", "created_at"}

// MetatextStore implements driven.MetatextStore using PostgreSQL
type MetatextStore struct {
	db *DB
}

// NewMetatextStore creates a new MetatextStore
func NewMetatextStore(db *DB) *MetatextStore {
	return &MetatextStore{db: db}
}

// Save creates or updates a metatext
func (s *MetatextStore) Save(ctx context.Context, m *domain.Metatext) error {
	if m.ID != 0 {
		n, err := exec(ctx, s.db, psql.Update("metatexts").
			Set("source_document_id", NullInt64(m.SourceDocumentID)).
			Set("title", m.Title).
			Set("owner_id", m.OwnerID).
			Where(squirrel.Eq{"id": m.ID}))
		if err != nil {
			return err
		}
		if n == 0 {
			return domain.ErrNotFound
		}
		return nil
	}

	row, err := queryRow(ctx, s.db, psql.Insert("metatexts").
		Columns("source_document_id", "title", "owner_id", "created_at").
		Values(NullInt64(m.SourceDocumentID), m.Title, m.OwnerID, m.CreatedAt).
		Suffix("RETURNING id"))
	if err != nil {
		return err
	}
	if err := row.Scan(&m.ID); err != nil {
		return translateError(err)
	}
	return nil
}

// Get retrieves a metatext by ID
func (s *MetatextStore) Get(ctx context.Context, id int64) (*domain.Metatext, error) {
	row, err := queryRow(ctx, s.db, psql.Select(metatextColumns...).From("metatexts").Where(squirrel.Eq{"id": id}))
	if err != nil {
		return nil, err
	}
	m, err := scanMetatext(row)
	if err != nil {
		return nil, translateError(err)
	}
	return m, nil
}

// ListByOwner retrieves a user's metatexts, newest first
func (s *MetatextStore) ListByOwner(ctx context.Context, ownerID string) ([]*domain.Metatext, error) {
	rows, err := query(ctx, s.db, psql.Select(metatextColumns...).From("metatexts").
		Where(squirrel.Eq{"owner_id": ownerID}).
		OrderBy("created_at DESC", "id DESC"))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var metatexts []*domain.Metatext
	for rows.Next() {
		m, err := scanMetatext(rows)
		if err != nil {
			return nil, err
		}
		metatexts = append(metatexts, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return metatexts, nil
}

// Delete deletes a metatext; chunks and their artifacts cascade
func (s *MetatextStore) Delete(ctx context.Context, id int64) error {
	n, err := exec(ctx, s.db, psql.Delete("metatexts").Where(squirrel.Eq{"id": id}))
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func scanMetatext(sc scanner) (*domain.Metatext, error) {
	var m domain.Metatext
	var sourceID sql.NullInt64
	if err := sc.Scan(&m.ID, &sourceID, &m.Title, &m.OwnerID, &m.CreatedAt); err != nil {
		return nil, err
	}
	m.SourceDocumentID = sourceID.Int64
	return &m, nil
}
