package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Masterminds/squirrel"

	"github.com/custodia-labs/metatext-core/internal/core/domain"
	"github.com/custodia-labs/metatext-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.ChunkStore = (*ChunkStore)(nil)

var chunkColumns = []string{
	"id", "metatext_id", "text", "position", "favorited_by_user_id", "bookmarked_by_user_id",
	"notes", "summary", "explanation", "created_at",
}

// ChunkStore implements driven.ChunkStore using PostgreSQL.
// Reads attach each chunk's images and rewrites.
type ChunkStore struct {
	db *DB
}

// NewChunkStore creates a new ChunkStore
func NewChunkStore(db *DB) *ChunkStore {
	return &ChunkStore{db: db}
}

// SaveBatch saves multiple chunks in a transaction.
// Chunks with a zero ID are inserted and receive their generated ID.
func (s *ChunkStore) SaveBatch(ctx context.Context, chunks []*domain.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	return s.db.Transaction(ctx, func(tx *sql.Tx) error {
		for _, chunk := range chunks {
			if chunk.ID != 0 {
				_, err := exec(ctx, tx, psql.Update("chunks").
					Set("text", chunk.Text).
					Set("position", chunk.Position).
					Set("notes", chunk.Notes).
					Set("summary", chunk.Summary).
					Set("explanation", chunk.Explanation).
					Where(squirrel.Eq{"id": chunk.ID}))
				if err != nil {
					return err
				}
				continue
			}

			row, err := queryRow(ctx, tx, psql.Insert("chunks").
				Columns("metatext_id", "text", "position", "notes", "summary", "explanation", "created_at").
				Values(chunk.MetatextID, chunk.Text, chunk.Position, chunk.Notes, chunk.Summary, chunk.Explanation, chunk.CreatedAt).
				Suffix("RETURNING id"))
			if err != nil {
				return err
			}
			if err := row.Scan(&chunk.ID); err != nil {
				return translateError(err)
			}
		}
		return nil
	})
}

// Get retrieves a chunk by ID, with its images and rewrites
func (s *ChunkStore) Get(ctx context.Context, id int64) (*domain.Chunk, error) {
	chunks, err := s.list(ctx, squirrel.Eq{"id": id})
	if err != nil {
		return nil, err
	}
	if len(chunks) == 0 {
		return nil, domain.ErrNotFound
	}
	return chunks[0], nil
}

// ListByMetatext retrieves all chunks of a metatext ordered by position
func (s *ChunkStore) ListByMetatext(ctx context.Context, metatextID int64) ([]*domain.Chunk, error) {
	return s.list(ctx, squirrel.Eq{"metatext_id": metatextID})
}

func (s *ChunkStore) list(ctx context.Context, where squirrel.Eq) ([]*domain.Chunk, error) {
	rows, err := query(ctx, s.db, psql.Select(chunkColumns...).From("chunks").Where(where).OrderBy("position ASC"))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var chunks []*domain.Chunk
	byID := make(map[int64]*domain.Chunk)
	for rows.Next() {
		chunk, err := scanChunk(rows)
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, chunk)
		byID[chunk.ID] = chunk
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(chunks) == 0 {
		return chunks, nil
	}
	if err := s.attachImages(ctx, byID); err != nil {
		return nil, err
	}
	if err := s.attachRewrites(ctx, byID); err != nil {
		return nil, err
	}
	return chunks, nil
}

func (s *ChunkStore) attachImages(ctx context.Context, byID map[int64]*domain.Chunk) error {
	rows, err := query(ctx, s.db, psql.Select(imageColumns...).From("ai_images").
		Where(squirrel.Eq{"chunk_id": chunkIDs(byID)}))
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		img, err := scanImage(rows)
		if err != nil {
			return err
		}
		if chunk, ok := byID[img.ChunkID]; ok {
			chunk.Images = append(chunk.Images, img)
		}
	}
	return rows.Err()
}

func (s *ChunkStore) attachRewrites(ctx context.Context, byID map[int64]*domain.Chunk) error {
	rows, err := query(ctx, s.db, psql.Select("id", "chunk_id", "title", "text", "created_at").From("rewrites").
		Where(squirrel.Eq{"chunk_id": chunkIDs(byID)}).
		OrderBy("created_at ASC", "id ASC"))
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var r domain.Rewrite
		if err := rows.Scan(&r.ID, &r.ChunkID, &r.Title, &r.Text, &r.CreatedAt); err != nil {
			return err
		}
		if chunk, ok := byID[r.ChunkID]; ok {
			chunk.Rewrites = append(chunk.Rewrites, &r)
		}
	}
	return rows.Err()
}

// SetFavorite marks or unmarks a chunk as the user's favorite
func (s *ChunkStore) SetFavorite(ctx context.Context, chunkID int64, userID string, favorite bool) error {
	value := sql.NullString{}
	if favorite {
		value = sql.NullString{String: userID, Valid: true}
	}
	n, err := exec(ctx, s.db, psql.Update("chunks").
		Set("favorited_by_user_id", value).
		Where(squirrel.Eq{"id": chunkID}))
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// SetBookmark moves the user's bookmark within the chunk's metatext to chunkID
func (s *ChunkStore) SetBookmark(ctx context.Context, chunkID int64, userID string) error {
	return s.db.Transaction(ctx, func(tx *sql.Tx) error {
		var metatextID int64
		row, err := queryRow(ctx, tx, psql.Select("metatext_id").From("chunks").
			Where(squirrel.Eq{"id": chunkID}).
			Suffix("FOR UPDATE"))
		if err != nil {
			return err
		}
		if err := row.Scan(&metatextID); err != nil {
			return translateError(err)
		}

		if _, err := exec(ctx, tx, psql.Update("chunks").
			Set("bookmarked_by_user_id", nil).
			Where(squirrel.Eq{"metatext_id": metatextID, "bookmarked_by_user_id": userID})); err != nil {
			return err
		}

		_, err = exec(ctx, tx, psql.Update("chunks").
			Set("bookmarked_by_user_id", userID).
			Where(squirrel.Eq{"id": chunkID}))
		return err
	})
}

// ClearBookmark removes the user's bookmark from a chunk
func (s *ChunkStore) ClearBookmark(ctx context.Context, chunkID int64, userID string) error {
	row, err := queryRow(ctx, s.db, psql.Select("id").From("chunks").Where(squirrel.Eq{"id": chunkID}))
	if err != nil {
		return err
	}
	var id int64
	if err := row.Scan(&id); err != nil {
		return translateError(err)
	}

	_, err = exec(ctx, s.db, psql.Update("chunks").
		Set("bookmarked_by_user_id", nil).
		Where(squirrel.Eq{"id": chunkID, "bookmarked_by_user_id": userID}))
	return err
}

// GetBookmark returns the chunk the user bookmarked in a metatext
func (s *ChunkStore) GetBookmark(ctx context.Context, metatextID int64, userID string) (*domain.Chunk, error) {
	row, err := queryRow(ctx, s.db, psql.Select("id").From("chunks").
		Where(squirrel.Eq{"metatext_id": metatextID, "bookmarked_by_user_id": userID}).
		Limit(1))
	if err != nil {
		return nil, err
	}
	var id int64
	if err := row.Scan(&id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNoBookmark
		}
		return nil, err
	}
	return s.Get(ctx, id)
}

func chunkIDs(byID map[int64]*domain.Chunk) []int64 {
	ids := make([]int64, 0, len(byID))
	for id := range byID {
		ids = append(ids, id)
	}
	return ids
}

func scanChunk(sc scanner) (*domain.Chunk, error) {
	var chunk domain.Chunk
	var favoritedBy, bookmarkedBy sql.NullString

	err := sc.Scan(
		&chunk.ID,
		&chunk.MetatextID,
		&chunk.Text,
		&chunk.Position,
		&favoritedBy,
		&bookmarkedBy,
		&chunk.Notes,
		&chunk.Summary,
		&chunk.Explanation,
		&chunk.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	chunk.FavoritedByUserID = StringPtr(favoritedBy)
	chunk.BookmarkedByUserID = StringPtr(bookmarkedBy)
	return &chunk, nil
}
