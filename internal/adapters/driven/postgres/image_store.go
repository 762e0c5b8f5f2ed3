package postgres

import (
	"context"

	"github.com/Masterminds/squirrel"

	"github.com/custodia-labs/metatext-core/internal/core/domain"
	"github.com/custodia-labs/metatext-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.ImageStore = (*ImageStore)(nil)

var imageColumns = []string{"id", "chunk_id", "prompt", "path", "created_at"}

// ImageStore implements driven.ImageStore using PostgreSQL
type ImageStore struct {
	db *DB
}

// NewImageStore creates a new ImageStore
func NewImageStore(db *DB) *ImageStore {
	return &ImageStore{db: db}
}

// Save inserts an image record and assigns its ID
func (s *ImageStore) Save(ctx context.Context, image *domain.AiImage) error {
	row, err := queryRow(ctx, s.db, psql.Insert("ai_images").
		Columns("chunk_id", "prompt", "path", "created_at").
		Values(image.ChunkID, image.Prompt, image.Path, image.CreatedAt).
		Suffix("RETURNING id"))
	if err != nil {
		return err
	}
	if err := row.Scan(&image.ID); err != nil {
		return translateError(err)
	}
	return nil
}

// Get retrieves an image by ID
func (s *ImageStore) Get(ctx context.Context, id int64) (*domain.AiImage, error) {
	row, err := queryRow(ctx, s.db, psql.Select(imageColumns...).From("ai_images").Where(squirrel.Eq{"id": id}))
	if err != nil {
		return nil, err
	}
	img, err := scanImage(row)
	if err != nil {
		return nil, translateError(err)
	}
	return img, nil
}

// ListByChunk retrieves all images of a chunk
func (s *ImageStore) ListByChunk(ctx context.Context, chunkID int64) ([]*domain.AiImage, error) {
	rows, err := query(ctx, s.db, psql.Select(imageColumns...).From("ai_images").Where(squirrel.Eq{"chunk_id": chunkID}))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var images []*domain.AiImage
	for rows.Next() {
		img, err := scanImage(rows)
		if err != nil {
			return nil, err
		}
		images = append(images, img)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return images, nil
}

// Delete removes an image record
func (s *ImageStore) Delete(ctx context.Context, id int64) error {
	_, err := exec(ctx, s.db, psql.Delete("ai_images").Where(squirrel.Eq{"id": id}))
	return err
}

func scanImage(sc scanner) (*domain.AiImage, error) {
	var img domain.AiImage
	if err := sc.Scan(&img.ID, &img.ChunkID, &img.Prompt, &img.Path, &img.CreatedAt); err != nil {
		return nil, err
	}
	return &img, nil
}
