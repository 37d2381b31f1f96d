// internal/storage/storage.go
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"

	"firewatch/internal/models"
)

// ErrImageNotFound is returned when no row matches the requested id.
var ErrImageNotFound = errors.New("image not found")

type Storage struct {
	pool *pgxpool.Pool
	db   *sql.DB // For migrations
}

func NewStorage(dsn string) (*Storage, error) {
	const op = "storage.NewStorage"

	pool, err := pgxpool.New(context.Background(), dsn)
	if err != nil {
		return nil, fmt.Errorf("%s: %v", op, err)
	}

	db := stdlib.OpenDBFromPool(pool)
	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("%s: %v", op, err)
	}

	return &Storage{pool: pool, db: db}, nil
}

func (s *Storage) Close() {
	s.db.Close()
	s.pool.Close()
}

// InsertImage stores the payload with its declared dimensions and returns the
// assigned id. image_datetime is set by the database; client timestamps are
// never accepted.
func (s *Storage) InsertImage(ctx context.Context, payload []byte, width, height int, location *string) (int64, error) {
	const op = "storage.InsertImage"

	var id int64
	err := s.pool.QueryRow(ctx,
		`INSERT INTO images (image_data, image_datetime, image_width, image_height, image_location)
		 VALUES ($1, now(), $2, $3, $4)
		 RETURNING image_id`,
		payload, width, height, location).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("%s: %v", op, err)
	}
	return id, nil
}

// FetchPage returns the (offset, limit) window of images in ascending id
// order, which is insertion order since ids are never reused.
func (s *Storage) FetchPage(ctx context.Context, limit, offset int) ([]models.Image, error) {
	const op = "storage.FetchPage"

	if limit < 0 || offset < 0 {
		return nil, fmt.Errorf("%s: negative limit or offset", op)
	}

	rows, err := s.pool.Query(ctx,
		`SELECT image_id, image_data, image_datetime, image_width, image_height, image_location
		 FROM images
		 ORDER BY image_id ASC
		 LIMIT $1 OFFSET $2`,
		limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %v", op, err)
	}
	defer rows.Close()

	var images []models.Image
	for rows.Next() {
		var img models.Image
		if err := rows.Scan(&img.ID, &img.Data, &img.CapturedAt, &img.Width, &img.Height, &img.Location); err != nil {
			return nil, fmt.Errorf("%s: %v", op, err)
		}
		images = append(images, img)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %v", op, err)
	}
	return images, nil
}

func (s *Storage) FetchOne(ctx context.Context, id int64) (*models.Image, error) {
	const op = "storage.FetchOne"

	var img models.Image
	err := s.pool.QueryRow(ctx,
		`SELECT image_id, image_data, image_datetime, image_width, image_height, image_location
		 FROM images WHERE image_id = $1`,
		id).Scan(&img.ID, &img.Data, &img.CapturedAt, &img.Width, &img.Height, &img.Location)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrImageNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %v", op, err)
	}
	return &img, nil
}

// DeleteOne removes the row and reports how many rows were affected (0 or 1).
// Deleting an id twice is not an error, the second call just affects nothing.
func (s *Storage) DeleteOne(ctx context.Context, id int64) (int64, error) {
	const op = "storage.DeleteOne"

	tag, err := s.pool.Exec(ctx, `DELETE FROM images WHERE image_id = $1`, id)
	if err != nil {
		return 0, fmt.Errorf("%s: %v", op, err)
	}
	return tag.RowsAffected(), nil
}
