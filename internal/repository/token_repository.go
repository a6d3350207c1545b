package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
)

type deviceTokenRepository struct {
	db *sqlx.DB
}

func NewDeviceTokenRepository(db *sqlx.DB) DeviceTokenRepository {
	return &deviceTokenRepository{db: db}
}

func (r *deviceTokenRepository) Register(ctx context.Context, userID, token string) error {
	query := `
		INSERT INTO device_tokens (user_id, token, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO UPDATE SET token = EXCLUDED.token, updated_at = EXCLUDED.updated_at
	`

	_, err := r.db.ExecContext(ctx, query, userID, token, time.Now())
	return err
}

func (r *deviceTokenRepository) GetByUserID(ctx context.Context, userID string) (string, error) {
	var token string
	err := r.db.GetContext(ctx, &token, `SELECT token FROM device_tokens WHERE user_id = $1`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		// No registered device is an ordinary state, not an error.
		return "", nil
	}
	if err != nil {
		return "", err
	}

	return token, nil
}
