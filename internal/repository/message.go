package repository

import (
	"context"
	"fmt"

	"github.com/wirdan1/Webchat/internal/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresMessageRepository handles database operations for messages
type PostgresMessageRepository struct {
	db *pgxpool.Pool
}

// NewMessageRepository creates a new message repository
func NewMessageRepository(db *pgxpool.Pool) *PostgresMessageRepository {
	return &PostgresMessageRepository{db: db}
}

// Create creates a new message
func (r *PostgresMessageRepository) Create(ctx context.Context, msg *models.Message) error {
	query := `
		INSERT INTO messages (id, user_id, user_name, text, file_url, file_type, file_name, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.db.Exec(ctx, query,
		msg.ID, msg.UserID, msg.UserName, msg.Text,
		msg.FileURL, msg.FileType, msg.FileName, msg.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create message: %w", err)
	}
	return nil
}

// ListRecent retrieves up to limit messages, newest first
func (r *PostgresMessageRepository) ListRecent(ctx context.Context, limit int) ([]*models.Message, error) {
	query := `
		SELECT id, user_id, user_name, text, file_url, file_type, file_name, created_at
		FROM messages
		ORDER BY created_at DESC
		LIMIT $1
	`
	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	defer rows.Close()

	var messages []*models.Message
	for rows.Next() {
		var msg models.Message
		err := rows.Scan(
			&msg.ID, &msg.UserID, &msg.UserName, &msg.Text,
			&msg.FileURL, &msg.FileType, &msg.FileName, &msg.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		messages = append(messages, &msg)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating messages: %w", err)
	}

	return messages, nil
}
