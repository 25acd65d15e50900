package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/naodludzie/backend/internal/domain"
)

type ChatRepository interface {
	Create(ctx context.Context, requestID, senderID int64, message string) (*domain.ChatMessage, error)
	ListByRequest(ctx context.Context, requestID int64, limit, offset int) ([]domain.ChatMessage, error)
}

type chatRepository struct {
	pool *pgxpool.Pool
}

func NewChatRepository(pool *pgxpool.Pool) ChatRepository {
	return &chatRepository{pool: pool}
}

func (r *chatRepository) Create(ctx context.Context, requestID, senderID int64, message string) (*domain.ChatMessage, error) {
	const q = `INSERT INTO chat_messages (booking_request_id, sender_id, message)
		VALUES ($1,$2,$3)
		RETURNING id, booking_request_id, sender_id, message, created_at`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var m domain.ChatMessage
	err := r.pool.QueryRow(ctx, q, requestID, senderID, message).Scan(
		&m.ID, &m.BookingRequestID, &m.SenderID, &m.Message, &m.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *chatRepository) ListByRequest(ctx context.Context, requestID int64, limit, offset int) ([]domain.ChatMessage, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	const q = `SELECT id, booking_request_id, sender_id, message, created_at
		FROM chat_messages WHERE booking_request_id=$1
		ORDER BY created_at ASC LIMIT $2 OFFSET $3`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	rows, err := r.pool.Query(ctx, q, requestID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []domain.ChatMessage
	for rows.Next() {
		var m domain.ChatMessage
		if err := rows.Scan(&m.ID, &m.BookingRequestID, &m.SenderID, &m.Message, &m.CreatedAt); err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}
