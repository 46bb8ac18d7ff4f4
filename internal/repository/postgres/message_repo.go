package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"guestline/internal/domain"
)

const messageColumns = "id, event_id, subject, content, recipient_filter, recipient_count, delivery_status, scheduled_date, sent_date, created_by, created_at"

type messageRepository struct {
	DB *sql.DB
}

func NewMessageRepository(db *sql.DB) domain.MessageRepository {
	return &messageRepository{
		DB: db,
	}
}

func (r *messageRepository) Create(ctx context.Context, m *domain.Message) error {
	filterJSON, err := json.Marshal(m.Filter)
	if err != nil {
		return fmt.Errorf("marshal recipient filter: %w", err)
	}
	query := `
		INSERT INTO messages (event_id, subject, content, recipient_filter, recipient_count, delivery_status, scheduled_date, sent_date, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id
	`
	return r.DB.QueryRowContext(ctx, query,
		m.EventID, m.Subject, m.Content, filterJSON, m.RecipientCount,
		m.DeliveryStatus, m.ScheduledDate, m.SentDate, m.CreatedBy, m.CreatedAt,
	).Scan(&m.ID)
}

func scanMessage(row rowScanner) (*domain.Message, error) {
	m := &domain.Message{}
	var filterJSON []byte
	var scheduledNull, sentNull sql.NullTime
	err := row.Scan(
		&m.ID, &m.EventID, &m.Subject, &m.Content, &filterJSON, &m.RecipientCount,
		&m.DeliveryStatus, &scheduledNull, &sentNull, &m.CreatedBy, &m.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if len(filterJSON) > 0 {
		if err := json.Unmarshal(filterJSON, &m.Filter); err != nil {
			return nil, fmt.Errorf("unmarshal recipient filter: %w", err)
		}
	}
	if scheduledNull.Valid {
		m.ScheduledDate = &scheduledNull.Time
	}
	if sentNull.Valid {
		m.SentDate = &sentNull.Time
	}
	return m, nil
}

func (r *messageRepository) GetByID(ctx context.Context, id string) (*domain.Message, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM messages
		WHERE id = $1
	`, messageColumns)
	m, err := scanMessage(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return m, nil
}

func (r *messageRepository) ListByEvent(ctx context.Context, eventID string, params domain.PaginationParams) ([]*domain.Message, int, error) {
	var total int
	countQuery := `SELECT COUNT(*) FROM messages WHERE event_id = $1`
	if err := r.DB.QueryRowContext(ctx, countQuery, eventID).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM messages
		WHERE event_id = $1
		ORDER BY created_at DESC, id
		LIMIT $2 OFFSET $3
	`, messageColumns)
	rows, err := r.DB.QueryContext(ctx, query, eventID, params.PageSize, params.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	messages := make([]*domain.Message, 0)
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, 0, err
		}
		messages = append(messages, m)
	}
	return messages, total, rows.Err()
}

func (r *messageRepository) ListDue(ctx context.Context, now time.Time) ([]*domain.Message, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM messages
		WHERE delivery_status = $1 AND scheduled_date IS NOT NULL AND scheduled_date <= $2
		ORDER BY scheduled_date, id
	`, messageColumns)
	rows, err := r.DB.QueryContext(ctx, query, domain.DeliveryStatusScheduled, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	messages := make([]*domain.Message, 0)
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

// MarkSent transitions a scheduled message to sent. The WHERE clause keys on
// the scheduled state, so re-marking an already terminal message affects zero
// rows and reports false.
func (r *messageRepository) MarkSent(ctx context.Context, id string, sentAt time.Time) (bool, error) {
	query := `
		UPDATE messages SET delivery_status = $2, sent_date = $3
		WHERE id = $1 AND delivery_status = $4
	`
	result, err := r.DB.ExecContext(ctx, query, id, domain.DeliveryStatusSent, sentAt, domain.DeliveryStatusScheduled)
	if err != nil {
		return false, err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

// MarkFailed transitions a scheduled message to failed with the same
// conditional-update discipline as MarkSent.
func (r *messageRepository) MarkFailed(ctx context.Context, id string, failedAt time.Time) (bool, error) {
	query := `
		UPDATE messages SET delivery_status = $2, sent_date = $3
		WHERE id = $1 AND delivery_status = $4
	`
	result, err := r.DB.ExecContext(ctx, query, id, domain.DeliveryStatusFailed, failedAt, domain.DeliveryStatusScheduled)
	if err != nil {
		return false, err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

func (r *messageRepository) AddRecipients(ctx context.Context, recipients []*domain.MessageRecipient) error {
	if len(recipients) == 0 {
		return nil
	}
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO message_recipients (message_id, attendee_id, email, status)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`
	for _, rec := range recipients {
		if err := tx.QueryRowContext(ctx, query, rec.MessageID, rec.AttendeeID, rec.Email, rec.Status).Scan(&rec.ID); err != nil {
			return fmt.Errorf("insert message recipient: %w", err)
		}
	}
	return tx.Commit()
}

func (r *messageRepository) ReportRecipient(ctx context.Context, recipientID, status string, errorDetail *string, reportedAt time.Time) error {
	query := `
		UPDATE message_recipients SET status = $2, error_detail = $3, reported_at = $4
		WHERE id = $1
	`
	result, err := r.DB.ExecContext(ctx, query, recipientID, status, errorDetail, reportedAt)
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *messageRepository) ListRecipients(ctx context.Context, messageID string) ([]*domain.MessageRecipient, error) {
	query := `
		SELECT id, message_id, attendee_id, email, status, error_detail, reported_at
		FROM message_recipients
		WHERE message_id = $1
		ORDER BY email, id
	`
	rows, err := r.DB.QueryContext(ctx, query, messageID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	recipients := make([]*domain.MessageRecipient, 0)
	for rows.Next() {
		rec := &domain.MessageRecipient{}
		var detailNull sql.NullString
		var reportedNull sql.NullTime
		if err := rows.Scan(&rec.ID, &rec.MessageID, &rec.AttendeeID, &rec.Email, &rec.Status, &detailNull, &reportedNull); err != nil {
			return nil, err
		}
		if detailNull.Valid {
			rec.ErrorDetail = &detailNull.String
		}
		if reportedNull.Valid {
			rec.ReportedAt = &reportedNull.Time
		}
		recipients = append(recipients, rec)
	}
	return recipients, rows.Err()
}

func (r *messageRepository) CountOutcomes(ctx context.Context, messageID string) (delivered, failed, pending int, err error) {
	query := `
		SELECT status, COUNT(*)
		FROM message_recipients
		WHERE message_id = $1
		GROUP BY status
	`
	rows, err := r.DB.QueryContext(ctx, query, messageID)
	if err != nil {
		return 0, 0, 0, err
	}
	defer rows.Close()

	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return 0, 0, 0, err
		}
		switch status {
		case domain.RecipientStatusDelivered:
			delivered = count
		case domain.RecipientStatusFailed:
			failed = count
		case domain.RecipientStatusPending:
			pending = count
		}
	}
	return delivered, failed, pending, rows.Err()
}
