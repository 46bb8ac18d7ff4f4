package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"guestline/internal/domain"
)

const attendeeColumns = "id, event_id, name, email, company, rsvp_status, dietary_requirements, guest_count, registration_date, updated_at"

type attendeeRepository struct {
	DB *sql.DB
}

func NewAttendeeRepository(db *sql.DB) domain.AttendeeRepository {
	return &attendeeRepository{
		DB: db,
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAttendee(row rowScanner) (*domain.Attendee, error) {
	a := &domain.Attendee{}
	var companyNull, dietaryNull sql.NullString
	err := row.Scan(
		&a.ID, &a.EventID, &a.Name, &a.Email, &companyNull, &a.RSVPStatus,
		&dietaryNull, &a.GuestCount, &a.RegistrationDate, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if companyNull.Valid {
		a.Company = &companyNull.String
	}
	if dietaryNull.Valid {
		a.DietaryRequirements = &dietaryNull.String
	}
	return a, nil
}

// CreateAdmitting inserts an attendee. When the requested status is attending,
// the event row is locked for the duration of the transaction so that the
// attending count cannot move between the check and the insert.
func (r *attendeeRepository) CreateAdmitting(ctx context.Context, a *domain.Attendee) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if a.RSVPStatus == domain.RSVPStatusAttending {
		if err := checkCapacityLocked(ctx, tx, a.EventID); err != nil {
			return err
		}
	}

	query := `
		INSERT INTO attendees (event_id, name, email, company, rsvp_status, dietary_requirements, guest_count, registration_date, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`
	err = tx.QueryRowContext(ctx, query,
		a.EventID, a.Name, a.Email, a.Company, a.RSVPStatus,
		a.DietaryRequirements, a.GuestCount, a.RegistrationDate, a.UpdatedAt,
	).Scan(&a.ID)
	if err != nil {
		var pgErr *pq.Error
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return domain.ErrDuplicateAttendee
		}
		return fmt.Errorf("insert attendee: %w", err)
	}

	return tx.Commit()
}

// checkCapacityLocked locks the event row and verifies one more attending slot
// is free. Must be called inside the same transaction as the admitting write.
func checkCapacityLocked(ctx context.Context, tx *sql.Tx, eventID string) error {
	var capacityNull sql.NullInt64
	lockQuery := `SELECT capacity FROM events WHERE id = $1 FOR UPDATE`
	if err := tx.QueryRowContext(ctx, lockQuery, eventID).Scan(&capacityNull); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("lock event: %w", err)
	}

	var capacity *int
	if capacityNull.Valid {
		c := int(capacityNull.Int64)
		capacity = &c
	}

	var attending int
	countQuery := `SELECT COUNT(*) FROM attendees WHERE event_id = $1 AND rsvp_status = $2`
	if err := tx.QueryRowContext(ctx, countQuery, eventID, domain.RSVPStatusAttending).Scan(&attending); err != nil {
		return fmt.Errorf("count attending: %w", err)
	}

	if !domain.CapacityAllows(capacity, attending) {
		return domain.ErrCapacityExceeded
	}
	return nil
}

func (r *attendeeRepository) GetByEventAndID(ctx context.Context, eventID, attendeeID string) (*domain.Attendee, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM attendees
		WHERE event_id = $1 AND id = $2
	`, attendeeColumns)
	a, err := scanAttendee(r.DB.QueryRowContext(ctx, query, eventID, attendeeID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return a, nil
}

func (r *attendeeRepository) UpdateStatus(ctx context.Context, attendeeID, status string, updatedAt time.Time) (*domain.Attendee, error) {
	query := fmt.Sprintf(`
		UPDATE attendees SET rsvp_status = $2, updated_at = $3
		WHERE id = $1
		RETURNING %s
	`, attendeeColumns)
	a, err := scanAttendee(r.DB.QueryRowContext(ctx, query, attendeeID, status, updatedAt))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return a, nil
}

// UpdateStatusAdmitting moves an attendee into the attending state with the
// same event-row lock discipline as CreateAdmitting.
func (r *attendeeRepository) UpdateStatusAdmitting(ctx context.Context, attendeeID, status string, updatedAt time.Time) (*domain.Attendee, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var eventID, currentStatus string
	lookupQuery := `SELECT event_id, rsvp_status FROM attendees WHERE id = $1`
	if err := tx.QueryRowContext(ctx, lookupQuery, attendeeID).Scan(&eventID, &currentStatus); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get attendee: %w", err)
	}

	// An attendee already attending keeps its slot; only a real transition
	// into attending consumes one.
	if currentStatus != domain.RSVPStatusAttending {
		if err := checkCapacityLocked(ctx, tx, eventID); err != nil {
			return nil, err
		}
	}

	query := fmt.Sprintf(`
		UPDATE attendees SET rsvp_status = $2, updated_at = $3
		WHERE id = $1
		RETURNING %s
	`, attendeeColumns)
	a, err := scanAttendee(tx.QueryRowContext(ctx, query, attendeeID, status, updatedAt))
	if err != nil {
		return nil, fmt.Errorf("update attendee status: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return a, nil
}

func (r *attendeeRepository) Delete(ctx context.Context, attendeeID string) (*domain.Attendee, error) {
	query := fmt.Sprintf(`
		DELETE FROM attendees
		WHERE id = $1
		RETURNING %s
	`, attendeeColumns)
	a, err := scanAttendee(r.DB.QueryRowContext(ctx, query, attendeeID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return a, nil
}

func (r *attendeeRepository) ListByEvent(ctx context.Context, eventID string, params domain.PaginationParams) ([]*domain.Attendee, int, error) {
	var total int
	countQuery := `SELECT COUNT(*) FROM attendees WHERE event_id = $1`
	if err := r.DB.QueryRowContext(ctx, countQuery, eventID).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM attendees
		WHERE event_id = $1
		ORDER BY registration_date DESC, id
		LIMIT $2 OFFSET $3
	`, attendeeColumns)
	rows, err := r.DB.QueryContext(ctx, query, eventID, params.PageSize, params.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	attendees := make([]*domain.Attendee, 0)
	for rows.Next() {
		a, err := scanAttendee(rows)
		if err != nil {
			return nil, 0, err
		}
		attendees = append(attendees, a)
	}
	return attendees, total, rows.Err()
}

// appendFilterClauses translates a recipient filter into WHERE clauses. Each
// present predicate contributes one clause; the clauses are ANDed by the
// caller. Both CountByFilter and ListByFilter build on this so a count
// snapshot and a later full evaluation agree on the same filter semantics.
func appendFilterClauses(where []string, args []any, n int, f domain.RecipientFilter) ([]string, []any, int) {
	if len(f.RSVPStatus) > 0 {
		where = append(where, fmt.Sprintf("rsvp_status = ANY($%d)", n))
		args = append(args, pq.Array(f.RSVPStatus))
		n++
	}
	if f.RegistrationDateRange != nil {
		if f.RegistrationDateRange.Start != nil {
			where = append(where, fmt.Sprintf("registration_date >= $%d", n))
			args = append(args, *f.RegistrationDateRange.Start)
			n++
		}
		if f.RegistrationDateRange.End != nil {
			where = append(where, fmt.Sprintf("registration_date <= $%d", n))
			args = append(args, *f.RegistrationDateRange.End)
			n++
		}
	}
	if q := strings.TrimSpace(f.SearchQuery); q != "" {
		where = append(where, fmt.Sprintf(
			"(LOWER(name) LIKE $%d OR LOWER(email) LIKE $%d OR LOWER(COALESCE(company, '')) LIKE $%d)", n, n, n))
		args = append(args, "%"+strings.ToLower(q)+"%")
		n++
	}
	return where, args, n
}

func (r *attendeeRepository) CountByFilter(ctx context.Context, eventID string, filter domain.RecipientFilter) (int, error) {
	where := []string{"event_id = $1"}
	args := []any{eventID}
	where, args, _ = appendFilterClauses(where, args, 2, filter)

	query := fmt.Sprintf(`SELECT COUNT(*) FROM attendees WHERE %s`, strings.Join(where, " AND "))
	var count int
	if err := r.DB.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *attendeeRepository) ListByFilter(ctx context.Context, eventID string, filter domain.RecipientFilter) ([]*domain.Attendee, error) {
	where := []string{"event_id = $1"}
	args := []any{eventID}
	where, args, _ = appendFilterClauses(where, args, 2, filter)

	query := fmt.Sprintf(`
		SELECT %s
		FROM attendees
		WHERE %s
		ORDER BY registration_date, id
	`, attendeeColumns, strings.Join(where, " AND "))
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	attendees := make([]*domain.Attendee, 0)
	for rows.Next() {
		a, err := scanAttendee(rows)
		if err != nil {
			return nil, err
		}
		attendees = append(attendees, a)
	}
	return attendees, rows.Err()
}
