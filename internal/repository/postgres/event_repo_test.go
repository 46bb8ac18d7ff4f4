package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"guestline/internal/domain"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
)

func TestEventRepository_Create(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	capacity := 150

	tests := []struct {
		name    string
		event   *domain.Event
		mock    func(mock sqlmock.Sqlmock)
		wantID  string
		wantErr bool
	}{
		{
			name: "success",
			event: &domain.Event{
				Name:      "Launch Party",
				OwnerID:   "user-1",
				Status:    domain.EventStatusDraft,
				Capacity:  &capacity,
				CreatedAt: now,
				UpdatedAt: now,
			},
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`INSERT INTO events \(name, owner_id, status, capacity, rsvp_deadline, description, created_at, updated_at\)`).
					WithArgs("Launch Party", "user-1", domain.EventStatusDraft, &capacity, (*time.Time)(nil), (*string)(nil), now, now).
					WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("ev-1"))
			},
			wantID: "ev-1",
		},
		{
			name: "db error",
			event: &domain.Event{
				Name:      "Launch Party",
				OwnerID:   "user-1",
				Status:    domain.EventStatusDraft,
				CreatedAt: now,
				UpdatedAt: now,
			},
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`INSERT INTO events`).
					WillReturnError(sql.ErrConnDone)
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			tt.mock(mock)
			repo := NewEventRepository(db)
			err = repo.Create(ctx, tt.event)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.wantID, tt.event.ID)
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestEventRepository_GetByID(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	deadline := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		id      string
		mock    func(mock sqlmock.Sqlmock)
		check   func(t *testing.T, got *domain.Event)
		wantErr bool
	}{
		{
			name: "success with capacity and deadline",
			id:   "ev-1",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`SELECT id, name, owner_id, status, capacity, rsvp_deadline, description, created_at, updated_at`).
					WithArgs("ev-1").
					WillReturnRows(sqlmock.NewRows([]string{"id", "name", "owner_id", "status", "capacity", "rsvp_deadline", "description", "created_at", "updated_at"}).
						AddRow("ev-1", "Launch Party", "user-1", domain.EventStatusPublished, 150, deadline, "An evening event", now, now))
			},
			check: func(t *testing.T, got *domain.Event) {
				require.NotNil(t, got.Capacity)
				require.Equal(t, 150, *got.Capacity)
				require.NotNil(t, got.RSVPDeadline)
				require.True(t, got.RSVPDeadline.Equal(deadline))
				require.NotNil(t, got.Description)
			},
		},
		{
			name: "success with null capacity",
			id:   "ev-2",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`SELECT id, name, owner_id, status, capacity, rsvp_deadline, description, created_at, updated_at`).
					WithArgs("ev-2").
					WillReturnRows(sqlmock.NewRows([]string{"id", "name", "owner_id", "status", "capacity", "rsvp_deadline", "description", "created_at", "updated_at"}).
						AddRow("ev-2", "Meetup", "user-1", domain.EventStatusPublished, nil, nil, nil, now, now))
			},
			check: func(t *testing.T, got *domain.Event) {
				require.Nil(t, got.Capacity)
				require.Nil(t, got.RSVPDeadline)
				require.Nil(t, got.Description)
			},
		},
		{
			name: "not found",
			id:   "ev-missing",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`SELECT id, name, owner_id, status, capacity, rsvp_deadline, description, created_at, updated_at`).
					WithArgs("ev-missing").
					WillReturnError(sql.ErrNoRows)
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			tt.mock(mock)
			repo := NewEventRepository(db)
			got, err := repo.GetByID(ctx, tt.id)
			if tt.wantErr {
				require.Error(t, err)
				require.True(t, errors.Is(err, domain.ErrNotFound))
				require.NoError(t, mock.ExpectationsWereMet())
				return
			}
			require.NoError(t, err)
			tt.check(t, got)
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestEventRepository_Update(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	t.Run("updates only the provided fields", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		status := domain.EventStatusPublished
		capacity := 200
		mock.ExpectQuery(`UPDATE events SET updated_at = NOW\(\), status = \$1, capacity = \$2\s+WHERE id = \$3`).
			WithArgs(status, capacity, "ev-1").
			WillReturnRows(sqlmock.NewRows([]string{"id", "name", "owner_id", "status", "capacity", "rsvp_deadline", "description", "created_at", "updated_at"}).
				AddRow("ev-1", "Launch Party", "user-1", status, capacity, nil, nil, now, now))

		repo := NewEventRepository(db)
		got, err := repo.Update(ctx, "ev-1", domain.EventUpdate{Status: &status, Capacity: &capacity})
		require.NoError(t, err)
		require.Equal(t, status, got.Status)
		require.NotNil(t, got.Capacity)
		require.Equal(t, capacity, *got.Capacity)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("empty update fetches the current row", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(`SELECT id, name, owner_id, status, capacity, rsvp_deadline, description, created_at, updated_at`).
			WithArgs("ev-1").
			WillReturnRows(sqlmock.NewRows([]string{"id", "name", "owner_id", "status", "capacity", "rsvp_deadline", "description", "created_at", "updated_at"}).
				AddRow("ev-1", "Launch Party", "user-1", domain.EventStatusDraft, nil, nil, nil, now, now))

		repo := NewEventRepository(db)
		got, err := repo.Update(ctx, "ev-1", domain.EventUpdate{})
		require.NoError(t, err)
		require.Equal(t, "ev-1", got.ID)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		status := domain.EventStatusCancelled
		mock.ExpectQuery(`UPDATE events SET`).
			WillReturnError(sql.ErrNoRows)

		repo := NewEventRepository(db)
		_, err = repo.Update(ctx, "ev-missing", domain.EventUpdate{Status: &status})
		require.True(t, errors.Is(err, domain.ErrNotFound))
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestEventRepository_Delete(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name       string
		id         string
		mock       func(mock sqlmock.Sqlmock)
		wantErr    bool
		isNotFound bool
	}{
		{
			name: "success",
			id:   "ev-1",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`DELETE FROM events WHERE id = \$1`).
					WithArgs("ev-1").
					WillReturnResult(sqlmock.NewResult(0, 1))
			},
		},
		{
			name: "not found",
			id:   "ev-missing",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`DELETE FROM events WHERE id = \$1`).
					WithArgs("ev-missing").
					WillReturnResult(sqlmock.NewResult(0, 0))
			},
			wantErr:    true,
			isNotFound: true,
		},
		{
			name: "db error",
			id:   "ev-1",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`DELETE FROM events WHERE id = \$1`).
					WithArgs("ev-1").
					WillReturnError(sql.ErrConnDone)
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			tt.mock(mock)
			repo := NewEventRepository(db)
			err = repo.Delete(ctx, tt.id)
			if tt.wantErr {
				require.Error(t, err)
				if tt.isNotFound {
					require.True(t, errors.Is(err, domain.ErrNotFound))
				}
				require.NoError(t, mock.ExpectationsWereMet())
				return
			}
			require.NoError(t, err)
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}
