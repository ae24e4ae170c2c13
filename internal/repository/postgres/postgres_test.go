package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/juju/errors"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osvaldobrewjaria/fazumclube/internal/domain"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return sqlx.NewDb(db, "postgres"), mock
}

func TestDeliveryUpsertKeepsExistingRow(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewDeliveryRepository(db)

	existingID := uuid.New()
	createdAt := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`INSERT INTO deliveries (.+) ON CONFLICT \(subscription_id, reference_month, reference_year\) DO UPDATE`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(existingID, createdAt))

	d := domain.NewDelivery(uuid.New(), uuid.New(), 5, 2026, time.Now())
	require.NoError(t, repo.Upsert(context.Background(), d))

	assert.Equal(t, existingID, d.ID)
	assert.Equal(t, createdAt, d.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWebhookEventRecord(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewWebhookEventRepository(db)
	ctx := context.Background()

	mock.ExpectQuery(`INSERT INTO webhook_events`).
		WithArgs(sqlmock.AnyArg(), "evt_1", "invoice.paid").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(uuid.New()))
	claimed, err := repo.Record(ctx, "evt_1", "invoice.paid")
	require.NoError(t, err)
	assert.True(t, claimed)

	// a processed duplicate makes the conditional upsert return nothing
	mock.ExpectQuery(`INSERT INTO webhook_events`).
		WithArgs(sqlmock.AnyArg(), "evt_1", "invoice.paid").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	claimed, err = repo.Record(ctx, "evt_1", "invoice.paid")
	require.NoError(t, err)
	assert.False(t, claimed)

	mock.ExpectExec(`UPDATE webhook_events SET processed_at = NOW\(\), error = \$2 WHERE event_id = \$1`).
		WithArgs("evt_1", "gateway down").
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.MarkProcessed(ctx, "evt_1", errors.New("gateway down")))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubscriptionCreateMapsUniqueViolations(t *testing.T) {
	tests := []struct {
		constraint string
		message    string
	}{
		{"idx_subscriptions_one_active", "active subscription already exists"},
		{"subscriptions_pkey", "subscription already exists"},
	}

	for _, tt := range tests {
		t.Run(tt.constraint, func(t *testing.T) {
			db, mock := newMockDB(t)
			repo := NewSubscriptionRepository(db)

			mock.ExpectExec(`INSERT INTO subscriptions`).
				WillReturnError(&pq.Error{Code: uniqueViolation, Constraint: tt.constraint})

			err := repo.Create(context.Background(), &domain.Subscription{
				ID:              uuid.New(),
				TenantID:        uuid.New(),
				UserID:          uuid.New(),
				PlanID:          uuid.New(),
				BillingInterval: domain.BillingMonthly,
				Status:          domain.SubscriptionPending,
			})
			require.Error(t, err)
			assert.True(t, errors.Is(err, errors.AlreadyExists))
			assert.Equal(t, tt.message, err.Error())
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestUserGetByIDNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectQuery(`SELECT (.+) FROM users WHERE id = \$1`).WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), uuid.New())
	assert.True(t, errors.Is(err, errors.NotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExpectRow(t *testing.T) {
	assert.NoError(t, expectRow(sqlmock.NewResult(0, 1), "plan"))
	err := expectRow(sqlmock.NewResult(0, 0), "plan")
	assert.True(t, errors.Is(err, errors.NotFound))
}
