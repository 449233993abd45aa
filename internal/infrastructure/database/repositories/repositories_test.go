package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/gorm"

	"github.com/door2door/fieldvisits/internal/core/domain"
	"github.com/door2door/fieldvisits/internal/infrastructure/database"
	"github.com/door2door/fieldvisits/internal/pkg/config"
	apperrors "github.com/door2door/fieldvisits/internal/pkg/errors"
	"github.com/door2door/fieldvisits/internal/pkg/logger"
)

// setupTestDB creates a PostgreSQL testcontainer for testing
func setupTestDB(t *testing.T) *gorm.DB {
	if testing.Short() {
		t.Skip("skipping postgres container test in short mode")
	}
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("postgres"),
		postgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	t.Cleanup(func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Fatalf("failed to terminate postgres container: %v", err)
		}
	})

	host, err := pgContainer.Host(ctx)
	require.NoError(t, err)
	port, err := pgContainer.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)

	pg, err := database.NewPostgresDB(&config.DatabaseConfig{
		Host:            host,
		Port:            port.Int(),
		User:            "postgres",
		Password:        "postgres",
		Database:        "testdb",
		SSLMode:         "disable",
		LogLevel:        "silent",
		MaxConnections:  5,
		MinConnections:  1,
		MaxConnLifetime: 5,
		MaxConnIdleTime: 1,
	}, logger.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { _ = pg.Close() })

	require.NoError(t, pg.Migrate())
	assert.Equal(t, "up", pg.Health(ctx)["status"])

	return pg.DB
}

func newVisit(practice string, date time.Time) *domain.Visit {
	yes := true
	return &domain.Visit{
		VisitDate:       date,
		PracticeName:    practice,
		Phone:           "5551234567",
		Email:           "a@b.com",
		Address:         "1 Main St",
		TopicsDiscussed: "Pricing",
		SamplesProvided: []domain.SampleEntry{{Name: "IPR Glide", Quantity: 2}},
		Survey:          domain.Survey{SpokeToDoctor: &yes, OfficeDescription: "busy"},
		Status:          domain.VisitStatusDraft,
	}
}

func TestVisitRepository(t *testing.T) {
	db := setupTestDB(t)
	repo := NewVisitRepository(db, logger.Discard())
	ctx := context.Background()

	visit := newVisit("Acme", time.Date(2026, time.March, 10, 0, 0, 0, 0, time.UTC))
	require.NoError(t, repo.Create(ctx, visit))
	assert.NotEqual(t, uuid.Nil, visit.ID)
	assert.False(t, visit.CreatedAt.IsZero())

	got, err := repo.FindByID(ctx, visit.ID)
	require.NoError(t, err)
	assert.Equal(t, "Acme", got.PracticeName)
	assert.Equal(t, []domain.SampleEntry{{Name: "IPR Glide", Quantity: 2}}, got.SamplesProvided)
	require.NotNil(t, got.Survey.SpokeToDoctor)
	assert.True(t, *got.Survey.SpokeToDoctor)
	assert.Nil(t, got.CreditCard)

	got.Status = domain.VisitStatusSaved
	got.CreditCard = &domain.CreditCard{Number: "4242424242424242", Name: "Jordan"}
	got.OtherSample = ""
	require.NoError(t, repo.Update(ctx, got))

	reloaded, err := repo.FindByID(ctx, visit.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.VisitStatusSaved, reloaded.Status)
	assert.True(t, reloaded.HasCreditCard())
	assert.WithinDuration(t, visit.CreatedAt, reloaded.CreatedAt, time.Millisecond)

	missing := newVisit("Ghost", time.Time{})
	missing.ID = uuid.New()
	err = repo.Update(ctx, missing)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeRecordNotFound))

	require.NoError(t, repo.Delete(ctx, visit.ID))
	_, err = repo.FindByID(ctx, visit.ID)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeRecordNotFound))
	err = repo.Delete(ctx, visit.ID)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeRecordNotFound))
}

func TestVisitRepository_List(t *testing.T) {
	db := setupTestDB(t)
	repo := NewVisitRepository(db, logger.Discard())
	ctx := context.Background()

	day := func(d int) time.Time { return time.Date(2026, time.March, d, 0, 0, 0, 0, time.UTC) }
	for _, v := range []*domain.Visit{
		newVisit("first", day(1)),
		newVisit("fifth-a", day(5)),
		newVisit("fifth-b", day(5)),
		newVisit("ninth", day(9)),
	} {
		require.NoError(t, repo.Create(ctx, v))
		time.Sleep(5 * time.Millisecond)
	}

	visits, total, err := repo.List(ctx, 0, 3)
	require.NoError(t, err)
	assert.Equal(t, int64(4), total)
	require.Len(t, visits, 3)
	assert.Equal(t, "ninth", visits[0].PracticeName)
	assert.Equal(t, "fifth-b", visits[1].PracticeName, "same day falls back to newest created")
	assert.Equal(t, "fifth-a", visits[2].PracticeName)

	visits, _, err = repo.List(ctx, 3, 3)
	require.NoError(t, err)
	require.Len(t, visits, 1)
	assert.Equal(t, "first", visits[0].PracticeName)
}

func TestAuthSessionRepository(t *testing.T) {
	db := setupTestDB(t)
	repo := NewAuthSessionRepository(db, logger.Discard())
	ctx := context.Background()
	now := time.Now().UTC()

	live := &domain.AuthSession{SessionID: "live", UserID: domain.DefaultUserID, ExpiresAt: now.Add(time.Hour)}
	stale := &domain.AuthSession{SessionID: "stale", UserID: domain.DefaultUserID, ExpiresAt: now.Add(-time.Hour)}
	require.NoError(t, repo.Create(ctx, live))
	require.NoError(t, repo.Create(ctx, stale))

	got, err := repo.FindBySessionID(ctx, "live")
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultUserID, got.UserID)
	assert.True(t, got.IsAuthenticated)

	_, err = repo.FindBySessionID(ctx, "nope")
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeRecordNotFound))

	n, err := repo.DeleteExpired(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	require.NoError(t, repo.DeleteBySessionID(ctx, "live"))
	require.NoError(t, repo.DeleteBySessionID(ctx, "live"))
	_, err = repo.FindBySessionID(ctx, "live")
	assert.Error(t, err)
}
