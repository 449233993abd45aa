package visits

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/door2door/fieldvisits/internal/core/domain"
	"github.com/door2door/fieldvisits/internal/core/services/notification"
	"github.com/door2door/fieldvisits/internal/core/services/refinery"
	apperrors "github.com/door2door/fieldvisits/internal/pkg/errors"
	"github.com/door2door/fieldvisits/internal/pkg/logger"
)

// mockRepository implements Repository for testing
type mockRepository struct {
	visits  map[uuid.UUID]*domain.Visit
	now     time.Time
	failing error
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		visits: make(map[uuid.UUID]*domain.Visit),
		now:    time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC),
	}
}

func (m *mockRepository) Create(_ context.Context, visit *domain.Visit) error {
	if m.failing != nil {
		return m.failing
	}
	visit.ID = uuid.New()
	m.now = m.now.Add(time.Minute)
	visit.CreatedAt, visit.UpdatedAt = m.now, m.now
	stored := *visit
	m.visits[visit.ID] = &stored
	return nil
}

func (m *mockRepository) Update(_ context.Context, visit *domain.Visit) error {
	if m.failing != nil {
		return m.failing
	}
	m.now = m.now.Add(time.Minute)
	visit.UpdatedAt = m.now
	stored := *visit
	m.visits[visit.ID] = &stored
	return nil
}

func (m *mockRepository) FindByID(_ context.Context, id uuid.UUID) (*domain.Visit, error) {
	v, ok := m.visits[id]
	if !ok {
		return nil, apperrors.RecordNotFound("visit")
	}
	out := *v
	return &out, nil
}

func (m *mockRepository) List(_ context.Context, offset, limit int) ([]domain.Visit, int64, error) {
	all := make([]domain.Visit, 0, len(m.visits))
	for _, v := range m.visits {
		all = append(all, *v)
	}
	sort.Slice(all, func(i, j int) bool {
		if !all[i].VisitDate.Equal(all[j].VisitDate) {
			return all[i].VisitDate.After(all[j].VisitDate)
		}
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})
	total := int64(len(all))
	if offset >= len(all) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}

func (m *mockRepository) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := m.visits[id]; !ok {
		return apperrors.RecordNotFound("visit")
	}
	delete(m.visits, id)
	return nil
}

type notified struct {
	id   uuid.UUID
	kind notification.Kind
}

type mockNotifier struct {
	calls []notified
	err   error
}

func (m *mockNotifier) Notify(_ context.Context, visit *domain.Visit, kind notification.Kind) error {
	m.calls = append(m.calls, notified{id: visit.ID, kind: kind})
	return m.err
}

func newTestService(t *testing.T) (*Service, *mockRepository, *mockNotifier) {
	t.Helper()
	cleaner, err := refinery.NewVisitCleaner()
	require.NoError(t, err)

	repo := newMockRepository()
	notifier := &mockNotifier{}
	return NewService(DefaultConfig(), repo, notifier, cleaner, logger.Discard()), repo, notifier
}

func completePayload() domain.VisitPayload {
	return domain.VisitPayload{
		VisitDate:       "2026-03-10",
		PracticeName:    "  Acme   Dental ",
		Phone:           "5551234567",
		Email:           "A@B.com",
		Address:         "1 Main St",
		TopicsDiscussed: "Pricing",
		Status:          domain.VisitStatusSaved,
	}
}

func TestService_SaveCreates(t *testing.T) {
	service, repo, notifier := newTestService(t)

	out, err := service.Save(context.Background(), completePayload())
	require.NoError(t, err)

	assert.True(t, out.Created)
	assert.NotEqual(t, uuid.Nil, out.Visit.ID)
	assert.Equal(t, "Acme Dental", out.Visit.PracticeName, "text is cleaned")
	assert.Equal(t, "a@b.com", out.Visit.Email)
	assert.Equal(t, time.Date(2026, time.March, 10, 0, 0, 0, 0, time.UTC), out.Visit.VisitDate)
	assert.NotNil(t, out.Visit.SamplesProvided)
	assert.Len(t, repo.visits, 1)

	require.Len(t, notifier.calls, 1)
	assert.Equal(t, notification.KindNew, notifier.calls[0].kind)
}

func TestService_SaveDraft(t *testing.T) {
	service, _, notifier := newTestService(t)

	out, err := service.Save(context.Background(), domain.VisitPayload{
		PracticeName: "Acme",
		Status:       domain.VisitStatusDraft,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.VisitStatusDraft, out.Visit.Status)
	assert.True(t, out.Visit.VisitDate.IsZero())
	assert.Empty(t, notifier.calls, "drafts are not announced")
}

func TestService_SaveDefaultsToSaved(t *testing.T) {
	service, _, _ := newTestService(t)

	p := completePayload()
	p.Status = ""
	out, err := service.Save(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, domain.VisitStatusSaved, out.Visit.Status)
}

func TestService_SaveValidation(t *testing.T) {
	service, repo, _ := newTestService(t)
	ctx := context.Background()

	p := completePayload()
	p.Phone = ""
	p.TopicsDiscussed = "   "
	_, err := service.Save(ctx, p)
	require.Error(t, err)
	appErr, ok := apperrors.GetAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrCodeValidation, appErr.Code)
	assert.Equal(t, "Missing required fields: phone, topicsDiscussed", appErr.Message)
	assert.Contains(t, appErr.Details, "phone")

	p = completePayload()
	p.Status = "archived"
	_, err = service.Save(ctx, p)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeBadRequest))

	p = completePayload()
	p.VisitDate = "03/10/2026"
	_, err = service.Save(ctx, p)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeBadRequest))

	assert.Empty(t, repo.visits)
}

func TestService_SaveUpdates(t *testing.T) {
	ctx := context.Background()
	yes, no := true, false

	tests := []struct {
		name         string
		isRealUpdate *bool
		status       string
		wantKind     notification.Kind
		wantNotified bool
	}{
		{name: "draft promoted", isRealUpdate: nil, status: domain.VisitStatusSaved, wantKind: notification.KindSubmit, wantNotified: true},
		{name: "explicit non-edit", isRealUpdate: &no, status: domain.VisitStatusSaved, wantKind: notification.KindSubmit, wantNotified: true},
		{name: "real update", isRealUpdate: &yes, status: domain.VisitStatusSaved, wantKind: notification.KindUpdate, wantNotified: true},
		{name: "draft autosave", isRealUpdate: nil, status: domain.VisitStatusDraft, wantNotified: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service, repo, notifier := newTestService(t)

			draft := completePayload()
			draft.Status = domain.VisitStatusDraft
			created, err := service.Save(ctx, draft)
			require.NoError(t, err)

			p := completePayload()
			p.ID = created.Visit.ID.String()
			p.IsRealUpdate = tt.isRealUpdate
			p.Status = tt.status
			p.PracticeName = "Acme Orthodontics"

			out, err := service.Save(ctx, p)
			require.NoError(t, err)
			assert.False(t, out.Created)
			assert.Equal(t, created.Visit.ID, out.Visit.ID)
			assert.Len(t, repo.visits, 1)
			assert.Equal(t, "Acme Orthodontics", repo.visits[out.Visit.ID].PracticeName)

			if tt.wantNotified {
				require.Len(t, notifier.calls, 1)
				assert.Equal(t, tt.wantKind, notifier.calls[0].kind)
			} else {
				assert.Empty(t, notifier.calls)
			}
		})
	}
}

func TestService_SaveUnknownID(t *testing.T) {
	service, _, _ := newTestService(t)

	for _, id := range []string{uuid.NewString(), "not-a-uuid"} {
		p := completePayload()
		p.ID = id
		_, err := service.Save(context.Background(), p)
		appErr, ok := apperrors.GetAppError(err)
		require.True(t, ok, id)
		assert.Equal(t, 404, appErr.StatusCode)
		assert.Equal(t, "Visit not found", appErr.Message)
	}
}

func TestService_NotifyFailureDoesNotFailSave(t *testing.T) {
	service, repo, notifier := newTestService(t)
	notifier.err = errors.New("queue down")

	out, err := service.Save(context.Background(), completePayload())
	require.NoError(t, err)
	assert.True(t, out.Created)
	assert.Len(t, repo.visits, 1)
}

func TestService_RepositoryFailure(t *testing.T) {
	service, repo, notifier := newTestService(t)
	repo.failing = apperrors.DatabaseError(errors.New("connection refused"))

	_, err := service.Save(context.Background(), completePayload())
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeDatabaseError))
	assert.Empty(t, notifier.calls)
}

func TestService_List(t *testing.T) {
	service, _, _ := newTestService(t)
	ctx := context.Background()

	dates := []string{"2026-03-01", "2026-03-05", "2026-03-05", "2026-02-20", "2026-03-09"}
	for _, d := range dates {
		p := completePayload()
		p.VisitDate = d
		p.PracticeName = d
		_, err := service.Save(ctx, p)
		require.NoError(t, err)
	}

	page, err := service.List(ctx, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(5), page.TotalVisits)
	assert.Equal(t, 3, page.TotalPages)
	assert.Equal(t, 1, page.CurrentPage)
	assert.True(t, page.HasNextPage)
	assert.False(t, page.HasPrevPage)
	require.Len(t, page.Visits, 2)
	assert.Equal(t, "2026-03-09", page.Visits[0].PracticeName)
	assert.Equal(t, "2026-03-05", page.Visits[1].PracticeName)

	page, err = service.List(ctx, 3, 2)
	require.NoError(t, err)
	assert.Len(t, page.Visits, 1)
	assert.False(t, page.HasNextPage)
	assert.True(t, page.HasPrevPage)

	page, err = service.List(ctx, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, page.CurrentPage)
	assert.Len(t, page.Visits, 5, "default page size covers everything")

	page, err = service.List(ctx, 9, 10)
	require.NoError(t, err)
	assert.NotNil(t, page.Visits)
	assert.Empty(t, page.Visits)
}

func TestService_GetAndDelete(t *testing.T) {
	service, _, _ := newTestService(t)
	ctx := context.Background()

	out, err := service.Save(ctx, completePayload())
	require.NoError(t, err)
	id := out.Visit.ID.String()

	got, err := service.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Acme Dental", got.PracticeName)

	require.NoError(t, service.Delete(ctx, id))

	_, err = service.Get(ctx, id)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeNotFound))
	err = service.Delete(ctx, id)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeNotFound))
}
