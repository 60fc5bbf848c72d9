package gateway

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"

	"github.com/k-negishi/kairos-scheduler/internal/domain"
)

// MockEventsProvider は EventsProvider のテスト用モック
type MockEventsProvider struct {
	mock.Mock
}

func (m *MockEventsProvider) ListEvents(ctx context.Context, calendarID, timeMin, timeMax string) ([]*calendar.Event, error) {
	args := m.Called(ctx, calendarID, timeMin, timeMax)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*calendar.Event), args.Error(1)
}

func (m *MockEventsProvider) GetEvent(ctx context.Context, calendarID, eventID string) (*calendar.Event, error) {
	args := m.Called(ctx, calendarID, eventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*calendar.Event), args.Error(1)
}

func (m *MockEventsProvider) InsertEvent(ctx context.Context, calendarID string, event *calendar.Event) (*calendar.Event, error) {
	args := m.Called(ctx, calendarID, event)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*calendar.Event), args.Error(1)
}

func (m *MockEventsProvider) UpdateEvent(ctx context.Context, calendarID, eventID string, event *calendar.Event) (*calendar.Event, error) {
	args := m.Called(ctx, calendarID, eventID, event)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*calendar.Event), args.Error(1)
}

func (m *MockEventsProvider) DeleteEvent(ctx context.Context, calendarID, eventID string) error {
	args := m.Called(ctx, calendarID, eventID)
	return args.Error(0)
}

func sgt() *time.Location {
	return time.FixedZone("SGT", 8*60*60)
}

// --- convertToEvent テスト（純粋ロジック） ---

func TestConvertToEvent_TimedEvent(t *testing.T) {
	repo := NewGoogleCalendarRepositoryWithProvider(nil, "test", sgt())

	event := &calendar.Event{
		Id:       "1",
		Summary:  "テストイベント",
		Location: "シンガポール",
		Start:    &calendar.EventDateTime{DateTime: "2025-08-29T10:00:00+09:00"},
		End:      &calendar.EventDateTime{DateTime: "2025-08-29T11:00:00+09:00"},
	}

	result, err := repo.convertToEvent(event)
	require.NoError(t, err)
	assert.Equal(t, "1", result.ID)
	assert.Equal(t, "テストイベント", result.Title)
	assert.Equal(t, "シンガポール", result.Location)
	assert.False(t, result.IsAllDay)
	// +09:00 の10時は SGT の9時
	assert.Equal(t, 9, result.StartTime.Hour())
	assert.Equal(t, 10, result.EndTime.Hour())
}

func TestConvertToEvent_AllDayEvent(t *testing.T) {
	loc := sgt()
	repo := NewGoogleCalendarRepositoryWithProvider(nil, "test", loc)

	event := &calendar.Event{
		Id:      "2",
		Summary: "終日イベント",
		Start:   &calendar.EventDateTime{Date: "2025-08-29"},
		End:     &calendar.EventDateTime{Date: "2025-08-30"},
	}

	result, err := repo.convertToEvent(event)
	require.NoError(t, err)
	assert.True(t, result.IsAllDay)
	assert.Equal(t, "終日イベント", result.Title)
	assert.True(t, time.Date(2025, 8, 29, 0, 0, 0, 0, loc).Equal(result.StartTime))
	assert.True(t, time.Date(2025, 8, 30, 0, 0, 0, 0, loc).Equal(result.EndTime))
}

func TestConvertToEvent_EmptyTitle(t *testing.T) {
	repo := NewGoogleCalendarRepositoryWithProvider(nil, "test", sgt())

	event := &calendar.Event{
		Id:      "3",
		Summary: "",
		Start:   &calendar.EventDateTime{DateTime: "2025-08-29T10:00:00+08:00"},
		End:     &calendar.EventDateTime{DateTime: "2025-08-29T11:00:00+08:00"},
	}

	result, err := repo.convertToEvent(event)
	require.NoError(t, err)
	assert.Equal(t, "（無題）", result.Title)
}

func TestConvertToEvent_NoStartTime(t *testing.T) {
	repo := NewGoogleCalendarRepositoryWithProvider(nil, "test", sgt())

	event := &calendar.Event{
		Id:    "4",
		Start: &calendar.EventDateTime{},
		End:   &calendar.EventDateTime{DateTime: "2025-08-29T11:00:00+08:00"},
	}

	_, err := repo.convertToEvent(event)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "開始時刻が設定されていません")
}

// --- toCalendarEvent テスト ---

func TestToCalendarEvent(t *testing.T) {
	loc := sgt()
	repo := NewGoogleCalendarRepositoryWithProvider(nil, "test", loc)

	t.Run("正常系: 時刻指定", func(t *testing.T) {
		item := repo.toCalendarEvent(domain.Event{
			ID:        "0F9C6E2A-1D4B-4C3A-9E51-7A2B8C9D0E1F",
			Title:     "面談",
			StartTime: time.Date(2025, 8, 29, 2, 0, 0, 0, time.UTC),
			EndTime:   time.Date(2025, 8, 29, 3, 0, 0, 0, time.UTC),
		})
		assert.Equal(t, "0f9c6e2a1d4b4c3a9e517a2b8c9d0e1f", item.Id)
		assert.Equal(t, "面談", item.Summary)
		assert.Equal(t, "2025-08-29T10:00:00+08:00", item.Start.DateTime)
		assert.Equal(t, "2025-08-29T11:00:00+08:00", item.End.DateTime)
		assert.Equal(t, "SGT", item.Start.TimeZone)
	})

	t.Run("正常系: 終日", func(t *testing.T) {
		item := repo.toCalendarEvent(domain.Event{
			Title:     "休暇",
			StartTime: time.Date(2025, 8, 29, 0, 0, 0, 0, loc),
			EndTime:   time.Date(2025, 8, 31, 0, 0, 0, 0, loc),
			IsAllDay:  true,
		})
		assert.Equal(t, "2025-08-29", item.Start.Date)
		assert.Equal(t, "2025-08-31", item.End.Date)
		assert.Empty(t, item.Start.DateTime)
	})
}

// --- ListEvents テスト（モック使用） ---

func TestListEvents_Success(t *testing.T) {
	loc := sgt()
	mockProvider := new(MockEventsProvider)
	repo := NewGoogleCalendarRepositoryWithProvider(mockProvider, "test-calendar", loc)

	from := time.Date(2025, 8, 29, 0, 0, 0, 0, loc)
	to := time.Date(2025, 8, 30, 0, 0, 0, 0, loc)

	events := []*calendar.Event{
		{
			Id:      "1",
			Summary: "朝会",
			Start:   &calendar.EventDateTime{DateTime: "2025-08-29T09:00:00+08:00"},
			End:     &calendar.EventDateTime{DateTime: "2025-08-29T09:30:00+08:00"},
		},
		{
			Id:    "broken",
			Start: &calendar.EventDateTime{},
			End:   &calendar.EventDateTime{},
		},
	}

	mockProvider.On("ListEvents", mock.Anything, "test-calendar", "2025-08-29T00:00:00+08:00", "2025-08-30T00:00:00+08:00").
		Return(events, nil)

	result, err := repo.ListEvents(context.Background(), from, to)
	require.NoError(t, err)
	// 変換できないイベントはスキップされる
	assert.Len(t, result, 1)
	assert.Equal(t, "朝会", result[0].Title)
	assert.IsType(t, domain.Event{}, result[0])
	mockProvider.AssertExpectations(t)
}

func TestListEvents_Unbounded(t *testing.T) {
	mockProvider := new(MockEventsProvider)
	repo := NewGoogleCalendarRepositoryWithProvider(mockProvider, "test-calendar", sgt())

	mockProvider.On("ListEvents", mock.Anything, "test-calendar", "", "").Return([]*calendar.Event{}, nil)

	result, err := repo.ListEvents(context.Background(), time.Time{}, time.Time{})
	require.NoError(t, err)
	assert.Empty(t, result)
	mockProvider.AssertExpectations(t)
}

func TestListEvents_APIError(t *testing.T) {
	mockProvider := new(MockEventsProvider)
	repo := NewGoogleCalendarRepositoryWithProvider(mockProvider, "test-calendar", sgt())

	mockProvider.On("ListEvents", mock.Anything, "test-calendar", mock.AnythingOfType("string"), mock.AnythingOfType("string")).
		Return(nil, errors.New("API error"))

	_, err := repo.ListEvents(context.Background(), time.Time{}, time.Time{})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "カレンダーイベントの取得に失敗しました")
	mockProvider.AssertExpectations(t)
}

// --- 登録・更新・削除 ---

func TestCreateEvent(t *testing.T) {
	loc := sgt()
	mockProvider := new(MockEventsProvider)
	repo := NewGoogleCalendarRepositoryWithProvider(mockProvider, "test-calendar", loc)

	input := domain.Event{
		ID:        "abc-123",
		Title:     "面談",
		StartTime: time.Date(2025, 8, 29, 10, 0, 0, 0, loc),
		EndTime:   time.Date(2025, 8, 29, 11, 0, 0, 0, loc),
	}
	inserted := &calendar.Event{
		Id:      "abc123",
		Summary: "面談",
		Start:   &calendar.EventDateTime{DateTime: "2025-08-29T10:00:00+08:00"},
		End:     &calendar.EventDateTime{DateTime: "2025-08-29T11:00:00+08:00"},
	}
	mockProvider.On("InsertEvent", mock.Anything, "test-calendar", mock.MatchedBy(func(e *calendar.Event) bool {
		return e.Id == "abc123" && e.Summary == "面談"
	})).Return(inserted, nil)

	created, err := repo.CreateEvent(context.Background(), input)
	require.NoError(t, err)
	assert.Equal(t, "abc123", created.ID)
	assert.True(t, input.StartTime.Equal(created.StartTime))
	mockProvider.AssertExpectations(t)
}

func TestGetEvent_NotFound(t *testing.T) {
	mockProvider := new(MockEventsProvider)
	repo := NewGoogleCalendarRepositoryWithProvider(mockProvider, "test-calendar", sgt())

	mockProvider.On("GetEvent", mock.Anything, "test-calendar", "missing").
		Return(nil, &googleapi.Error{Code: http.StatusNotFound, Message: "Not Found"})

	_, err := repo.GetEvent(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrEventNotFound)
}

func TestUpdateEvent_APIError(t *testing.T) {
	mockProvider := new(MockEventsProvider)
	repo := NewGoogleCalendarRepositoryWithProvider(mockProvider, "test-calendar", sgt())

	mockProvider.On("UpdateEvent", mock.Anything, "test-calendar", "id1", mock.Anything).
		Return(nil, &googleapi.Error{Code: http.StatusForbidden, Message: "Forbidden"})

	_, err := repo.UpdateEvent(context.Background(), domain.Event{ID: "id1", Title: "x"})
	assert.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrEventNotFound)
	assert.Contains(t, err.Error(), "カレンダーイベントの更新に失敗しました")
}

func TestDeleteEvent(t *testing.T) {
	mockProvider := new(MockEventsProvider)
	repo := NewGoogleCalendarRepositoryWithProvider(mockProvider, "test-calendar", sgt())

	mockProvider.On("DeleteEvent", mock.Anything, "test-calendar", "id1").Return(nil)
	mockProvider.On("DeleteEvent", mock.Anything, "test-calendar", "gone").
		Return(&googleapi.Error{Code: http.StatusGone, Message: "Deleted"})

	require.NoError(t, repo.DeleteEvent(context.Background(), "id1"))
	assert.ErrorIs(t, repo.DeleteEvent(context.Background(), "gone"), domain.ErrEventNotFound)
}
