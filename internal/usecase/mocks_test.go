package usecase

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/k-negishi/kairos-scheduler/internal/domain"
)

// MockEventStore は EventStore のテスト用モック
type MockEventStore struct {
	mock.Mock
}

func (m *MockEventStore) ListEvents(ctx context.Context, from, to time.Time) ([]domain.Event, error) {
	args := m.Called(ctx, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Event), args.Error(1)
}

func (m *MockEventStore) CreateEvent(ctx context.Context, event domain.Event) (domain.Event, error) {
	args := m.Called(ctx, event)
	return args.Get(0).(domain.Event), args.Error(1)
}

func (m *MockEventStore) GetEvent(ctx context.Context, id string) (domain.Event, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.Event), args.Error(1)
}

func (m *MockEventStore) UpdateEvent(ctx context.Context, event domain.Event) (domain.Event, error) {
	args := m.Called(ctx, event)
	return args.Get(0).(domain.Event), args.Error(1)
}

func (m *MockEventStore) DeleteEvent(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockLockingStore は ExclusiveRunner も実装するストアのモック
type MockLockingStore struct {
	MockEventStore
}

func (m *MockLockingStore) RunExclusive(ctx context.Context, fn func(ctx context.Context) error) error {
	args := m.Called(ctx)
	if err := args.Error(0); err != nil {
		return err
	}
	return fn(ctx)
}

// MockNotifier は Notifier のテスト用モック
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) NotifyScheduled(ctx context.Context, result domain.ScheduleResult) error {
	args := m.Called(ctx, result)
	return args.Error(0)
}

// at 2025-08-29 UTC の指定時刻
func at(hour, minute int) time.Time {
	return time.Date(2025, 8, 29, hour, minute, 0, 0, time.UTC)
}

func event(id, title string, start, end time.Time) domain.Event {
	return domain.Event{ID: id, Title: title, StartTime: start, EndTime: end}
}

// MockAgendaNotifier は AgendaNotifier のテスト用モック
type MockAgendaNotifier struct {
	mock.Mock
}

func (m *MockAgendaNotifier) SendAgenda(ctx context.Context, today domain.DateKey, todayOccurrences, tomorrowOccurrences []domain.DayOccurrence) error {
	args := m.Called(ctx, today, todayOccurrences, tomorrowOccurrences)
	return args.Error(0)
}
