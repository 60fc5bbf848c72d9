package usecase

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/k-negishi/kairos-scheduler/internal/domain"
)

func TestEventService_Create(t *testing.T) {
	t.Run("正常系: IDを採番して登録", func(t *testing.T) {
		store := new(MockEventStore)
		svc := NewEventService(store)
		svc.newID = func() string { return "new-id" }

		input := event("", "ランチ", at(12, 0), at(13, 0))
		expected := input
		expected.ID = "new-id"
		store.On("CreateEvent", mock.Anything, expected).Return(expected, nil)

		created, err := svc.Create(context.Background(), input)
		require.NoError(t, err)
		assert.Equal(t, "new-id", created.ID)
		store.AssertExpectations(t)
	})

	t.Run("異常系: 必須項目なし", func(t *testing.T) {
		store := new(MockEventStore)
		svc := NewEventService(store)

		_, err := svc.Create(context.Background(), domain.Event{Title: "開始なし"})
		assert.ErrorIs(t, err, domain.ErrInvalidEvent)
		store.AssertNotCalled(t, "CreateEvent", mock.Anything, mock.Anything)
	})
}

func TestEventService_Get(t *testing.T) {
	t.Run("正常系", func(t *testing.T) {
		store := new(MockEventStore)
		svc := NewEventService(store)
		e := event("id-1", "ランチ", at(12, 0), at(13, 0))
		store.On("GetEvent", mock.Anything, "id-1").Return(e, nil)

		got, err := svc.Get(context.Background(), "id-1")
		require.NoError(t, err)
		assert.Equal(t, e, got)
	})

	t.Run("異常系: 存在しない", func(t *testing.T) {
		store := new(MockEventStore)
		svc := NewEventService(store)
		store.On("GetEvent", mock.Anything, "missing").
			Return(domain.Event{}, fmt.Errorf("%w: id=missing", domain.ErrEventNotFound))

		_, err := svc.Get(context.Background(), "missing")
		assert.ErrorIs(t, err, domain.ErrEventNotFound)
	})

	t.Run("異常系: IDなし", func(t *testing.T) {
		svc := NewEventService(new(MockEventStore))
		_, err := svc.Get(context.Background(), "")
		assert.ErrorIs(t, err, domain.ErrInvalidRequest)
	})
}

func TestEventService_List(t *testing.T) {
	store := new(MockEventStore)
	svc := NewEventService(store)
	events := []domain.Event{event("id-1", "ランチ", at(12, 0), at(13, 0))}
	store.On("ListEvents", mock.Anything, at(0, 0), at(23, 0)).Return(events, nil)

	got, err := svc.List(context.Background(), at(0, 0), at(23, 0))
	require.NoError(t, err)
	assert.Equal(t, events, got)

	_, err = svc.List(context.Background(), at(23, 0), at(0, 0))
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)
}

func TestEventService_Update(t *testing.T) {
	store := new(MockEventStore)
	svc := NewEventService(store)

	input := event("ignored", "ランチ（延長）", at(12, 0), at(14, 0))
	expected := input
	expected.ID = "id-1"
	store.On("UpdateEvent", mock.Anything, expected).Return(expected, nil)

	updated, err := svc.Update(context.Background(), "id-1", input)
	require.NoError(t, err)
	assert.Equal(t, "id-1", updated.ID)
	assert.Equal(t, 2*time.Hour, updated.Duration())

	_, err = svc.Update(context.Background(), "id-1", event("", "ランチ", at(14, 0), at(12, 0)))
	assert.ErrorIs(t, err, domain.ErrInvalidEvent)
	store.AssertNumberOfCalls(t, "UpdateEvent", 1)
}

func TestEventService_Delete(t *testing.T) {
	store := new(MockEventStore)
	svc := NewEventService(store)
	store.On("DeleteEvent", mock.Anything, "id-1").Return(nil)
	store.On("DeleteEvent", mock.Anything, "missing").Return(domain.ErrEventNotFound)

	require.NoError(t, svc.Delete(context.Background(), "id-1"))
	assert.ErrorIs(t, svc.Delete(context.Background(), "missing"), domain.ErrEventNotFound)
	assert.ErrorIs(t, svc.Delete(context.Background(), ""), domain.ErrInvalidRequest)
}
