package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/k-negishi/kairos-scheduler/internal/domain"
)

// EventService イベントのCRUD
type EventService struct {
	store EventStore
	newID func() string
}

// NewEventService サービスを生成
func NewEventService(store EventStore) *EventService {
	return &EventService{store: store, newID: uuid.NewString}
}

// Get IDを指定してイベントを取得
func (s *EventService) Get(ctx context.Context, id string) (domain.Event, error) {
	if id == "" {
		return domain.Event{}, fmt.Errorf("%w: IDは必須です", domain.ErrInvalidRequest)
	}
	return s.store.GetEvent(ctx, id)
}

// List [from, to) と重なるイベントを取得
func (s *EventService) List(ctx context.Context, from, to time.Time) ([]domain.Event, error) {
	if !from.IsZero() && !to.IsZero() && !from.Before(to) {
		return nil, fmt.Errorf("%w: 取得範囲の終了は開始より後である必要があります", domain.ErrInvalidRequest)
	}
	return s.store.ListEvents(ctx, from, to)
}

// Create 重なりを確認せずにイベントを登録
func (s *EventService) Create(ctx context.Context, event domain.Event) (domain.Event, error) {
	if err := domain.ValidateForPersistence(event); err != nil {
		return domain.Event{}, err
	}
	if event.ID == "" {
		event.ID = s.newID()
	}
	return s.store.CreateEvent(ctx, event)
}

// Update 指定IDのイベントを置き換える
func (s *EventService) Update(ctx context.Context, id string, event domain.Event) (domain.Event, error) {
	if id == "" {
		return domain.Event{}, fmt.Errorf("%w: IDは必須です", domain.ErrInvalidRequest)
	}
	event.ID = id
	if err := domain.ValidateForPersistence(event); err != nil {
		return domain.Event{}, err
	}
	return s.store.UpdateEvent(ctx, event)
}

// Delete 指定IDのイベントを削除
func (s *EventService) Delete(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("%w: IDは必須です", domain.ErrInvalidRequest)
	}
	return s.store.DeleteEvent(ctx, id)
}
