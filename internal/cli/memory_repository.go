package cli

import (
	"context"
	"time"

	"github.com/k-negishi/kairos-scheduler/internal/domain"
)

// memoryRepository ファイルから読んだ予定を保持するだけのリポジトリ
type memoryRepository struct {
	events []domain.Event
}

func newMemoryRepository(events []domain.Event) *memoryRepository {
	return &memoryRepository{events: events}
}

func (r *memoryRepository) ListEvents(_ context.Context, from, to time.Time) ([]domain.Event, error) {
	out := make([]domain.Event, 0, len(r.events))
	for _, e := range r.events {
		if !from.IsZero() && !e.EndTime.After(from) {
			continue
		}
		if !to.IsZero() && !e.StartTime.Before(to) {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func (r *memoryRepository) CreateEvent(_ context.Context, event domain.Event) (domain.Event, error) {
	if err := domain.ValidateForPersistence(event); err != nil {
		return domain.Event{}, err
	}
	r.events = append(r.events, event)
	return event, nil
}
