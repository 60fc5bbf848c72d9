package usecase

import (
	"context"
	"time"

	"github.com/k-negishi/kairos-scheduler/internal/domain"
)

// EventRepository イベントの取得と登録を行うポート
type EventRepository interface {
	// ListEvents [from, to) と重なるイベントを取得。ゼロ値の境界は無制限
	ListEvents(ctx context.Context, from, to time.Time) ([]domain.Event, error)
	CreateEvent(ctx context.Context, event domain.Event) (domain.Event, error)
}

// EventStore 個別イベントの参照・更新・削除まで扱うポート
type EventStore interface {
	EventRepository
	GetEvent(ctx context.Context, id string) (domain.Event, error)
	UpdateEvent(ctx context.Context, event domain.Event) (domain.Event, error)
	DeleteEvent(ctx context.Context, id string) error
}

// ExclusiveRunner ストア側のロックを取って処理を直列化できるリポジトリ
// 複数インスタンスから同時に登録される場合の重複予約を防ぐ
type ExclusiveRunner interface {
	RunExclusive(ctx context.Context, fn func(ctx context.Context) error) error
}

// Notifier 判定結果を通知するポート
type Notifier interface {
	NotifyScheduled(ctx context.Context, result domain.ScheduleResult) error
}

// Clock 現在時刻の取得
type Clock func() time.Time

// AgendaNotifier 今日と明日の予定をまとめて通知するポート
type AgendaNotifier interface {
	SendAgenda(ctx context.Context, today domain.DateKey, todayOccurrences, tomorrowOccurrences []domain.DayOccurrence) error
}
