package usecase

import (
	"context"
	"fmt"

	"github.com/k-negishi/kairos-scheduler/internal/domain"
	"github.com/k-negishi/kairos-scheduler/internal/logger"
)

// NotifyAgendaUseCase 今日と明日の予定通知ユースケース
type NotifyAgendaUseCase struct {
	view     *CalendarViewUseCase
	notifier AgendaNotifier
	log      logger.Logger
}

// NewNotifyAgendaUseCase ユースケースを生成
func NewNotifyAgendaUseCase(view *CalendarViewUseCase, notifier AgendaNotifier, log logger.Logger) *NotifyAgendaUseCase {
	if log == nil {
		log = logger.NopLogger{}
	}
	return &NotifyAgendaUseCase{
		view:     view,
		notifier: notifier,
		log:      log,
	}
}

// Execute 今日と明日の予定を日別に取得し、通知を送信する
// 複数日にまたがる予定は各日に含まれる
func (uc *NotifyAgendaUseCase) Execute(ctx context.Context, today domain.DateKey) (skipped bool, err error) {
	todayOccurrences, err := uc.view.Day(ctx, today)
	if err != nil {
		uc.log.Errorf("今日の予定取得に失敗しました: %v", err)
		return false, err
	}

	tomorrowOccurrences, err := uc.view.Day(ctx, today.AddDays(1))
	if err != nil {
		uc.log.Errorf("明日の予定取得に失敗しました: %v", err)
		return false, err
	}

	// 予定が両日ともない場合はスキップ
	if len(todayOccurrences) == 0 && len(tomorrowOccurrences) == 0 {
		uc.log.Infof("予定なしのため通知をスキップしました: %s", today)
		return true, nil
	}

	if err := uc.notifier.SendAgenda(ctx, today, todayOccurrences, tomorrowOccurrences); err != nil {
		uc.log.Errorf("予定通知の送信に失敗しました: %v", err)
		return false, fmt.Errorf("予定通知の送信に失敗しました: %w", err)
	}

	return false, nil
}
