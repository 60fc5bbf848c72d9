package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/k-negishi/kairos-scheduler/internal/domain"
	"github.com/k-negishi/kairos-scheduler/internal/logger"
	"github.com/k-negishi/kairos-scheduler/internal/schedule"
)

// ScheduleEventUseCase 予定登録ユースケース
// 重なりがなければ登録し、重なる場合は登録せずに空き枠を提案する
type ScheduleEventUseCase struct {
	mu       sync.Mutex
	repo     EventRepository
	notifier Notifier
	policy   schedule.Policy
	log      logger.Logger

	now   Clock
	newID func() string
}

// NewScheduleEventUseCase ユースケースを生成
// notifier は nil でもよい（通知しない）
func NewScheduleEventUseCase(repo EventRepository, notifier Notifier, policy schedule.Policy, log logger.Logger) *ScheduleEventUseCase {
	if log == nil {
		log = logger.NopLogger{}
	}
	return &ScheduleEventUseCase{
		repo:     repo,
		notifier: notifier,
		policy:   policy,
		log:      log,
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

// Execute 候補イベントを判定し、空いていれば登録する
//
// 判定から登録までは1件ずつ直列に実行する。リポジトリが ExclusiveRunner を
// 実装している場合はストア側のロックも取得する。
func (uc *ScheduleEventUseCase) Execute(ctx context.Context, candidate domain.Event) (domain.ScheduleResult, error) {
	if err := domain.ValidateForPersistence(candidate); err != nil {
		return domain.ScheduleResult{}, err
	}

	uc.mu.Lock()
	defer uc.mu.Unlock()

	var result domain.ScheduleResult
	decide := func(ctx context.Context) error {
		r, err := uc.decide(ctx, candidate)
		if err != nil {
			return err
		}
		result = r
		return nil
	}

	var err error
	if runner, ok := uc.repo.(ExclusiveRunner); ok {
		err = runner.RunExclusive(ctx, decide)
	} else {
		err = decide(ctx)
	}
	if err != nil {
		return domain.ScheduleResult{}, err
	}

	if result.Created {
		uc.log.Infof("イベントを登録しました: id=%s title=%s", result.Event.ID, result.Event.Title)
	} else {
		uc.log.Infof("既存イベントと重なるため空き枠を提案しました: title=%s start=%s",
			candidate.Title, result.Suggestion.Start.Format(time.RFC3339))
	}

	// 判定結果は確定しているので通知の失敗は返さない
	if uc.notifier != nil {
		if err := uc.notifier.NotifyScheduled(ctx, result); err != nil {
			uc.log.Errorf("通知の送信に失敗しました: %v", err)
		}
	}

	return result, nil
}

func (uc *ScheduleEventUseCase) decide(ctx context.Context, candidate domain.Event) (domain.ScheduleResult, error) {
	existing, err := uc.repo.ListEvents(ctx, time.Time{}, time.Time{})
	if err != nil {
		return domain.ScheduleResult{}, fmt.Errorf("既存イベントの取得に失敗しました: %w", err)
	}
	existing = dropInvalid(uc.log, existing)

	result, err := evaluate(candidate, existing, uc.policy, uc.now())
	if err != nil {
		return domain.ScheduleResult{}, err
	}
	if result.Clash {
		return result, nil
	}

	if candidate.ID == "" {
		candidate.ID = uc.newID()
	}
	created, err := uc.repo.CreateEvent(ctx, candidate)
	if err != nil {
		return domain.ScheduleResult{}, fmt.Errorf("イベントの登録に失敗しました: %w", err)
	}
	return domain.ScheduleResult{Event: created, Created: true}, nil
}

// evaluate 重なり判定と、重なる場合の空き枠探索
func evaluate(candidate domain.Event, existing []domain.Event, policy schedule.Policy, now time.Time) (domain.ScheduleResult, error) {
	clash, err := schedule.HasOverlap(candidate, existing)
	if err != nil {
		return domain.ScheduleResult{}, err
	}
	if !clash {
		return domain.ScheduleResult{Event: candidate}, nil
	}

	// 先頭前を探す場合は「今からバッファ分後」より前は提案しない
	if policy.SearchBeforeFirst && policy.NotBefore.IsZero() {
		policy.NotBefore = now.Add(policy.Buffer)
	}
	slot, err := schedule.FindNextAvailableSlot(candidate, existing, policy)
	if err != nil {
		return domain.ScheduleResult{}, err
	}
	return domain.ScheduleResult{Event: candidate, Clash: true, Suggestion: &slot}, nil
}

// dropInvalid 開始・終了が不正な既存イベントを警告付きで除外
func dropInvalid(log logger.Logger, events []domain.Event) []domain.Event {
	valid := make([]domain.Event, 0, len(events))
	for _, e := range events {
		if err := domain.ValidateInterval(e); err != nil {
			log.Warnf("不正なイベントをスキップしました: %v", err)
			continue
		}
		valid = append(valid, e)
	}
	return valid
}
