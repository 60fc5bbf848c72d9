package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/k-negishi/kairos-scheduler/internal/domain"
	"github.com/k-negishi/kairos-scheduler/internal/logger"
	"github.com/k-negishi/kairos-scheduler/internal/schedule"
)

// CheckAvailabilityUseCase 登録せずに重なりと空き枠だけを確認する
type CheckAvailabilityUseCase struct {
	repo   EventRepository
	policy schedule.Policy
	log    logger.Logger
	now    Clock
}

// NewCheckAvailabilityUseCase ユースケースを生成
func NewCheckAvailabilityUseCase(repo EventRepository, policy schedule.Policy, log logger.Logger) *CheckAvailabilityUseCase {
	if log == nil {
		log = logger.NopLogger{}
	}
	return &CheckAvailabilityUseCase{
		repo:   repo,
		policy: policy,
		log:    log,
		now:    time.Now,
	}
}

// Execute 候補の区間が空いているかを判定する。結果の Created は常に false
func (uc *CheckAvailabilityUseCase) Execute(ctx context.Context, candidate domain.Event) (domain.ScheduleResult, error) {
	if err := domain.ValidateInterval(candidate); err != nil {
		return domain.ScheduleResult{}, err
	}

	existing, err := uc.repo.ListEvents(ctx, time.Time{}, time.Time{})
	if err != nil {
		return domain.ScheduleResult{}, fmt.Errorf("既存イベントの取得に失敗しました: %w", err)
	}

	return evaluate(candidate, dropInvalid(uc.log, existing), uc.policy, uc.now())
}
