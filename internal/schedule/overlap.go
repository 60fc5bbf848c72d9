package schedule

import (
	"time"

	"github.com/k-negishi/kairos-scheduler/internal/domain"
)

// Overlaps 半開区間 [aStart, aEnd) と [bStart, bEnd) が重なるか
// 端点が接しているだけの場合は重ならない
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && aEnd.After(bStart)
}

// HasOverlap 候補イベントが既存イベントのいずれかと重なるか（バッファなし）
func HasOverlap(candidate domain.Event, existing []domain.Event) (bool, error) {
	if err := domain.ValidateInterval(candidate); err != nil {
		return false, err
	}
	for _, e := range existing {
		if Overlaps(candidate.StartTime, candidate.EndTime, e.StartTime, e.EndTime) {
			return true, nil
		}
	}
	return false, nil
}
