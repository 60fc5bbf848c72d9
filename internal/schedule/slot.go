package schedule

import (
	"fmt"
	"slices"
	"time"

	"github.com/k-negishi/kairos-scheduler/internal/domain"
)

// DefaultBuffer 既存イベントの前後に確保する既定の間隔
const DefaultBuffer = time.Hour

// Policy 空き枠探索の設定
type Policy struct {
	// Buffer 既存イベントの前後それぞれに空ける時間（0以上）
	Buffer time.Duration

	// SearchBeforeFirst 最初の既存イベントより前の隙間も探索するか
	// false の場合は最初のイベントより前を提案しない
	SearchBeforeFirst bool

	// NotBefore SearchBeforeFirst 有効時の探索下限。ゼロ値なら候補の開始時刻
	NotBefore time.Time
}

// DefaultPolicy バッファ1時間、先頭前の探索なし
func DefaultPolicy() Policy {
	return Policy{Buffer: DefaultBuffer}
}

// Validate 設定値の検証
func (p Policy) Validate() error {
	if p.Buffer < 0 {
		return fmt.Errorf("%w: バッファは0以上である必要があります (buffer=%s)", domain.ErrInvalidConfig, p.Buffer)
	}
	return nil
}

// FindNextAvailableSlot 候補と同じ長さで、既存イベントのバッファ付き区間と
// 重ならない最初の枠を返す。
//
// 候補がどのバッファ付き区間とも重ならなければ候補の区間をそのまま返す。
// 重なる場合は開始時刻順に並べた既存イベント間の隙間を先頭から調べ、
// 長さが足りる最初の隙間の先頭を返す。該当がなければ最後のイベントの
// バッファ終端の直後を返すため、探索が失敗することはない。
func FindNextAvailableSlot(candidate domain.Event, existing []domain.Event, policy Policy) (domain.Slot, error) {
	if err := domain.ValidateInterval(candidate); err != nil {
		return domain.Slot{}, err
	}
	for _, e := range existing {
		if err := domain.ValidateInterval(e); err != nil {
			return domain.Slot{}, err
		}
	}
	if err := policy.Validate(); err != nil {
		return domain.Slot{}, err
	}

	duration := candidate.Duration()
	requested := domain.Slot{Start: candidate.StartTime, End: candidate.StartTime.Add(duration)}

	if len(existing) == 0 {
		return requested, nil
	}
	if !conflictsWithBuffered(requested, existing, policy.Buffer) {
		return requested, nil
	}

	// 呼び出し元のスライスは並べ替えない
	sorted := slices.Clone(existing)
	slices.SortStableFunc(sorted, func(a, b domain.Event) int {
		return a.StartTime.Compare(b.StartTime)
	})

	if policy.SearchBeforeFirst {
		lower := policy.NotBefore
		if lower.IsZero() {
			lower = candidate.StartTime
		}
		firstBufferedStart := sorted[0].StartTime.Add(-policy.Buffer)
		if firstBufferedStart.Sub(lower) >= duration {
			return domain.Slot{Start: lower, End: lower.Add(duration)}, nil
		}
	}

	// latestEnd は走査済みイベントの終了時刻の最大値。
	// 長いイベントが後続のイベントを内包していても隙間に食い込まない。
	latestEnd := sorted[0].EndTime
	for i := 0; i < len(sorted)-1; i++ {
		if sorted[i].EndTime.After(latestEnd) {
			latestEnd = sorted[i].EndTime
		}
		gapStart := latestEnd.Add(policy.Buffer)
		gapEnd := sorted[i+1].StartTime.Add(-policy.Buffer)
		if gapEnd.Sub(gapStart) >= duration {
			return domain.Slot{Start: gapStart, End: gapStart.Add(duration)}, nil
		}
	}
	if last := sorted[len(sorted)-1].EndTime; last.After(latestEnd) {
		latestEnd = last
	}

	start := latestEnd.Add(policy.Buffer)
	return domain.Slot{Start: start, End: start.Add(duration)}, nil
}

// conflictsWithBuffered 区間がいずれかのバッファ付き区間と重なるか
func conflictsWithBuffered(s domain.Slot, existing []domain.Event, buffer time.Duration) bool {
	for _, e := range existing {
		if Overlaps(s.Start, s.End, e.StartTime.Add(-buffer), e.EndTime.Add(buffer)) {
			return true
		}
	}
	return false
}
