package schedule

import (
	"time"

	"github.com/k-negishi/kairos-scheduler/internal/domain"
)

// DayExpander 複数日にまたがるイベントを暦日ごとの DayOccurrence に分割する
// すべての日付判定は location で行う
type DayExpander struct {
	location *time.Location
}

// NewDayExpander 基準タイムゾーンを指定して DayExpander を作成（nil なら UTC）
func NewDayExpander(loc *time.Location) *DayExpander {
	if loc == nil {
		loc = time.UTC
	}
	return &DayExpander{location: loc}
}

// Location 日付判定に使うタイムゾーン
func (x *DayExpander) Location() *time.Location {
	return x.location
}

// Expand イベントを暦日ごとに展開する。
// 同じ日付のリスト内では入力順を保つ。
func (x *DayExpander) Expand(events []domain.Event) (map[domain.DateKey][]domain.DayOccurrence, error) {
	out := make(map[domain.DateKey][]domain.DayOccurrence)
	for _, ev := range events {
		occurrences, err := x.ExpandEvent(ev)
		if err != nil {
			return nil, err
		}
		for _, occ := range occurrences {
			out[occ.Date] = append(out[occ.Date], occ)
		}
	}
	return out, nil
}

// ExpandEvent 1件のイベントを開始日から終了日まで（両端含む）の日ごとに分割
func (x *DayExpander) ExpandEvent(ev domain.Event) ([]domain.DayOccurrence, error) {
	if err := domain.ValidateInterval(ev); err != nil {
		return nil, err
	}

	first := domain.DateKeyOf(ev.StartTime, x.location)
	last := domain.DateKeyOf(ev.EndTime, x.location)
	// ちょうど 00:00 に終わる場合、その日には長さ0の区間しか残らないので前日で打ち切る
	if last != first && ev.EndTime.Equal(last.StartIn(x.location)) {
		last = last.AddDays(-1)
	}

	// 1日で完結するイベントはそのまま返す
	if first == last {
		return []domain.DayOccurrence{{Date: first, Event: ev}}, nil
	}

	var out []domain.DayOccurrence
	for day := first; !last.Before(day); day = day.AddDays(1) {
		occ := ev
		switch day {
		case first:
			occ.EndTime = day.EndIn(x.location)
		case last:
			occ.StartTime = day.StartIn(x.location)
		default:
			occ.StartTime = day.StartIn(x.location)
			occ.EndTime = day.EndIn(x.location)
		}
		out = append(out, domain.DayOccurrence{Date: day, Event: occ})
	}
	return out, nil
}
