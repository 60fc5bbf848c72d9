package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/k-negishi/kairos-scheduler/internal/domain"
	"github.com/k-negishi/kairos-scheduler/internal/logger"
	"github.com/k-negishi/kairos-scheduler/internal/schedule"
)

// DayCell 月表示の1マス
type DayCell struct {
	Date        domain.DateKey         `json:"date"`
	InMonth     bool                   `json:"in_month"`
	Occurrences []domain.DayOccurrence `json:"occurrences"`
}

// MonthView 週ごとに並べた月表示
type MonthView struct {
	Year  int         `json:"year"`
	Month time.Month  `json:"month"`
	Weeks [][]DayCell `json:"weeks"`
}

// CalendarViewUseCase 月表示・日表示のユースケース
type CalendarViewUseCase struct {
	repo      EventRepository
	expander  *schedule.DayExpander
	weekStart time.Weekday
	log       logger.Logger
}

// NewCalendarViewUseCase ユースケースを生成
func NewCalendarViewUseCase(repo EventRepository, expander *schedule.DayExpander, weekStart time.Weekday, log logger.Logger) *CalendarViewUseCase {
	if log == nil {
		log = logger.NopLogger{}
	}
	return &CalendarViewUseCase{
		repo:      repo,
		expander:  expander,
		weekStart: weekStart,
		log:       log,
	}
}

// Month 指定月の表示を作成。前後月の埋め草の日にもイベントを載せる
func (uc *CalendarViewUseCase) Month(ctx context.Context, year int, month time.Month) (MonthView, error) {
	if month < time.January || month > time.December {
		return MonthView{}, fmt.Errorf("%w: 月は1〜12で指定してください (値: %d)", domain.ErrInvalidRequest, month)
	}

	grid := schedule.BuildMonthGrid(year, month, uc.weekStart)
	loc := uc.expander.Location()
	from := grid[0].Date.StartIn(loc)
	to := grid[len(grid)-1].Date.AddDays(1).StartIn(loc)

	byDay, err := uc.expandRange(ctx, from, to)
	if err != nil {
		return MonthView{}, err
	}

	view := MonthView{Year: year, Month: month}
	for _, week := range schedule.Weeks(grid) {
		row := make([]DayCell, 0, len(week))
		for _, d := range week {
			occurrences := byDay[d.Date]
			if occurrences == nil {
				occurrences = []domain.DayOccurrence{}
			}
			row = append(row, DayCell{Date: d.Date, InMonth: d.InMonth, Occurrences: occurrences})
		}
		view.Weeks = append(view.Weeks, row)
	}
	return view, nil
}

// Day 指定日のイベント一覧
func (uc *CalendarViewUseCase) Day(ctx context.Context, date domain.DateKey) ([]domain.DayOccurrence, error) {
	loc := uc.expander.Location()
	byDay, err := uc.expandRange(ctx, date.StartIn(loc), date.AddDays(1).StartIn(loc))
	if err != nil {
		return nil, err
	}
	if occurrences := byDay[date]; occurrences != nil {
		return occurrences, nil
	}
	return []domain.DayOccurrence{}, nil
}

func (uc *CalendarViewUseCase) expandRange(ctx context.Context, from, to time.Time) (map[domain.DateKey][]domain.DayOccurrence, error) {
	events, err := uc.repo.ListEvents(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("イベントの取得に失敗しました: %w", err)
	}
	byDay, err := uc.expander.Expand(dropInvalid(uc.log, events))
	if err != nil {
		return nil, fmt.Errorf("イベントの日別展開に失敗しました: %w", err)
	}
	return byDay, nil
}
