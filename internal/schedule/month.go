package schedule

import (
	"time"

	"github.com/k-negishi/kairos-scheduler/internal/domain"
)

// GridDay 月表示グリッドの1マス
type GridDay struct {
	Date    domain.DateKey
	InMonth bool
}

// BuildMonthGrid 指定月の日付に前後の月の日付を補い、週単位（7の倍数）に揃えたグリッドを返す。
// 毎回新しいスライスを生成し、呼び出し元のデータは変更しない。
func BuildMonthGrid(year int, month time.Month, weekStart time.Weekday) []GridDay {
	first := domain.DateKey{Year: year, Month: month, Day: 1}
	firstDay := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	daysInMonth := firstDay.AddDate(0, 1, -1).Day()

	leading := (int(firstDay.Weekday()) - int(weekStart) + 7) % 7
	total := leading + daysInMonth
	if rem := total % 7; rem != 0 {
		total += 7 - rem
	}

	grid := make([]GridDay, 0, total)
	for i := 0; i < total; i++ {
		d := first.AddDays(i - leading)
		grid = append(grid, GridDay{
			Date:    d,
			InMonth: d.Year == year && d.Month == month,
		})
	}
	return grid
}

// Weeks グリッドを7日ごとの行に分割する
func Weeks(grid []GridDay) [][]GridDay {
	rows := make([][]GridDay, 0, (len(grid)+6)/7)
	for i := 0; i < len(grid); i += 7 {
		end := min(i+7, len(grid))
		rows = append(rows, grid[i:end:end])
	}
	return rows
}
