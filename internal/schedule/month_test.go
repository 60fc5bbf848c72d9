package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildMonthGrid(t *testing.T) {
	tests := []struct {
		name      string
		year      int
		month     time.Month
		weekStart time.Weekday
		length    int
		firstDate string
		lastDate  string
	}{
		// 2025-08-01 は金曜日
		{"日曜始まり", 2025, time.August, time.Sunday, 42, "2025-07-27", "2025-09-06"},
		{"月曜始まり", 2025, time.August, time.Monday, 35, "2025-07-28", "2025-08-31"},
		// 2026-02-01 は日曜日、28日でちょうど4週
		{"補完なし", 2026, time.February, time.Sunday, 28, "2026-02-01", "2026-02-28"},
		{"年をまたぐ", 2025, time.December, time.Sunday, 35, "2025-11-30", "2026-01-03"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			grid := BuildMonthGrid(tt.year, tt.month, tt.weekStart)
			require.Len(t, grid, tt.length)
			assert.Equal(t, tt.firstDate, grid[0].Date.String())
			assert.Equal(t, tt.lastDate, grid[len(grid)-1].Date.String())

			inMonth := 0
			for i, d := range grid {
				if d.InMonth {
					inMonth++
				}
				if i > 0 {
					assert.Equal(t, grid[i-1].Date.AddDays(1), d.Date)
				}
			}
			daysInMonth := time.Date(tt.year, tt.month+1, 0, 0, 0, 0, 0, time.UTC).Day()
			assert.Equal(t, daysInMonth, inMonth)
		})
	}
}

func TestWeeks(t *testing.T) {
	grid := BuildMonthGrid(2025, time.August, time.Sunday)
	rows := Weeks(grid)
	require.Len(t, rows, 6)
	for _, row := range rows {
		assert.Len(t, row, 7)
	}

	// 行に追記しても次の行は変わらない
	next := rows[1][0]
	rows[0] = append(rows[0], GridDay{})
	assert.Equal(t, next, rows[1][0])
}
