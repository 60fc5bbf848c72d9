package domain

import (
	"fmt"
	"time"
)

const dateKeyLayout = "2006-01-02"

// DateKey 基準タイムゾーンにおける暦日（YYYY-MM-DD）
type DateKey struct {
	Year  int
	Month time.Month
	Day   int
}

// DateKeyOf 指定ロケーションで見た時刻 t の暦日を返す
func DateKeyOf(t time.Time, loc *time.Location) DateKey {
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := t.In(loc).Date()
	return DateKey{Year: y, Month: m, Day: d}
}

// ParseDateKey YYYY-MM-DD 形式の文字列を解析
func ParseDateKey(s string) (DateKey, error) {
	t, err := time.Parse(dateKeyLayout, s)
	if err != nil {
		return DateKey{}, fmt.Errorf("日付の解析に失敗しました: %w", err)
	}
	return DateKey{Year: t.Year(), Month: t.Month(), Day: t.Day()}, nil
}

// StartIn その日の 00:00:00.000
func (k DateKey) StartIn(loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return time.Date(k.Year, k.Month, k.Day, 0, 0, 0, 0, loc)
}

// EndIn その日の 23:59:59.999
func (k DateKey) EndIn(loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return time.Date(k.Year, k.Month, k.Day, 23, 59, 59, int(999*time.Millisecond), loc)
}

// AddDays 暦日で n 日後（負数なら前）の日付
func (k DateKey) AddDays(n int) DateKey {
	t := time.Date(k.Year, k.Month, k.Day+n, 0, 0, 0, 0, time.UTC)
	return DateKey{Year: t.Year(), Month: t.Month(), Day: t.Day()}
}

// Before k が other より前の日付か
func (k DateKey) Before(other DateKey) bool {
	if k.Year != other.Year {
		return k.Year < other.Year
	}
	if k.Month != other.Month {
		return k.Month < other.Month
	}
	return k.Day < other.Day
}

func (k DateKey) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", k.Year, int(k.Month), k.Day)
}

// MarshalText JSONのマップキーとしても YYYY-MM-DD で出力する
func (k DateKey) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText YYYY-MM-DD を読み込む
func (k *DateKey) UnmarshalText(b []byte) error {
	parsed, err := ParseDateKey(string(b))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}
