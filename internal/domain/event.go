package domain

import "time"

// Event カレンダーイベントのドメインエンティティ
type Event struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Location    string    `json:"location,omitempty"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
	IsAllDay    bool      `json:"all_day"`
}

// Duration イベントの長さ
func (e Event) Duration() time.Duration {
	return e.EndTime.Sub(e.StartTime)
}

// Slot 空き枠の提案結果
type Slot struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Duration 空き枠の長さ
func (s Slot) Duration() time.Duration {
	return s.End.Sub(s.Start)
}

// DayOccurrence 1日分に切り出したイベント
// 描画ごとに生成され、永続化されない
type DayOccurrence struct {
	Date  DateKey `json:"date"`
	Event Event   `json:"event"`
}

// ScheduleResult 予定登録の判定結果
type ScheduleResult struct {
	// Event 判定対象のイベント（登録された場合は採番後のID付き）
	Event Event `json:"event"`
	// Clash 既存イベントと重なったか
	Clash bool `json:"clash"`
	// Created ストアに登録されたか
	Created bool `json:"created"`
	// Suggestion 重なった場合に提案する空き枠
	Suggestion *Slot `json:"suggestion,omitempty"`
}
