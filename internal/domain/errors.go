package domain

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrInvalidEvent 入力イベントの検証エラー
	ErrInvalidEvent = errors.New("イベントが不正です")
	// ErrInvalidConfig 設定値の検証エラー
	ErrInvalidConfig = errors.New("設定が不正です")
	// ErrEventNotFound 指定IDのイベントが存在しない
	ErrEventNotFound = errors.New("イベントが見つかりません")
	// ErrInvalidRequest イベント以外の入力値（年月・日付など）の検証エラー
	ErrInvalidRequest = errors.New("リクエストが不正です")
)

// ValidateInterval 開始時刻が終了時刻より前であることを確認
func ValidateInterval(e Event) error {
	if e.StartTime.IsZero() || e.EndTime.IsZero() {
		return fmt.Errorf("%w: 開始時刻と終了時刻は必須です (id=%s)", ErrInvalidEvent, e.ID)
	}
	if !e.StartTime.Before(e.EndTime) {
		return fmt.Errorf("%w: 終了時刻は開始時刻より後である必要があります (id=%s, start=%s, end=%s)",
			ErrInvalidEvent, e.ID, e.StartTime.Format(time.RFC3339), e.EndTime.Format(time.RFC3339))
	}
	return nil
}

// ValidateForPersistence 永続化前の必須項目チェック（タイトル・開始・終了）
func ValidateForPersistence(e Event) error {
	if e.Title == "" {
		return fmt.Errorf("%w: タイトルは必須です", ErrInvalidEvent)
	}
	return ValidateInterval(e)
}
