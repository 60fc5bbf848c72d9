//go:build integration

package gateway

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/k-negishi/kairos-scheduler/internal/config"
	"github.com/k-negishi/kairos-scheduler/internal/logger"
)

func TestGoogleCalendarListEvents_Integration(t *testing.T) {
	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("インテグレーションテストの実行には.envファイルに設定された有効な認証情報が必要です: %v", err)
	}
	if cfg.GoogleCredentials == "" {
		t.Skip("GOOGLE_CREDENTIALSが設定されていないためスキップします")
	}
	loc, err := cfg.Location()
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	repo, err := NewGoogleCalendarRepository(ctx, []byte(cfg.GoogleCredentials), cfg.CalendarID, loc, logger.NopLogger{})
	require.NoError(t, err, "カレンダーのクライアント作成に失敗しました")

	t.Run("Google Calendarから今日の予定を取得する", func(t *testing.T) {
		// 結果はカレンダーの状態に依存するため、API呼び出しの成否と区間の整合だけを確認する
		now := time.Now().In(loc)
		from := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)
		to := from.AddDate(0, 0, 1)

		events, err := repo.ListEvents(ctx, from, to)
		assert.NoError(t, err, "ListEventsで予期せぬエラーが発生しました")
		for _, e := range events {
			assert.True(t, e.StartTime.Before(e.EndTime), "id=%s", e.ID)
		}
	})
}
