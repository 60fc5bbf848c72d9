package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/k-negishi/kairos-scheduler/internal/domain"
)

// dateTimeLayout 通知メッセージでの日時表記
const dateTimeLayout = "2006-01-02 15:04"

// LINENotifier LINE Messaging APIを使用したNotifierの実装
type LINENotifier struct {
	channelAccessToken string
	userID             string
	httpClient         *http.Client
	endpoint           string
	timezone           *time.Location
}

// lineMessage LINE APIに送信するメッセージ構造体
type lineMessage struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// linePushRequest LINE Push APIのリクエスト構造体
type linePushRequest struct {
	To       string        `json:"to"`
	Messages []lineMessage `json:"messages"`
}

// lineErrorResponse LINE APIのエラーレスポンス構造体
type lineErrorResponse struct {
	Message string `json:"message"`
	Details []struct {
		Message  string `json:"message"`
		Property string `json:"property"`
	} `json:"details"`
}

// NewLINENotifier LINE通知クライアントを作成
// 通知に載せる日時は loc で表示する
func NewLINENotifier(channelAccessToken, userID string, loc *time.Location) *LINENotifier {
	if loc == nil {
		loc = time.UTC
	}
	return &LINENotifier{
		channelAccessToken: channelAccessToken,
		userID:             userID,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		endpoint: "https://api.line.me/v2/bot/message/push",
		timezone: loc,
	}
}

// NotifyScheduled 予定登録の判定結果をLINEで通知
func (n *LINENotifier) NotifyScheduled(ctx context.Context, result domain.ScheduleResult) error {
	return n.sendPushMessage(ctx, n.buildScheduledMessage(result))
}

// SendAgenda 今日と明日の予定をLINEで通知
func (n *LINENotifier) SendAgenda(ctx context.Context, today domain.DateKey, todayOccurrences, tomorrowOccurrences []domain.DayOccurrence) error {
	return n.sendPushMessage(ctx, n.buildAgendaMessage(today, todayOccurrences, tomorrowOccurrences))
}

// buildScheduledMessage 判定結果のメッセージを構築
func (n *LINENotifier) buildScheduledMessage(result domain.ScheduleResult) string {
	var b strings.Builder
	event := result.Event

	switch {
	case result.Created:
		b.WriteString("✅ 予定を登録しました\n\n")
	case result.Clash:
		b.WriteString("⚠️ 既存の予定と重なるため登録しませんでした\n\n")
	default:
		b.WriteString("✅ この時間は空いています\n\n")
	}

	b.WriteString(fmt.Sprintf("🔸 %s\n", event.Title))
	b.WriteString(fmt.Sprintf("   🕒 %s\n", n.formatRange(event.StartTime, event.EndTime)))
	if event.Location != "" {
		b.WriteString(fmt.Sprintf("   📍 %s\n", event.Location))
	}

	if result.Suggestion != nil {
		b.WriteString(fmt.Sprintf("\n💡 空き枠の提案: %s\n", n.formatRange(result.Suggestion.Start, result.Suggestion.End)))
	}

	return b.String()
}

// buildAgendaMessage 予定通知用のメッセージを構築
func (n *LINENotifier) buildAgendaMessage(today domain.DateKey, todayOccurrences, tomorrowOccurrences []domain.DayOccurrence) string {
	var messageBuilder strings.Builder

	messageBuilder.WriteString("Kairos Scheduler\n\n")

	n.appendDay(&messageBuilder, "本日", today, todayOccurrences)
	messageBuilder.WriteString("\n\n")
	n.appendDay(&messageBuilder, "翌日", today.AddDays(1), tomorrowOccurrences)

	return messageBuilder.String()
}

// appendDay 1日分の見出しと予定を追加
func (n *LINENotifier) appendDay(builder *strings.Builder, label string, date domain.DateKey, occurrences []domain.DayOccurrence) {
	day := date.StartIn(n.timezone)
	dow := getWeekdayJapanese(day.Weekday())
	if len(occurrences) == 0 {
		builder.WriteString(fmt.Sprintf("%s %s(%s): 予定なし\n", label, day.Format("1/2"), dow))
		return
	}

	builder.WriteString(fmt.Sprintf("%s %s(%s) (%d件):\n", label, day.Format("1/2"), dow, len(occurrences)))
	for _, occ := range occurrences {
		n.appendOccurrenceToMessage(builder, occ)
	}
}

// appendOccurrenceToMessage 1日分に切り出したイベントをメッセージに追加
// 終日イベントと、その日を丸ごと占める複数日イベントは「終日」と表示する
func (n *LINENotifier) appendOccurrenceToMessage(builder *strings.Builder, occ domain.DayOccurrence) {
	event := occ.Event
	wholeDay := !event.StartTime.After(occ.Date.StartIn(n.timezone)) &&
		!event.EndTime.Before(occ.Date.EndIn(n.timezone))

	if event.IsAllDay || wholeDay {
		builder.WriteString(fmt.Sprintf("🔸 %s (終日)\n", event.Title))
	} else {
		timeRange := fmt.Sprintf("%s〜%s",
			event.StartTime.In(n.timezone).Format("15:04"),
			event.EndTime.In(n.timezone).Format("15:04"))
		builder.WriteString(fmt.Sprintf("🔸 %s %s\n", timeRange, event.Title))
	}

	// 場所情報があれば追加
	if event.Location != "" {
		builder.WriteString(fmt.Sprintf("   📍 %s\n", event.Location))
	}
}

// formatRange 開始〜終了を通知用の表記にする
func (n *LINENotifier) formatRange(start, end time.Time) string {
	return fmt.Sprintf("%s〜%s",
		start.In(n.timezone).Format(dateTimeLayout),
		end.In(n.timezone).Format(dateTimeLayout))
}

// sendPushMessage LINE Push APIでメッセージを送信
func (n *LINENotifier) sendPushMessage(ctx context.Context, message string) error {
	// リクエストボディを作成
	pushRequest := linePushRequest{
		To: n.userID,
		Messages: []lineMessage{
			{
				Type: "text",
				Text: message,
			},
		},
	}

	requestBody, err := json.Marshal(pushRequest)
	if err != nil {
		return fmt.Errorf("リクエストボディのJSON変換に失敗しました: %v", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, bytes.NewBuffer(requestBody))
	if err != nil {
		return fmt.Errorf("HTTPリクエストの作成に失敗しました: %v", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", n.channelAccessToken))

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("LINE APIリクエストの送信に失敗しました: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// エラーレスポンスの詳細を取得
		var errorResponse lineErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&errorResponse); err != nil {
			return fmt.Errorf("LINE API呼び出しが失敗しました (Status: %d, レスポンス解析不可: %v)", resp.StatusCode, err)
		}

		errorDetails := errorResponse.Message
		if len(errorResponse.Details) > 0 {
			errorDetails += fmt.Sprintf(" (詳細: %s)", errorResponse.Details[0].Message)
		}

		return fmt.Errorf("LINE API呼び出しが失敗しました (Status: %d): %s", resp.StatusCode, errorDetails)
	}

	return nil
}

// getWeekdayJapanese 曜日を日本語に変換
func getWeekdayJapanese(weekday time.Weekday) string {
	weekdays := map[time.Weekday]string{
		time.Sunday:    "日",
		time.Monday:    "月",
		time.Tuesday:   "火",
		time.Wednesday: "水",
		time.Thursday:  "木",
		time.Friday:    "金",
		time.Saturday:  "土",
	}
	return weekdays[weekday]
}
