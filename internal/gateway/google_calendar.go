package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/k-negishi/kairos-scheduler/internal/domain"
	"github.com/k-negishi/kairos-scheduler/internal/logger"
)

const (
	untitled   = "（無題）"
	dateLayout = "2006-01-02"
)

// EventsProvider Google Calendar API のイベント操作
// テストではモックに差し替える
type EventsProvider interface {
	ListEvents(ctx context.Context, calendarID, timeMin, timeMax string) ([]*calendar.Event, error)
	GetEvent(ctx context.Context, calendarID, eventID string) (*calendar.Event, error)
	InsertEvent(ctx context.Context, calendarID string, event *calendar.Event) (*calendar.Event, error)
	UpdateEvent(ctx context.Context, calendarID, eventID string, event *calendar.Event) (*calendar.Event, error)
	DeleteEvent(ctx context.Context, calendarID, eventID string) error
}

// GoogleCalendarRepository Google Calendar APIを使用したEventStoreの実装
type GoogleCalendarRepository struct {
	provider   EventsProvider
	calendarID string
	timezone   *time.Location
	log        logger.Logger
}

// NewGoogleCalendarRepository サービスアカウント認証でGoogle Calendarリポジトリを作成
func NewGoogleCalendarRepository(ctx context.Context, credentialsJSON []byte, calendarID string, loc *time.Location, log logger.Logger) (*GoogleCalendarRepository, error) {
	creds, err := google.CredentialsFromJSON(ctx, credentialsJSON, calendar.CalendarEventsScope)
	if err != nil {
		return nil, fmt.Errorf("google認証情報の読み込みに失敗しました: %v", err)
	}

	service, err := calendar.NewService(ctx, option.WithCredentials(creds))
	if err != nil {
		return nil, fmt.Errorf("google Calendar APIサービスの作成に失敗しました: %v", err)
	}

	repo := NewGoogleCalendarRepositoryWithProvider(&serviceProvider{service: service}, calendarID, loc)
	if log != nil {
		repo.log = log
	}
	return repo, nil
}

// NewGoogleCalendarRepositoryWithProvider プロバイダを指定してリポジトリを作成
func NewGoogleCalendarRepositoryWithProvider(provider EventsProvider, calendarID string, loc *time.Location) *GoogleCalendarRepository {
	if loc == nil {
		loc = time.UTC
	}
	return &GoogleCalendarRepository{
		provider:   provider,
		calendarID: calendarID,
		timezone:   loc,
		log:        logger.NopLogger{},
	}
}

// ListEvents [from, to) と重なる予定を取得。ゼロ値の境界は指定しない
func (r *GoogleCalendarRepository) ListEvents(ctx context.Context, from, to time.Time) ([]domain.Event, error) {
	var timeMin, timeMax string
	if !from.IsZero() {
		timeMin = from.Format(time.RFC3339)
	}
	if !to.IsZero() {
		timeMax = to.Format(time.RFC3339)
	}

	items, err := r.provider.ListEvents(ctx, r.calendarID, timeMin, timeMax)
	if err != nil {
		return nil, fmt.Errorf("カレンダーイベントの取得に失敗しました: %w", err)
	}

	events := make([]domain.Event, 0, len(items))
	for _, item := range items {
		event, err := r.convertToEvent(item)
		if err != nil {
			r.log.Warnf("イベントの変換をスキップしました: %v", err)
			continue
		}
		events = append(events, event)
	}
	return events, nil
}

// GetEvent IDを指定して予定を取得
func (r *GoogleCalendarRepository) GetEvent(ctx context.Context, id string) (domain.Event, error) {
	item, err := r.provider.GetEvent(ctx, r.calendarID, toCalendarEventID(id))
	if err != nil {
		return domain.Event{}, wrapNotFound(err, id, "カレンダーイベントの取得に失敗しました")
	}
	return r.convertToEvent(item)
}

// CreateEvent 予定を登録
// Google Calendar のIDは base32hex のみ使えるため、UUIDのハイフンは除いて登録する
func (r *GoogleCalendarRepository) CreateEvent(ctx context.Context, event domain.Event) (domain.Event, error) {
	inserted, err := r.provider.InsertEvent(ctx, r.calendarID, r.toCalendarEvent(event))
	if err != nil {
		return domain.Event{}, fmt.Errorf("カレンダーイベントの登録に失敗しました: %w", err)
	}
	return r.convertToEvent(inserted)
}

// UpdateEvent 予定を置き換える
func (r *GoogleCalendarRepository) UpdateEvent(ctx context.Context, event domain.Event) (domain.Event, error) {
	updated, err := r.provider.UpdateEvent(ctx, r.calendarID, toCalendarEventID(event.ID), r.toCalendarEvent(event))
	if err != nil {
		return domain.Event{}, wrapNotFound(err, event.ID, "カレンダーイベントの更新に失敗しました")
	}
	return r.convertToEvent(updated)
}

// DeleteEvent 予定を削除
func (r *GoogleCalendarRepository) DeleteEvent(ctx context.Context, id string) error {
	if err := r.provider.DeleteEvent(ctx, r.calendarID, toCalendarEventID(id)); err != nil {
		return wrapNotFound(err, id, "カレンダーイベントの削除に失敗しました")
	}
	return nil
}

// convertToEvent Google Calendar APIのイベントをドメインエンティティに変換
func (r *GoogleCalendarRepository) convertToEvent(event *calendar.Event) (domain.Event, error) {
	domainEvent := domain.Event{
		ID:          event.Id,
		Title:       event.Summary,
		Location:    event.Location,
		Description: event.Description,
	}

	// タイトルが空の場合は「（無題）」に設定
	if domainEvent.Title == "" {
		domainEvent.Title = untitled
	}

	if event.Start == nil || event.End == nil {
		return domain.Event{}, fmt.Errorf("開始時刻が設定されていません")
	}

	// 開始時刻の処理
	if event.Start.DateTime != "" {
		// 時刻指定ありのイベント
		startTime, err := time.Parse(time.RFC3339, event.Start.DateTime)
		if err != nil {
			return domain.Event{}, fmt.Errorf("開始時刻の解析に失敗しました: %v", err)
		}
		domainEvent.StartTime = startTime.In(r.timezone)
	} else if event.Start.Date != "" {
		// 終日イベントは基準タイムゾーンの0時から
		startTime, err := time.ParseInLocation(dateLayout, event.Start.Date, r.timezone)
		if err != nil {
			return domain.Event{}, fmt.Errorf("開始日の解析に失敗しました: %v", err)
		}
		domainEvent.StartTime = startTime
		domainEvent.IsAllDay = true
	} else {
		return domain.Event{}, fmt.Errorf("開始時刻が設定されていません")
	}

	// 終了時刻の処理
	if event.End.DateTime != "" {
		endTime, err := time.Parse(time.RFC3339, event.End.DateTime)
		if err != nil {
			return domain.Event{}, fmt.Errorf("終了時刻の解析に失敗しました: %v", err)
		}
		domainEvent.EndTime = endTime.In(r.timezone)
	} else if event.End.Date != "" {
		// 終日イベントの終了日は翌日0時（排他的）
		endTime, err := time.ParseInLocation(dateLayout, event.End.Date, r.timezone)
		if err != nil {
			return domain.Event{}, fmt.Errorf("終了日の解析に失敗しました: %v", err)
		}
		domainEvent.EndTime = endTime
	} else {
		return domain.Event{}, fmt.Errorf("終了時刻が設定されていません")
	}

	return domainEvent, nil
}

// toCalendarEvent ドメインエンティティをGoogle Calendar APIのイベントに変換
func (r *GoogleCalendarRepository) toCalendarEvent(event domain.Event) *calendar.Event {
	item := &calendar.Event{
		Id:          toCalendarEventID(event.ID),
		Summary:     event.Title,
		Location:    event.Location,
		Description: event.Description,
	}
	if event.IsAllDay {
		item.Start = &calendar.EventDateTime{Date: domain.DateKeyOf(event.StartTime, r.timezone).String()}
		item.End = &calendar.EventDateTime{Date: domain.DateKeyOf(event.EndTime, r.timezone).String()}
		return item
	}
	item.Start = &calendar.EventDateTime{
		DateTime: event.StartTime.In(r.timezone).Format(time.RFC3339),
		TimeZone: r.timezone.String(),
	}
	item.End = &calendar.EventDateTime{
		DateTime: event.EndTime.In(r.timezone).Format(time.RFC3339),
		TimeZone: r.timezone.String(),
	}
	return item
}

func toCalendarEventID(id string) string {
	return strings.ReplaceAll(strings.ToLower(id), "-", "")
}

// wrapNotFound 404/410 を ErrEventNotFound に変換
func wrapNotFound(err error, id, message string) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) && (apiErr.Code == http.StatusNotFound || apiErr.Code == http.StatusGone) {
		return fmt.Errorf("%w: id=%s", domain.ErrEventNotFound, id)
	}
	return fmt.Errorf("%s: %w", message, err)
}

// serviceProvider calendar.Service による EventsProvider の実装
type serviceProvider struct {
	service *calendar.Service
}

func (p *serviceProvider) ListEvents(ctx context.Context, calendarID, timeMin, timeMax string) ([]*calendar.Event, error) {
	call := p.service.Events.List(calendarID).
		SingleEvents(true).
		OrderBy("startTime").
		MaxResults(250)
	if timeMin != "" {
		call = call.TimeMin(timeMin)
	}
	if timeMax != "" {
		call = call.TimeMax(timeMax)
	}

	var items []*calendar.Event
	err := call.Pages(ctx, func(page *calendar.Events) error {
		items = append(items, page.Items...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (p *serviceProvider) GetEvent(ctx context.Context, calendarID, eventID string) (*calendar.Event, error) {
	return p.service.Events.Get(calendarID, eventID).Context(ctx).Do()
}

func (p *serviceProvider) InsertEvent(ctx context.Context, calendarID string, event *calendar.Event) (*calendar.Event, error) {
	return p.service.Events.Insert(calendarID, event).Context(ctx).Do()
}

func (p *serviceProvider) UpdateEvent(ctx context.Context, calendarID, eventID string, event *calendar.Event) (*calendar.Event, error) {
	return p.service.Events.Update(calendarID, eventID, event).Context(ctx).Do()
}

func (p *serviceProvider) DeleteEvent(ctx context.Context, calendarID, eventID string) error {
	return p.service.Events.Delete(calendarID, eventID).Context(ctx).Do()
}
