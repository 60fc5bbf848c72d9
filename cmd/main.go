package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"
	_ "time/tzdata"

	"github.com/aws/aws-lambda-go/lambda"

	"github.com/k-negishi/kairos-scheduler/internal/config"
	"github.com/k-negishi/kairos-scheduler/internal/domain"
	"github.com/k-negishi/kairos-scheduler/internal/gateway"
	"github.com/k-negishi/kairos-scheduler/internal/logger"
	"github.com/k-negishi/kairos-scheduler/internal/schedule"
	"github.com/k-negishi/kairos-scheduler/internal/usecase"
)

// LambdaEvent Lambda実行時のイベント構造体
// EventBridge Schedulerからの実行（action も event もなし）は予定通知として扱う
type LambdaEvent struct {
	Action string        `json:"action"`
	Event  *domain.Event `json:"event,omitempty"`
	ID     string        `json:"id,omitempty"`
	From   time.Time     `json:"from"`
	To     time.Time     `json:"to"`
	Year   int           `json:"year,omitempty"`
	Month  int           `json:"month,omitempty"`
	Date   string        `json:"date,omitempty"`
}

// LambdaResponse Lambda実行結果のレスポンス
type LambdaResponse struct {
	StatusCode  int                    `json:"statusCode"`
	Message     string                 `json:"message"`
	Result      *domain.ScheduleResult `json:"result,omitempty"`
	Event       *domain.Event          `json:"event,omitempty"`
	Events      []domain.Event         `json:"events,omitempty"`
	Month       *usecase.MonthView     `json:"month,omitempty"`
	Occurrences []domain.DayOccurrence `json:"occurrences,omitempty"`
}

type scheduler interface {
	Execute(ctx context.Context, candidate domain.Event) (domain.ScheduleResult, error)
}

type eventService interface {
	Get(ctx context.Context, id string) (domain.Event, error)
	List(ctx context.Context, from, to time.Time) ([]domain.Event, error)
	Create(ctx context.Context, event domain.Event) (domain.Event, error)
	Update(ctx context.Context, id string, event domain.Event) (domain.Event, error)
	Delete(ctx context.Context, id string) error
}

type calendarView interface {
	Month(ctx context.Context, year int, month time.Month) (usecase.MonthView, error)
	Day(ctx context.Context, date domain.DateKey) ([]domain.DayOccurrence, error)
}

type agendaRunner interface {
	Execute(ctx context.Context, today domain.DateKey) (skipped bool, err error)
}

// app ハンドラーが使うユースケース一式
type app struct {
	scheduleEvent scheduler
	checkEvent    scheduler
	events        eventService
	view          calendarView
	agenda        agendaRunner // LINE未設定の場合は nil
	location      *time.Location
	now           func() time.Time
	log           logger.Logger
}

// newApp 設定に応じてストアと通知先を組み立てる
func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	log := logger.New("kairos-scheduler", cfg.LogLevel)

	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	weekStart, err := cfg.WeekStartDay()
	if err != nil {
		return nil, err
	}

	var store usecase.EventStore
	switch cfg.EventStore {
	case config.StoreGoogle:
		repo, err := gateway.NewGoogleCalendarRepository(ctx, []byte(cfg.GoogleCredentials), cfg.CalendarID, loc, log)
		if err != nil {
			return nil, err
		}
		store = repo
	default:
		repo, err := gateway.ConnectPostgres(ctx, cfg.DatabaseURL, loc)
		if err != nil {
			return nil, err
		}
		if err := repo.EnsureSchema(ctx); err != nil {
			repo.Close()
			return nil, err
		}
		store = repo
	}

	// nil ポインタを interface に入れないよう、有効な場合だけ代入する
	var notifier usecase.Notifier
	var line *gateway.LINENotifier
	if cfg.LineEnabled() {
		line = gateway.NewLINENotifier(cfg.LineChannelAccessToken, cfg.LineUserID, loc)
		notifier = line
	}

	policy := cfg.SchedulePolicy()
	view := usecase.NewCalendarViewUseCase(store, schedule.NewDayExpander(loc), weekStart, log)
	a := &app{
		scheduleEvent: usecase.NewScheduleEventUseCase(store, notifier, policy, log),
		checkEvent:    usecase.NewCheckAvailabilityUseCase(store, policy, log),
		events:        usecase.NewEventService(store),
		view:          view,
		location:      loc,
		now:           time.Now,
		log:           log,
	}
	if line != nil {
		a.agenda = usecase.NewNotifyAgendaUseCase(view, line, log)
	}
	return a, nil
}

// handle Lambda関数のメインハンドラー
func (a *app) handle(ctx context.Context, event LambdaEvent) (LambdaResponse, error) {
	action := event.Action
	if action == "" {
		if event.Event != nil {
			action = "schedule"
		} else {
			action = "agenda"
		}
	}

	switch action {
	case "schedule", "check":
		if event.Event == nil {
			return a.errorResponse(fmt.Errorf("%w: event は必須です", domain.ErrInvalidEvent))
		}
		uc := a.scheduleEvent
		if action == "check" {
			uc = a.checkEvent
		}
		result, err := uc.Execute(ctx, *event.Event)
		if err != nil {
			return a.errorResponse(err)
		}
		return LambdaResponse{StatusCode: http.StatusOK, Message: resultMessage(result), Result: &result}, nil

	case "get":
		e, err := a.events.Get(ctx, event.ID)
		if err != nil {
			return a.errorResponse(err)
		}
		return LambdaResponse{StatusCode: http.StatusOK, Message: "取得しました", Event: &e}, nil

	case "list":
		events, err := a.events.List(ctx, event.From, event.To)
		if err != nil {
			return a.errorResponse(err)
		}
		return LambdaResponse{StatusCode: http.StatusOK, Message: fmt.Sprintf("%d件", len(events)), Events: events}, nil

	case "create":
		if event.Event == nil {
			return a.errorResponse(fmt.Errorf("%w: event は必須です", domain.ErrInvalidEvent))
		}
		e, err := a.events.Create(ctx, *event.Event)
		if err != nil {
			return a.errorResponse(err)
		}
		return LambdaResponse{StatusCode: http.StatusCreated, Message: "登録しました", Event: &e}, nil

	case "update":
		if event.Event == nil {
			return a.errorResponse(fmt.Errorf("%w: event は必須です", domain.ErrInvalidEvent))
		}
		e, err := a.events.Update(ctx, event.ID, *event.Event)
		if err != nil {
			return a.errorResponse(err)
		}
		return LambdaResponse{StatusCode: http.StatusOK, Message: "更新しました", Event: &e}, nil

	case "delete":
		if err := a.events.Delete(ctx, event.ID); err != nil {
			return a.errorResponse(err)
		}
		return LambdaResponse{StatusCode: http.StatusOK, Message: "削除しました"}, nil

	case "month":
		view, err := a.view.Month(ctx, event.Year, time.Month(event.Month))
		if err != nil {
			return a.errorResponse(err)
		}
		return LambdaResponse{StatusCode: http.StatusOK, Message: fmt.Sprintf("%04d-%02d", view.Year, int(view.Month)), Month: &view}, nil

	case "day":
		date, err := a.dateOrToday(event.Date)
		if err != nil {
			return a.errorResponse(err)
		}
		occurrences, err := a.view.Day(ctx, date)
		if err != nil {
			return a.errorResponse(err)
		}
		return LambdaResponse{StatusCode: http.StatusOK, Message: date.String(), Occurrences: occurrences}, nil

	case "agenda":
		if a.agenda == nil {
			return LambdaResponse{StatusCode: http.StatusOK, Message: "LINE通知が未設定のため通知スキップ"}, nil
		}
		date, err := a.dateOrToday(event.Date)
		if err != nil {
			return a.errorResponse(err)
		}
		skipped, err := a.agenda.Execute(ctx, date)
		if err != nil {
			return a.errorResponse(err)
		}
		if skipped {
			return LambdaResponse{StatusCode: http.StatusOK, Message: "予定なしのため通知スキップ"}, nil
		}
		return LambdaResponse{StatusCode: http.StatusOK, Message: "通知送信完了"}, nil

	default:
		return a.errorResponse(fmt.Errorf("%w: 不明なアクションです: %s", domain.ErrInvalidRequest, action))
	}
}

// dateOrToday YYYY-MM-DD を解析。空なら基準タイムゾーンの今日
func (a *app) dateOrToday(s string) (domain.DateKey, error) {
	if s == "" {
		return domain.DateKeyOf(a.now(), a.location), nil
	}
	date, err := domain.ParseDateKey(s)
	if err != nil {
		return domain.DateKey{}, fmt.Errorf("%w: %v", domain.ErrInvalidRequest, err)
	}
	return date, nil
}

// errorResponse エラー種別をステータスコードに変換
// 入力エラーと未検出はレスポンスのみ返し、それ以外はLambdaのエラーとしても返す
func (a *app) errorResponse(err error) (LambdaResponse, error) {
	switch {
	case errors.Is(err, domain.ErrInvalidEvent), errors.Is(err, domain.ErrInvalidRequest):
		return LambdaResponse{StatusCode: http.StatusBadRequest, Message: err.Error()}, nil
	case errors.Is(err, domain.ErrEventNotFound):
		return LambdaResponse{StatusCode: http.StatusNotFound, Message: err.Error()}, nil
	default:
		a.log.Errorf("処理に失敗しました: %v", err)
		return LambdaResponse{StatusCode: http.StatusInternalServerError, Message: "内部エラー"}, err
	}
}

func resultMessage(result domain.ScheduleResult) string {
	switch {
	case result.Created:
		return "予定を登録しました"
	case result.Clash:
		return "既存の予定と重なるため空き枠を提案します"
	default:
		return "この時間は空いています"
	}
}

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		logger.New("kairos-scheduler", "INFO").Errorf("設定読み込みエラー: %v", err)
		os.Exit(1)
	}

	a, err := newApp(ctx, cfg)
	if err != nil {
		logger.New("kairos-scheduler", cfg.LogLevel).Errorf("初期化エラー: %v", err)
		os.Exit(1)
	}

	lambda.Start(a.handle)
}
