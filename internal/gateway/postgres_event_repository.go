package gateway

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/k-negishi/kairos-scheduler/internal/domain"
)

const eventsSchema = `
CREATE TABLE IF NOT EXISTS events (
	id          TEXT PRIMARY KEY,
	title       TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	location    TEXT NOT NULL DEFAULT '',
	start_time  TIMESTAMPTZ NOT NULL,
	end_time    TIMESTAMPTZ NOT NULL,
	all_day     BOOLEAN NOT NULL DEFAULT FALSE,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	CHECK (start_time < end_time)
);
CREATE INDEX IF NOT EXISTS events_start_time_idx ON events (start_time);
`

const eventColumns = "id, title, description, location, start_time, end_time, all_day"

// scheduleLockKey 予定登録を直列化するアドバイザリロックのキー
const scheduleLockKey int64 = 0x6b6169726f73

// uniqueViolation PostgreSQL の一意制約違反
const uniqueViolation = "23505"

// eventRow events テーブルの1行
type eventRow struct {
	ID          string    `db:"id"`
	Title       string    `db:"title"`
	Description string    `db:"description"`
	Location    string    `db:"location"`
	StartTime   time.Time `db:"start_time"`
	EndTime     time.Time `db:"end_time"`
	AllDay      bool      `db:"all_day"`
}

// PostgresEventRepository PostgreSQLを使用したEventStoreの実装
type PostgresEventRepository struct {
	pool     *pgxpool.Pool
	timezone *time.Location
}

// ConnectPostgres 接続プールを作成して疎通を確認
func ConnectPostgres(ctx context.Context, dsn string, loc *time.Location) (*PostgresEventRepository, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("データベース接続文字列の解析に失敗しました: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("接続プールの作成に失敗しました: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("データベースへの接続に失敗しました: %w", err)
	}
	return NewPostgresEventRepository(pool, loc), nil
}

// NewPostgresEventRepository 既存の接続プールからリポジトリを作成
func NewPostgresEventRepository(pool *pgxpool.Pool, loc *time.Location) *PostgresEventRepository {
	if loc == nil {
		loc = time.UTC
	}
	return &PostgresEventRepository{pool: pool, timezone: loc}
}

// Close 接続プールを閉じる
func (r *PostgresEventRepository) Close() {
	if r.pool != nil {
		r.pool.Close()
	}
}

// EnsureSchema events テーブルがなければ作成
func (r *PostgresEventRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, eventsSchema); err != nil {
		return fmt.Errorf("スキーマの作成に失敗しました: %w", err)
	}
	return nil
}

// RunExclusive トランザクション単位のアドバイザリロックを取って fn を実行
// 別インスタンスからの登録はロック解放まで待たされる
func (r *PostgresEventRepository) RunExclusive(ctx context.Context, fn func(ctx context.Context) error) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock($1)", scheduleLockKey); err != nil {
			return fmt.Errorf("アドバイザリロックの取得に失敗しました: %w", err)
		}
		return fn(ctx)
	})
}

// ListEvents [from, to) と重なるイベントを開始時刻順に取得。ゼロ値の境界は無制限
func (r *PostgresEventRepository) ListEvents(ctx context.Context, from, to time.Time) ([]domain.Event, error) {
	query, args := buildListQuery(from, to)
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("イベントの取得に失敗しました: %w", err)
	}
	records, err := pgx.CollectRows(rows, pgx.RowToStructByName[eventRow])
	if err != nil {
		return nil, fmt.Errorf("イベントの読み込みに失敗しました: %w", err)
	}

	events := make([]domain.Event, 0, len(records))
	for _, rec := range records {
		events = append(events, r.toDomain(rec))
	}
	return events, nil
}

// GetEvent IDを指定してイベントを取得
func (r *PostgresEventRepository) GetEvent(ctx context.Context, id string) (domain.Event, error) {
	rows, err := r.pool.Query(ctx, "SELECT "+eventColumns+" FROM events WHERE id = $1", id)
	if err != nil {
		return domain.Event{}, fmt.Errorf("イベントの取得に失敗しました: %w", err)
	}
	return r.collectOne(rows, id)
}

// CreateEvent イベントを登録
func (r *PostgresEventRepository) CreateEvent(ctx context.Context, event domain.Event) (domain.Event, error) {
	rows, err := r.pool.Query(ctx,
		`INSERT INTO events (`+eventColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+eventColumns,
		event.ID, event.Title, event.Description, event.Location, event.StartTime, event.EndTime, event.IsAllDay)
	if err != nil {
		return domain.Event{}, fmt.Errorf("イベントの登録に失敗しました: %w", err)
	}
	created, err := r.collectOne(rows, event.ID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return domain.Event{}, fmt.Errorf("%w: ID %s は既に存在します", domain.ErrInvalidEvent, event.ID)
		}
		return domain.Event{}, err
	}
	return created, nil
}

// UpdateEvent イベントを置き換える
func (r *PostgresEventRepository) UpdateEvent(ctx context.Context, event domain.Event) (domain.Event, error) {
	rows, err := r.pool.Query(ctx,
		`UPDATE events
		SET title = $2, description = $3, location = $4, start_time = $5, end_time = $6, all_day = $7, updated_at = now()
		WHERE id = $1
		RETURNING `+eventColumns,
		event.ID, event.Title, event.Description, event.Location, event.StartTime, event.EndTime, event.IsAllDay)
	if err != nil {
		return domain.Event{}, fmt.Errorf("イベントの更新に失敗しました: %w", err)
	}
	return r.collectOne(rows, event.ID)
}

// DeleteEvent イベントを削除
func (r *PostgresEventRepository) DeleteEvent(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, "DELETE FROM events WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("イベントの削除に失敗しました: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: id=%s", domain.ErrEventNotFound, id)
	}
	return nil
}

func (r *PostgresEventRepository) collectOne(rows pgx.Rows, id string) (domain.Event, error) {
	rec, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[eventRow])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Event{}, fmt.Errorf("%w: id=%s", domain.ErrEventNotFound, id)
		}
		return domain.Event{}, fmt.Errorf("イベントの読み込みに失敗しました: %w", err)
	}
	return r.toDomain(rec), nil
}

func (r *PostgresEventRepository) toDomain(rec eventRow) domain.Event {
	return domain.Event{
		ID:          rec.ID,
		Title:       rec.Title,
		Description: rec.Description,
		Location:    rec.Location,
		StartTime:   rec.StartTime.In(r.timezone),
		EndTime:     rec.EndTime.In(r.timezone),
		IsAllDay:    rec.AllDay,
	}
}

// buildListQuery 範囲指定に応じた一覧取得SQLを組み立てる
func buildListQuery(from, to time.Time) (string, []any) {
	var (
		conds []string
		args  []any
	)
	if !from.IsZero() {
		args = append(args, from)
		conds = append(conds, fmt.Sprintf("end_time > $%d", len(args)))
	}
	if !to.IsZero() {
		args = append(args, to)
		conds = append(conds, fmt.Sprintf("start_time < $%d", len(args)))
	}

	var b strings.Builder
	b.WriteString("SELECT " + eventColumns + " FROM events")
	if len(conds) > 0 {
		b.WriteString(" WHERE " + strings.Join(conds, " AND "))
	}
	b.WriteString(" ORDER BY start_time, id")
	return b.String(), args
}
