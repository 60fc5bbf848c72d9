package config

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/joho/godotenv"

	"github.com/k-negishi/kairos-scheduler/internal/domain"
	"github.com/k-negishi/kairos-scheduler/internal/schedule"
)

const (
	// StorePostgres イベントをPostgreSQLに保存
	StorePostgres = "postgres"
	// StoreGoogle イベントをGoogle Calendarに保存
	StoreGoogle = "google"

	defaultParamPrefix = "/kairos-scheduler"
)

// SSMParameterGetter Parameter Storeからの取得に必要な操作
type SSMParameterGetter interface {
	GetParameter(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

// Config アプリケーション設定構造体
type Config struct {
	// イベントストア設定
	EventStore  string
	DatabaseURL string

	// Google Calendar設定
	GoogleCredentials string
	CalendarID        string

	// LINE API設定（任意）
	LineChannelAccessToken string
	LineUserID             string

	// スケジューリング設定
	BufferMinutes     int
	SearchBeforeFirst bool
	WeekStart         string

	// その他設定
	LogLevel string
	Timezone string

	// AWS関連（本番環境でのみ使用）
	ssmClient SSMParameterGetter
}

// Load 環境に応じて設定を読み込み
func Load() (*Config, error) {
	// AWS Lambda環境かどうか判定
	if os.Getenv("AWS_LAMBDA_FUNCTION_NAME") != "" {
		return loadAWSConfig()
	}
	return loadLocalConfig()
}

// loadLocalConfig ローカル開発環境用の設定読み込み
func loadLocalConfig() (*Config, error) {
	// .envファイルを読み込み（存在する場合のみ）
	if err := godotenv.Load(); err != nil {
		// .envファイルが存在しない場合はエラーにしない
		fmt.Printf("Warning: .envファイルが見つかりません: %v\n", err)
	}

	cfg, err := loadCommon()
	if err != nil {
		return nil, err
	}
	cfg.DatabaseURL = getEnvOrDefault("DATABASE_URL", "")
	cfg.GoogleCredentials = getEnvOrDefault("GOOGLE_CREDENTIALS", "")
	cfg.LineChannelAccessToken = getEnvOrDefault("LINE_CHANNEL_ACCESS_TOKEN", "")
	cfg.LineUserID = getEnvOrDefault("LINE_USER_ID", "")

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadAWSConfig AWS Lambda環境用の設定読み込み
func loadAWSConfig() (*Config, error) {
	// AWS設定を初期化
	awsCfg, err := awsconfig.LoadDefaultConfig(context.TODO())
	if err != nil {
		return nil, fmt.Errorf("AWS設定の読み込みに失敗しました: %w", err)
	}

	cfg, err := loadCommon()
	if err != nil {
		return nil, err
	}
	cfg.ssmClient = ssm.NewFromConfig(awsCfg)

	// Parameter Storeから機密情報を取得
	if err := cfg.loadFromParameterStore(context.TODO()); err != nil {
		return nil, fmt.Errorf("Parameter Storeからの設定読み込みに失敗しました: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadCommon 機密情報以外の設定を環境変数から読み込み
func loadCommon() (*Config, error) {
	buffer, err := getEnvInt("BUFFER_MINUTES", int(schedule.DefaultBuffer/time.Minute))
	if err != nil {
		return nil, err
	}
	searchBeforeFirst, err := getEnvBool("SEARCH_BEFORE_FIRST", false)
	if err != nil {
		return nil, err
	}
	return &Config{
		EventStore:        strings.ToLower(getEnvOrDefault("EVENT_STORE", StorePostgres)),
		CalendarID:        getEnvOrDefault("CALENDAR_ID", "primary"),
		BufferMinutes:     buffer,
		SearchBeforeFirst: searchBeforeFirst,
		WeekStart:         strings.ToLower(getEnvOrDefault("WEEK_START", "sunday")),
		LogLevel:          getEnvOrDefault("LOG_LEVEL", "INFO"),
		Timezone:          getEnvOrDefault("TIMEZONE", "Asia/Singapore"),
	}, nil
}

// loadFromParameterStore Parameter Storeから機密情報を読み込み
// ストアの種類に応じて必要なパラメータだけを取得する
func (c *Config) loadFromParameterStore(ctx context.Context) error {
	switch c.EventStore {
	case StorePostgres:
		dsn, err := c.getParameter(ctx, getEnvOrDefault("DATABASE_URL_PARAM", defaultParamPrefix+"/database-url"), true)
		if err != nil {
			return fmt.Errorf("データベース接続文字列の取得に失敗しました: %w", err)
		}
		c.DatabaseURL = dsn
	case StoreGoogle:
		creds, err := c.getParameter(ctx, getEnvOrDefault("GOOGLE_CREDS_PARAM", defaultParamPrefix+"/google-creds"), true)
		if err != nil {
			return fmt.Errorf("Google認証情報の取得に失敗しました: %w", err)
		}
		c.GoogleCredentials = creds
	}

	// LINE通知は任意。パラメータ名が指定されている場合のみ取得
	if name := getEnvOrDefault("LINE_CHANNEL_ACCESS_TOKEN_PARAM", ""); name != "" {
		token, err := c.getParameter(ctx, name, true)
		if err != nil {
			return fmt.Errorf("LINE Channel Access Tokenの取得に失敗しました: %w", err)
		}
		c.LineChannelAccessToken = token
	}
	if name := getEnvOrDefault("LINE_USER_ID_PARAM", ""); name != "" {
		user, err := c.getParameter(ctx, name, true)
		if err != nil {
			return fmt.Errorf("LINE User IDの取得に失敗しました: %w", err)
		}
		c.LineUserID = user
	}

	return nil
}

// getParameter Parameter Storeから指定されたパラメータを取得
func (c *Config) getParameter(ctx context.Context, paramName string, withDecryption bool) (string, error) {
	input := &ssm.GetParameterInput{
		Name:           aws.String(paramName),
		WithDecryption: aws.Bool(withDecryption),
	}

	result, err := c.ssmClient.GetParameter(ctx, input)
	if err != nil {
		return "", fmt.Errorf("パラメータ %s の取得に失敗しました: %w", paramName, err)
	}

	if result.Parameter == nil || result.Parameter.Value == nil || *result.Parameter.Value == "" {
		return "", fmt.Errorf("パラメータ %s が空の値です", paramName)
	}

	return *result.Parameter.Value, nil
}

// Validate 設定値の整合性を確認
func (c *Config) Validate() error {
	switch c.EventStore {
	case StorePostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("%w: DATABASE_URL環境変数が設定されていません", domain.ErrInvalidConfig)
		}
	case StoreGoogle:
		if c.GoogleCredentials == "" {
			return fmt.Errorf("%w: GOOGLE_CREDENTIALS環境変数が設定されていません", domain.ErrInvalidConfig)
		}
		if _, err := c.GetGoogleCredentialsJSON(); err != nil {
			return fmt.Errorf("%w: %v", domain.ErrInvalidConfig, err)
		}
	default:
		return fmt.Errorf("%w: EVENT_STOREは %s か %s を指定してください (値: %s)", domain.ErrInvalidConfig, StorePostgres, StoreGoogle, c.EventStore)
	}

	if (c.LineChannelAccessToken == "") != (c.LineUserID == "") {
		return fmt.Errorf("%w: LINE_CHANNEL_ACCESS_TOKENとLINE_USER_IDは両方設定してください", domain.ErrInvalidConfig)
	}
	if c.BufferMinutes <= 0 {
		return fmt.Errorf("%w: BUFFER_MINUTESは正の値である必要があります (値: %d)", domain.ErrInvalidConfig, c.BufferMinutes)
	}
	if _, err := c.WeekStartDay(); err != nil {
		return err
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// LineEnabled LINE通知が設定されているか
func (c *Config) LineEnabled() bool {
	return c.LineChannelAccessToken != "" && c.LineUserID != ""
}

// Location 日付判定と表示に使うタイムゾーン
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("%w: タイムゾーン %s の読み込みに失敗しました: %v", domain.ErrInvalidConfig, c.Timezone, err)
	}
	return loc, nil
}

// WeekStartDay 月表示の週の始まり
func (c *Config) WeekStartDay() (time.Weekday, error) {
	switch c.WeekStart {
	case "", "sunday":
		return time.Sunday, nil
	case "monday":
		return time.Monday, nil
	default:
		return time.Sunday, fmt.Errorf("%w: WEEK_STARTは sunday か monday を指定してください (値: %s)", domain.ErrInvalidConfig, c.WeekStart)
	}
}

// SchedulePolicy 空き枠探索の設定を組み立て
func (c *Config) SchedulePolicy() schedule.Policy {
	return schedule.Policy{
		Buffer:            time.Duration(c.BufferMinutes) * time.Minute,
		SearchBeforeFirst: c.SearchBeforeFirst,
	}
}

// GetGoogleCredentialsJSON Google認証情報をJSONとして解析
func (c *Config) GetGoogleCredentialsJSON() (map[string]interface{}, error) {
	var credentials map[string]interface{}
	if err := json.Unmarshal([]byte(c.GoogleCredentials), &credentials); err != nil {
		return nil, fmt.Errorf("Google認証情報のJSON解析に失敗しました: %v", err)
	}
	return credentials, nil
}

// getEnvOrDefault 環境変数を取得し、存在しない場合はデフォルト値を返す
func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt 整数の環境変数を取得
func getEnvInt(key string, defaultValue int) (int, error) {
	raw := getEnvOrDefault(key, "")
	if raw == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %sは整数で指定してください (値: %s)", domain.ErrInvalidConfig, key, raw)
	}
	return n, nil
}

// getEnvBool 真偽値の環境変数を取得
func getEnvBool(key string, defaultValue bool) (bool, error) {
	raw := getEnvOrDefault(key, "")
	if raw == "" {
		return defaultValue, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("%w: %sは true か false で指定してください (値: %s)", domain.ErrInvalidConfig, key, raw)
	}
	return b, nil
}
