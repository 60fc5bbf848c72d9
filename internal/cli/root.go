package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"time"
	_ "time/tzdata"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/k-negishi/kairos-scheduler/internal/logger"
)

// options 全サブコマンド共通のフラグ
type options struct {
	eventsPath string
	timezone   string
	output     string
	logLevel   string
}

func (o *options) location() (*time.Location, error) {
	loc, err := time.LoadLocation(o.timezone)
	if err != nil {
		return nil, fmt.Errorf("タイムゾーン %s の読み込みに失敗しました: %w", o.timezone, err)
	}
	return loc, nil
}

func (o *options) logger() logger.Logger {
	return logger.New("kairosctl", o.logLevel)
}

// NewRootCommand kairosctl のルートコマンドを作成
func NewRootCommand() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:          "kairosctl",
		Short:        "予定の重なり判定・空き枠探索・日別展開をファイル上の予定に対して実行する",
		SilenceUsage: true,
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&opts.eventsPath, "file", "f", "events.yaml", "予定ファイル（.json / .yaml）")
	flags.StringVar(&opts.timezone, "tz", "Asia/Singapore", "日付判定と表示のタイムゾーン")
	flags.StringVarP(&opts.output, "output", "o", "text", "出力形式 (text|json|yaml)")
	flags.StringVar(&opts.logLevel, "log-level", "WARN", "ログレベル (DEBUG|INFO|WARN|ERROR)")

	root.AddCommand(
		newOverlapCommand(opts),
		newSlotCommand(opts),
		newExpandCommand(opts),
		newMonthCommand(opts),
	)
	return root
}

// Execute CLIを実行
func Execute() error { return NewRootCommand().Execute() }

// render 出力形式に応じて v を書き出す。text の場合は text 関数に任せる
func render(w io.Writer, format string, v any, text func(w io.Writer) error) error {
	switch format {
	case "text":
		return text(w)
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("未対応の出力形式です: %s", format)
	}
}

// parseTimeFlag RFC3339 形式のフラグ値を解析
func parseTimeFlag(name, value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, fmt.Errorf("--%s は必須です", name)
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("--%s の解析に失敗しました: %w", name, err)
	}
	return t, nil
}
