package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/k-negishi/kairos-scheduler/internal/domain"
)

// eventsFile 予定ファイルの形式（JSON / YAML 共通）
//
//	events:
//	  - id: a
//	    title: 朝会
//	    start_time: 2025-08-29T10:00:00Z
//	    end_time: 2025-08-29T11:00:00Z
type eventsFile struct {
	Events []fileEvent `json:"events" yaml:"events"`
}

type fileEvent struct {
	ID          string    `json:"id" yaml:"id"`
	Title       string    `json:"title" yaml:"title"`
	Description string    `json:"description,omitempty" yaml:"description,omitempty"`
	Location    string    `json:"location,omitempty" yaml:"location,omitempty"`
	StartTime   time.Time `json:"start_time" yaml:"start_time"`
	EndTime     time.Time `json:"end_time" yaml:"end_time"`
	AllDay      bool      `json:"all_day,omitempty" yaml:"all_day,omitempty"`
}

func (e fileEvent) toDomain() domain.Event {
	return domain.Event{
		ID:          e.ID,
		Title:       e.Title,
		Description: e.Description,
		Location:    e.Location,
		StartTime:   e.StartTime,
		EndTime:     e.EndTime,
		IsAllDay:    e.AllDay,
	}
}

// loadEvents 拡張子に応じて JSON / YAML の予定ファイルを読み込む
func loadEvents(path string) ([]domain.Event, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("予定ファイルの読み込みに失敗しました: %w", err)
	}

	var file eventsFile
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		err = json.Unmarshal(data, &file)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &file)
	default:
		return nil, fmt.Errorf("未対応のファイル形式です: %s", ext)
	}
	if err != nil {
		return nil, fmt.Errorf("予定ファイルの解析に失敗しました: %w", err)
	}

	events := make([]domain.Event, 0, len(file.Events))
	for _, e := range file.Events {
		events = append(events, e.toDomain())
	}
	return events, nil
}
