package cli

import (
	"context"
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/k-negishi/kairos-scheduler/internal/domain"
	"github.com/k-negishi/kairos-scheduler/internal/schedule"
	"github.com/k-negishi/kairos-scheduler/internal/usecase"
)

type slotOutput struct {
	Start time.Time `json:"start" yaml:"start"`
	End   time.Time `json:"end" yaml:"end"`
}

type overlapOutput struct {
	Clash bool `json:"clash" yaml:"clash"`
}

type dayOutput struct {
	Date   string      `json:"date" yaml:"date"`
	Events []fileEvent `json:"events" yaml:"events"`
}

type cellOutput struct {
	Date    string   `json:"date" yaml:"date"`
	InMonth bool     `json:"in_month" yaml:"in_month"`
	Titles  []string `json:"titles" yaml:"titles"`
}

type monthOutput struct {
	Year  int            `json:"year" yaml:"year"`
	Month int            `json:"month" yaml:"month"`
	Weeks [][]cellOutput `json:"weeks" yaml:"weeks"`
}

// candidateFlags 候補区間を受け取るフラグ
type candidateFlags struct {
	start string
	end   string
}

func (c *candidateFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&c.start, "start", "", "候補の開始時刻 (RFC3339)")
	cmd.Flags().StringVar(&c.end, "end", "", "候補の終了時刻 (RFC3339)")
}

func (c *candidateFlags) event() (domain.Event, error) {
	start, err := parseTimeFlag("start", c.start)
	if err != nil {
		return domain.Event{}, err
	}
	end, err := parseTimeFlag("end", c.end)
	if err != nil {
		return domain.Event{}, err
	}
	return domain.Event{ID: "candidate", Title: "candidate", StartTime: start, EndTime: end}, nil
}

func newOverlapCommand(opts *options) *cobra.Command {
	var candidate candidateFlags
	cmd := &cobra.Command{
		Use:   "overlap",
		Short: "候補区間が既存の予定と重なるか判定する",
		RunE: func(cmd *cobra.Command, _ []string) error {
			existing, err := loadEvents(opts.eventsPath)
			if err != nil {
				return err
			}
			c, err := candidate.event()
			if err != nil {
				return err
			}
			clash, err := schedule.HasOverlap(c, existing)
			if err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), opts.output, overlapOutput{Clash: clash}, func(w io.Writer) error {
				if clash {
					_, err := fmt.Fprintln(w, "重なりあり")
					return err
				}
				_, err := fmt.Fprintln(w, "重なりなし")
				return err
			})
		},
	}
	candidate.register(cmd)
	return cmd
}

func newSlotCommand(opts *options) *cobra.Command {
	var (
		candidate   candidateFlags
		buffer      time.Duration
		beforeFirst bool
		notBefore   string
	)
	cmd := &cobra.Command{
		Use:   "slot",
		Short: "候補と同じ長さの空き枠を探す",
		RunE: func(cmd *cobra.Command, _ []string) error {
			existing, err := loadEvents(opts.eventsPath)
			if err != nil {
				return err
			}
			c, err := candidate.event()
			if err != nil {
				return err
			}
			policy := schedule.Policy{Buffer: buffer, SearchBeforeFirst: beforeFirst}
			if notBefore != "" {
				if policy.NotBefore, err = parseTimeFlag("not-before", notBefore); err != nil {
					return err
				}
			}

			slot, err := schedule.FindNextAvailableSlot(c, existing, policy)
			if err != nil {
				return err
			}
			opts.logger().Debugf("空き枠を探索しました: existing=%d buffer=%s", len(existing), buffer)

			loc, err := opts.location()
			if err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), opts.output, slotOutput{Start: slot.Start, End: slot.End}, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "%s 〜 %s\n",
					slot.Start.In(loc).Format(time.RFC3339), slot.End.In(loc).Format(time.RFC3339))
				return err
			})
		},
	}
	candidate.register(cmd)
	cmd.Flags().DurationVar(&buffer, "buffer", schedule.DefaultBuffer, "既存の予定の前後に空ける時間")
	cmd.Flags().BoolVar(&beforeFirst, "before-first", false, "最初の予定より前の隙間も探す")
	cmd.Flags().StringVar(&notBefore, "not-before", "", "--before-first 時の探索下限 (RFC3339)")
	return cmd
}

func newExpandCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "expand",
		Short: "予定を暦日ごとに展開する",
		RunE: func(cmd *cobra.Command, _ []string) error {
			events, err := loadEvents(opts.eventsPath)
			if err != nil {
				return err
			}
			loc, err := opts.location()
			if err != nil {
				return err
			}
			byDay, err := schedule.NewDayExpander(loc).Expand(events)
			if err != nil {
				return err
			}

			dates := make([]domain.DateKey, 0, len(byDay))
			for d := range byDay {
				dates = append(dates, d)
			}
			slices.SortFunc(dates, func(a, b domain.DateKey) int {
				return a.StartIn(time.UTC).Compare(b.StartIn(time.UTC))
			})

			out := make([]dayOutput, 0, len(dates))
			for _, d := range dates {
				day := dayOutput{Date: d.String()}
				for _, occ := range byDay[d] {
					day.Events = append(day.Events, toFileEvent(occ.Event, loc))
				}
				out = append(out, day)
			}

			return render(cmd.OutOrStdout(), opts.output, out, func(w io.Writer) error {
				for _, day := range out {
					if _, err := fmt.Fprintln(w, day.Date); err != nil {
						return err
					}
					for _, e := range day.Events {
						if _, err := fmt.Fprintf(w, "  %s〜%s %s\n",
							e.StartTime.Format("15:04"), e.EndTime.Format("15:04"), e.Title); err != nil {
							return err
						}
					}
				}
				return nil
			})
		},
	}
}

func newMonthCommand(opts *options) *cobra.Command {
	var (
		year      int
		month     int
		weekStart string
	)
	cmd := &cobra.Command{
		Use:   "month",
		Short: "月表示のグリッドを出力する",
		RunE: func(cmd *cobra.Command, _ []string) error {
			events, err := loadEvents(opts.eventsPath)
			if err != nil {
				return err
			}
			loc, err := opts.location()
			if err != nil {
				return err
			}
			start, err := parseWeekStart(weekStart)
			if err != nil {
				return err
			}

			view := usecase.NewCalendarViewUseCase(newMemoryRepository(events), schedule.NewDayExpander(loc), start, opts.logger())
			mv, err := view.Month(context.Background(), year, time.Month(month))
			if err != nil {
				return err
			}

			out := monthOutput{Year: mv.Year, Month: int(mv.Month)}
			for _, week := range mv.Weeks {
				row := make([]cellOutput, 0, len(week))
				for _, c := range week {
					cell := cellOutput{Date: c.Date.String(), InMonth: c.InMonth, Titles: []string{}}
					for _, occ := range c.Occurrences {
						cell.Titles = append(cell.Titles, occ.Event.Title)
					}
					row = append(row, cell)
				}
				out.Weeks = append(out.Weeks, row)
			}

			return render(cmd.OutOrStdout(), opts.output, out, func(w io.Writer) error {
				return writeMonthText(w, mv)
			})
		},
	}
	now := time.Now()
	cmd.Flags().IntVar(&year, "year", now.Year(), "年")
	cmd.Flags().IntVar(&month, "month", int(now.Month()), "月 (1-12)")
	cmd.Flags().StringVar(&weekStart, "week-start", "sunday", "週の始まり (sunday|monday)")
	return cmd
}

// writeMonthText 月表示をテキストで出力。前後月の日は括弧付き、予定数を * で示す
func writeMonthText(w io.Writer, mv usecase.MonthView) error {
	if _, err := fmt.Fprintf(w, "%04d-%02d\n", mv.Year, int(mv.Month)); err != nil {
		return err
	}
	for _, week := range mv.Weeks {
		cells := make([]string, 0, len(week))
		for _, c := range week {
			label := fmt.Sprintf("%2d", c.Date.Day)
			if !c.InMonth {
				label = "(" + strings.TrimSpace(label) + ")"
			}
			cells = append(cells, fmt.Sprintf("%-4s%-3s", label, strings.Repeat("*", min(len(c.Occurrences), 3))))
		}
		if _, err := fmt.Fprintln(w, strings.TrimRight(strings.Join(cells, " "), " ")); err != nil {
			return err
		}
	}
	return nil
}

func parseWeekStart(s string) (time.Weekday, error) {
	switch strings.ToLower(s) {
	case "sunday":
		return time.Sunday, nil
	case "monday":
		return time.Monday, nil
	default:
		return time.Sunday, fmt.Errorf("--week-start は sunday か monday を指定してください (値: %s)", s)
	}
}

func toFileEvent(e domain.Event, loc *time.Location) fileEvent {
	return fileEvent{
		ID:          e.ID,
		Title:       e.Title,
		Description: e.Description,
		Location:    e.Location,
		StartTime:   e.StartTime.In(loc),
		EndTime:     e.EndTime.In(loc),
		AllDay:      e.IsAllDay,
	}
}
