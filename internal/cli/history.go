package cli

import (
	"github.com/spf13/cobra"

	"amoption/internal/recorder"
)

// HistoryEntry is one journaled run as reported.
type HistoryEntry struct {
	Time     string  `json:"time" yaml:"time"`
	Method   string  `json:"method" yaml:"method"`
	Kind     string  `json:"kind" yaml:"kind"`
	Spot     float64 `json:"spot" yaml:"spot"`
	Strike   float64 `json:"strike" yaml:"strike"`
	Expiry   float64 `json:"expiry" yaml:"expiry"`
	Paths    int     `json:"paths,omitempty" yaml:"paths,omitempty"`
	Steps    int     `json:"steps,omitempty" yaml:"steps,omitempty"`
	Price    string  `json:"price" yaml:"price"`
	Duration string  `json:"duration" yaml:"duration"`
}

func newHistoryCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent runs from the journal",
		Long:  `Show recent runs recorded in the SQLite journal set by recorder.sqlite_path.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			limit, _ := cmd.Flags().GetInt("limit")
			runs, err := app.Recorder.Recent(limit)
			if err != nil {
				return err
			}
			entries := make([]HistoryEntry, 0, len(runs))
			for _, r := range runs {
				entries = append(entries, newHistoryEntry(r))
			}
			return NewOutput(cmd).Render(entries, func(o *Output) {
				if len(entries) == 0 {
					o.Printf("No runs recorded\n")
					return
				}
				for i, e := range entries {
					o.Printf("%s  %-12s %-10s S=%g K=%g T=%g  %s\n",
						e.Time, e.Method, e.Kind, e.Spot, e.Strike, e.Expiry, o.Money(runs[i].Price))
				}
			})
		},
	}
	cmd.Flags().Int("limit", 20, "maximum number of runs")
	return cmd
}

func newHistoryEntry(r recorder.Run) HistoryEntry {
	return HistoryEntry{
		Time:     r.Timestamp.Format("2006-01-02 15:04:05"),
		Method:   r.Method,
		Kind:     r.Kind,
		Spot:     r.Spot,
		Strike:   r.Strike,
		Expiry:   r.Expiry,
		Paths:    r.NumPaths,
		Steps:    r.NumDt,
		Price:    round(r.Price).String(),
		Duration: r.Duration.String(),
	}
}
