package cli

import (
	"context"
	"fmt"

	"github.com/dyike/CortexReview/internal/display"
	"github.com/dyike/CortexReview/internal/journal"
	"github.com/dyike/CortexReview/models"
)

func showHistory(ctx context.Context, app *App, store *journal.Store, params models.HistoryParams) error {
	entries, err := store.List(ctx, params)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		display.Info(app.out, "No journaled evaluations.")
		return nil
	}

	fmt.Fprintln(app.out, "📒 Evaluation Journal")
	fmt.Fprintln(app.out, "═══════════════════════════════════════════════════════════════════════")
	for _, e := range entries {
		mark := "✖"
		if e.IsSetupValid {
			mark = "✔"
		}
		fmt.Fprintf(app.out, "#%-5d %s  %s %-20s %2d/10  %-26s %s\n",
			e.RowID, e.CreatedAt.Local().Format("2006-01-02 15:04"), mark, e.Verdict,
			e.ConfluenceScore, e.SetupType, e.Source)
	}

	stats, err := store.Stats(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintln(app.out)
	fmt.Fprintf(app.out, "📊 %d evaluations | approved %d (%s%%) | avg confluence %s | top setup: %s\n",
		stats.Total, stats.Approved, stats.ApprovalRate, stats.AverageScore, stats.TopSetupType)
	if len(entries) == params.Limit {
		fmt.Fprintf(app.out, "More: cortexreview history --before %d\n", entries[len(entries)-1].RowID)
	}
	return nil
}

// showEntry prints one journaled evaluation in full.
func showEntry(ctx context.Context, app *App, store *journal.Store, rowID int64) error {
	entry, err := store.Get(ctx, rowID)
	if err != nil {
		return err
	}
	result, err := journal.Decode(*entry)
	if err != nil {
		return err
	}
	fmt.Fprintf(app.out, "#%d  %s  %s  %s/%s\n", entry.RowID,
		entry.CreatedAt.Local().Format("2006-01-02 15:04"), entry.Source, entry.Provider, entry.Model)
	fmt.Fprintln(app.out, display.RenderAnalysis(result))
	return nil
}
