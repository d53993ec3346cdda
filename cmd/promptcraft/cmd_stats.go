package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/felixgeelhaar/promptcraft/internal/config"
	"github.com/felixgeelhaar/promptcraft/internal/domain"
	"github.com/felixgeelhaar/promptcraft/internal/storage/postgres"
	"github.com/felixgeelhaar/promptcraft/internal/storage/sqlite"
	"github.com/xuri/excelize/v2"
)

const (
	sheetSummary  = "Summary"
	sheetAttempts = "Attempts"
)

// cmdStats reports attempt history straight from storage; the daemon need not run
func cmdStats(args []string) error {
	subCmd := "overview"
	if len(args) > 0 {
		subCmd = args[0]
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	history, closeHistory, err := openHistory(ctx)
	if err != nil {
		return err
	}
	defer closeHistory()

	switch subCmd {
	case "overview", "":
		return cmdStatsOverview(ctx, history)
	case "export":
		if len(args) < 2 {
			return fmt.Errorf("output file required (e.g., attempts.xlsx)")
		}
		return cmdStatsExport(ctx, history, args[1])
	default:
		return fmt.Errorf("unknown stats command: %s (valid: overview, export)", subCmd)
	}
}

// openHistory opens the configured attempt store
func openHistory(ctx context.Context) (domain.AttemptRepository, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	if cfg.Storage.Driver == config.DriverPostgres {
		pool, err := postgres.Open(ctx, cfg.Storage.PostgresURL, postgres.DefaultPoolConfig())
		if err != nil {
			return nil, nil, err
		}
		if err := postgres.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, nil, err
		}
		return postgres.NewAttemptStore(pool), pool.Close, nil
	}

	dir, err := config.EnsureDir()
	if err != nil {
		return nil, nil, err
	}
	db, err := sqlite.Open(cfg.SQLitePath(dir))
	if err != nil {
		return nil, nil, err
	}
	if err := db.Migrate(ctx); err != nil {
		db.Close()
		return nil, nil, err
	}
	return sqlite.NewAttemptStore(db), func() { db.Close() }, nil
}

func cmdStatsOverview(ctx context.Context, history domain.AttemptRepository) error {
	stats, err := history.Stats(ctx)
	if err != nil {
		return fmt.Errorf("get stats: %w", err)
	}
	return printStats(os.Stdout, stats)
}

func printStats(w io.Writer, stats []domain.ExerciseStats) error {
	fmt.Fprintln(w, "Practice Statistics")
	fmt.Fprintln(w, "===================")

	if len(stats) == 0 {
		fmt.Fprintln(w, "No attempts recorded yet.")
		return nil
	}

	total := 0
	for _, s := range stats {
		total += s.Attempts
	}
	fmt.Fprintf(w, "Total Attempts: %d\n\n", total)

	for _, s := range stats {
		bar := renderProgressBar(s.AverageScore/100, 20)
		fmt.Fprintf(w, "%-14s %s avg %5.1f%% best %3d%% (%d attempts)\n",
			domain.ExerciseKey(s.ModuleID, s.Type), bar, s.AverageScore, s.BestScore, s.Attempts)
	}
	return nil
}

func cmdStatsExport(ctx context.Context, history domain.AttemptRepository, path string) error {
	stats, err := history.Stats(ctx)
	if err != nil {
		return fmt.Errorf("get stats: %w", err)
	}
	attempts, err := history.List(ctx, domain.AttemptFilter{})
	if err != nil {
		return fmt.Errorf("list attempts: %w", err)
	}

	if err := writeWorkbook(path, stats, attempts); err != nil {
		return err
	}
	fmt.Printf("✓ Exported %d attempts to %s\n", len(attempts), path)
	return nil
}

// writeWorkbook writes a summary sheet and one row per attempt
func writeWorkbook(path string, stats []domain.ExerciseStats, attempts []*domain.Attempt) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetSummary); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if _, err := f.NewSheet(sheetAttempts); err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}

	header, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create style: %w", err)
	}

	rows := [][]any{{"Module", "Type", "Attempts", "Average Score", "Best Score"}}
	for _, s := range stats {
		rows = append(rows, []any{int(s.ModuleID), string(s.Type), s.Attempts, s.AverageScore, s.BestScore})
	}
	if err := writeRows(f, sheetSummary, rows, header); err != nil {
		return err
	}

	rows = [][]any{{"Attempt ID", "Learner", "Module", "Type", "Score", "Valid Steps", "Total Steps", "Duration (s)", "Completed At"}}
	for _, a := range attempts {
		rows = append(rows, []any{
			a.ID.String(), a.LearnerID, int(a.ModuleID), string(a.Type), a.Score,
			a.ValidSteps, a.TotalSteps, int(a.Duration().Seconds()), a.CompletedAt.UTC().Format(time.RFC3339),
		})
	}
	if err := writeRows(f, sheetAttempts, rows, header); err != nil {
		return err
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}
	return nil
}

func writeRows(f *excelize.File, sheet string, rows [][]any, headerStyle int) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write %s row %d: %w", sheet, i+1, err)
		}
	}
	if len(rows) > 0 {
		last, err := excelize.CoordinatesToCellName(len(rows[0]), 1)
		if err != nil {
			return err
		}
		if err := f.SetCellStyle(sheet, "A1", last, headerStyle); err != nil {
			return fmt.Errorf("style %s header: %w", sheet, err)
		}
	}
	return nil
}
