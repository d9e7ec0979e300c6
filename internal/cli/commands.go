package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dyike/CortexReview/config"
	"github.com/dyike/CortexReview/consts"
	"github.com/dyike/CortexReview/internal/analysis"
	"github.com/dyike/CortexReview/internal/display"
	"github.com/dyike/CortexReview/internal/journal"
	"github.com/dyike/CortexReview/internal/report"
	"github.com/dyike/CortexReview/internal/server"
	"github.com/dyike/CortexReview/models"
)

const version = "1.2.0"

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	opts := &globalOptions{}
	var app *App

	rootCmd := &cobra.Command{
		Use:   "cortexreview",
		Short: "CortexReview - AI trade execution review desk",
		Long: `CortexReview grades screenshots of executed trades against the MarScalper playbook
using a multimodal model and shows the verdict, confluence score, pillars and checklist.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Annotations["standalone"] == "true" {
				return nil
			}
			var err error
			app, err = newApp(cmd.Context(), opts)
			return err
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if app == nil {
				return nil
			}
			return app.Close()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInteractiveMode(cmd.Context(), app)
		},
	}

	getApp := func() *App { return app }
	rootCmd.AddCommand(newEvaluateCmd(getApp))
	rootCmd.AddCommand(newServeCmd(getApp))
	rootCmd.AddCommand(newPlaybookCmd(getApp))
	rootCmd.AddCommand(newHistoryCmd(getApp))
	rootCmd.AddCommand(newConfigCmd(getApp, opts))
	rootCmd.AddCommand(newVersionCmd())

	rootCmd.PersistentFlags().BoolVar(&opts.debug, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "Configuration file path")

	return rootCmd
}

// signalContext is cancelled on Ctrl-C so an in-flight evaluation is abandoned.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

func newEvaluateCmd(getApp func() *App) *cobra.Command {
	var (
		asJSON     bool
		reportPath string
	)
	cmd := &cobra.Command{
		Use:   "evaluate [IMAGE]",
		Short: "Evaluate one trade screenshot (file path or URL)",
		Long: `Evaluate a single execution screenshot against the playbook and print the verdict.
Example: cortexreview evaluate ~/charts/eurusd-5m.png --report review.md`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signalContext(cmd.Context())
			defer stop()
			return runEvaluateCommand(ctx, getApp(), args[0], asJSON, reportPath)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the analysis result as JSON")
	cmd.Flags().StringVar(&reportPath, "report", "", "Write a markdown report to this file")
	return cmd
}

func runEvaluateCommand(ctx context.Context, app *App, source string, asJSON bool, reportPath string) error {
	if _, err := app.requireClient(); err != nil {
		return fmt.Errorf("analysis client: %w", err)
	}

	img, err := app.loader.Load(ctx, source)
	if err != nil {
		return err
	}
	if err := app.desk.Load(img); err != nil {
		return err
	}

	var result *models.AnalysisResult
	if asJSON || !isTerminal(os.Stdout) {
		result, err = app.desk.Evaluate(ctx)
	} else {
		result, err = evaluateWithSpinner(ctx, app.desk)
	}
	if err != nil {
		if errors.Is(err, analysis.ErrAnalysisFailed) && !errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, display.RenderErrorNotice(consts.Msg_UplinkError))
		}
		return err
	}

	if asJSON {
		enc := json.NewEncoder(app.out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(result); err != nil {
			return err
		}
	} else {
		fmt.Fprintln(app.out, display.RenderImageCard(app.desk.Snapshot().Image))
		fmt.Fprintln(app.out, display.RenderAnalysis(result))
	}

	if reportPath != "" {
		_, err := writeReport(app, reportPath)
		return err
	}
	return nil
}

// writeReport writes the evaluated image as markdown and returns the content.
func writeReport(app *App, path string) (string, error) {
	snap := app.desk.Snapshot()
	md, err := report.Markdown(snap.Image, app.Playbook().Name)
	if err != nil {
		return "", err
	}
	if err := report.WriteMarkdown(path, md); err != nil {
		return "", err
	}
	display.Success(app.out, "Report written to "+path)
	return md, nil
}

func newServeCmd(getApp func() *App) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the local web review desk",
		RunE: func(cmd *cobra.Command, args []string) error {
			app := getApp()
			cfg := app.Config()
			if addr == "" {
				addr = cfg.ServeAddr
			}
			if _, err := app.requireClient(); err != nil {
				display.Warning(app.out, fmt.Sprintf("analysis unavailable until configured: %v", err))
			}

			ctx, stop := signalContext(cmd.Context())
			defer stop()
			app.watchConfig(ctx)

			srv, err := server.NewHTTPServer(addr, cfg.Debug, app.desk, app.loader, app.Playbook())
			if err != nil {
				return err
			}
			display.Info(app.out, fmt.Sprintf("Review desk at http://%s (Ctrl-C to stop)", addr))
			return srv.Run(ctx)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from config)")
	return cmd
}

func newPlaybookCmd(getApp func() *App) *cobra.Command {
	return &cobra.Command{
		Use:   "playbook",
		Short: "Show the playbook the desk grades against",
		Run: func(cmd *cobra.Command, args []string) {
			app := getApp()
			fmt.Fprintln(app.out, display.RenderPlaybook(app.Playbook()))
		},
	}
}

func newHistoryCmd(getApp func() *App) *cobra.Command {
	var (
		limit  int
		cursor int64
		show   int64
	)
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List journaled evaluations",
		RunE: func(cmd *cobra.Command, args []string) error {
			app := getApp()
			store := app.journal
			if store == nil {
				path := app.Config().JournalPath()
				if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
					display.Info(app.out, "Journal is empty. Enable it with CORTEXREVIEW_JOURNAL=true.")
					return nil
				}
				var err error
				if store, err = journal.Open(path); err != nil {
					return err
				}
				defer store.Close()
			}
			if show > 0 {
				return showEntry(cmd.Context(), app, store, show)
			}
			return showHistory(cmd.Context(), app, store, models.HistoryParams{Cursor: cursor, Limit: limit})
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "Number of entries to show (max 200)")
	cmd.Flags().Int64Var(&cursor, "before", 0, "Only show entries older than this row id")
	cmd.Flags().Int64Var(&show, "show", 0, "Show the full evaluation stored under this row id")
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:         "version",
		Short:       "Show version information",
		Annotations: map[string]string{"standalone": "true"},
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("CortexReview v%s\n", version)
			fmt.Println("AI trade execution review desk")
		},
	}
}

func newConfigCmd(getApp func() *App, opts *globalOptions) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
		Long:  "Show, change, validate and locate the CortexReview configuration",
	}

	configCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		Run: func(cmd *cobra.Command, args []string) {
			app := getApp()
			showConfig(app.out, app.Config(), app.manager.Path())
		},
	})

	configCmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Validate configuration and credentials",
		RunE: func(cmd *cobra.Command, args []string) error {
			app := getApp()
			return validateConfig(app.out, app.Config(), app.Playbook().Name)
		},
	})

	configCmd.AddCommand(&cobra.Command{
		Use:     "set KEY VALUE",
		Short:   "Change one setting in the configuration file",
		Example: "  cortexreview config set provider openai\n  cortexreview config set journal_enabled true",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			app := getApp()
			if err := app.manager.Set(args[0], args[1]); err != nil {
				return err
			}
			display.Success(app.out, fmt.Sprintf("%s updated in %s", args[0], app.manager.Path()))
			return nil
		},
	})

	configCmd.AddCommand(&cobra.Command{
		Use:         "path",
		Short:       "Print the configuration file path",
		Annotations: map[string]string{"standalone": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			path := opts.configPath
			if path == "" {
				var err error
				if path, err = config.DefaultConfigPath(); err != nil {
					return err
				}
			}
			abs, err := filepath.Abs(path)
			if err != nil {
				return err
			}
			fmt.Println(abs)
			return nil
		},
	})

	return configCmd
}
