// edgarlens: SEC, price and news research bundles for US tickers.
//
// Main CLI entrypoint using cobra command framework.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	_ "time/tzdata"

	"github.com/spf13/cobra"
	"github.com/tidwall/pretty"
	"go.uber.org/zap"

	"github.com/seenimoa/edgarlens/api"
	"github.com/seenimoa/edgarlens/internal/agent"
	"github.com/seenimoa/edgarlens/internal/config"
	"github.com/seenimoa/edgarlens/internal/datasource"
	"github.com/seenimoa/edgarlens/internal/infra"
	"github.com/seenimoa/edgarlens/internal/llm"
	"github.com/seenimoa/edgarlens/internal/report"
	"github.com/seenimoa/edgarlens/internal/store"
	"github.com/seenimoa/edgarlens/pkg/models"
	"github.com/seenimoa/edgarlens/pkg/utils"
)

// Build-time variables (set via -ldflags).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Global config and logger, set by the root command's pre-run.
var (
	cfg    *config.Config
	logger *zap.Logger
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if logger != nil {
		_ = logger.Sync()
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "edgarlens",
	Short: "edgarlens: SEC fundamentals, price trend and news for a US ticker",
	Long: `edgarlens collects a per-ticker research bundle:
  - the company's SEC identity (ticker -> CIK),
  - its latest annual 10-K facts and ratios from XBRL,
  - a trailing daily close series with SMA and volatility metrics,
  - a recency-ordered sample of company news,
and optionally runs LLM analyst agents over it.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		configFile, _ := cmd.Flags().GetString("config")
		if configFile != "" {
			cfg, err = config.LoadFromFile(configFile)
		} else {
			cfg, err = config.Load()
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		level := cfg.Logging.Level
		if override, _ := cmd.Flags().GetString("log-level"); override != "" {
			level = override
		}
		logger, err = infra.NewLogger(level, cfg.Logging.Format)
		if err != nil {
			return fmt.Errorf("failed to build logger: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file path (default: ./config/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level override (debug, info, warn, error)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(collectCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(statusCmd)
}

// --- Version Command ---

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return nil
	},
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "edgarlens %s\n", version)
		fmt.Fprintf(out, "  commit:  %s\n", commit)
		fmt.Fprintf(out, "  built:   %s\n", date)
	},
}

// --- Collect Command ---

var collectCmd = &cobra.Command{
	Use:   "collect [ticker...]",
	Short: "Collect the raw bundle for one or more tickers",
	Long: `Collect the raw bundle {meta, sec, prices, news} for each ticker.

Examples:
  edgarlens collect AAPL
  edgarlens collect BRK.B --save --out ./bundles --no-timestamp
  edgarlens collect MSFT --format text`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")
		if err := checkFormat(format); err != nil {
			return err
		}
		filename, _ := cmd.Flags().GetString("filename")
		if filename != "" && len(args) > 1 {
			return errors.New("--filename can only be used with a single ticker")
		}

		agg := datasource.NewAggregatorFromConfig(cfg, logger)
		for _, arg := range args {
			ticker := utils.NormalizeTicker(arg)
			bundle := agg.Collect(cmd.Context(), ticker)

			if err := saveIfRequested(cmd, ticker, bundle); err != nil {
				return err
			}
			if err := writeOutput(cmd, format, bundle, nil); err != nil {
				return err
			}
		}
		return nil
	},
}

func init() {
	addOutputFlags(collectCmd)
}

// --- Analyze Command ---

var analyzeCmd = &cobra.Command{
	Use:   "analyze [ticker]",
	Short: "Collect a bundle and run the analyst agents over it",
	Long: `Collect the raw bundle for a ticker and run the SEC, news and stock
agents (or the ones named with --agent) over it.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")
		if err := checkFormat(format); err != nil {
			return err
		}
		names, _ := cmd.Flags().GetStringSlice("agent")

		provider, err := llm.NewFromConfig(cfg)
		if err != nil {
			return fmt.Errorf("LLM setup failed: %w", err)
		}
		orch := agent.NewOrchestrator(agent.OrchestratorConfig{
			Provider:   provider,
			WindowDays: cfg.Prices.WindowDays,
			Logger:     logger.Named("agents"),
		})
		// Validate names before spending any upstream calls.
		for _, name := range names {
			if _, ok := orch.Agent(name); !ok {
				return fmt.Errorf("unknown agent %q (available: %s)", name, strings.Join(orch.Names(), ", "))
			}
		}

		ticker := utils.NormalizeTicker(args[0])
		bundle := datasource.NewAggregatorFromConfig(cfg, logger).Collect(cmd.Context(), ticker)
		if err := saveIfRequested(cmd, ticker, bundle); err != nil {
			return err
		}

		results, err := orch.Run(cmd.Context(), ticker, bundle, names...)
		if err != nil {
			return err
		}
		return writeOutput(cmd, format, bundle, results)
	},
}

func init() {
	analyzeCmd.Flags().StringSlice("agent", nil, "agents to run (sec, news, stock); default all")
	addOutputFlags(analyzeCmd)
}

// --- Serve Command ---

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		port, _ := cmd.Flags().GetInt("port")
		if port == 0 {
			port = cfg.API.Port
		}

		api.Version = version
		srv, err := api.NewServerFromConfig(cfg, logger)
		if err != nil {
			return err
		}
		return srv.ListenAndServe(fmt.Sprintf("%s:%d", cfg.API.Host, port))
	},
}

func init() {
	serveCmd.Flags().Int("port", 0, "listen port (default: api.port from config)")
}

// --- Status Command ---

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show configuration and API key status",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, "═══════════════════════════════════════")
		fmt.Fprintln(out, "  edgarlens: System Status")
		fmt.Fprintln(out, "═══════════════════════════════════════")
		fmt.Fprintf(out, "  Version:       %s (%s)\n", version, commit)
		fmt.Fprintln(out)

		fmt.Fprintln(out, "  Configuration:")
		fmt.Fprintf(out, "    SEC User-Agent: %s\n", cfg.SEC.UserAgent)
		fmt.Fprintf(out, "    News Source:    %s (%d days, sample %d)\n", cfg.News.Provider, cfg.News.Days, cfg.News.SampleSize)
		fmt.Fprintf(out, "    Price Window:   %d days\n", cfg.Prices.WindowDays)
		fmt.Fprintf(out, "    LLM Provider:   %s (model: %s)\n", cfg.LLM.Primary, cfg.LLM.Model)
		fmt.Fprintf(out, "    Output Dir:     %s\n", cfg.Output.Dir)
		fmt.Fprintf(out, "    API Server:     %s:%d\n", cfg.API.Host, cfg.API.Port)
		fmt.Fprintln(out)

		fmt.Fprintln(out, "  API Keys:")
		for _, k := range config.CheckAPIKeys(cfg) {
			status := "not set"
			if k.IsSet {
				status = fmt.Sprintf("set (%s: %s)", k.Source, k.Masked)
			}
			fmt.Fprintf(out, "    %-25s %s\n", k.Name+":", status)
		}

		fmt.Fprintln(out, "═══════════════════════════════════════")
		return nil
	},
}

// ── Output helpers ──

func addOutputFlags(cmd *cobra.Command) {
	cmd.Flags().String("format", "json", "output format: json, text or html")
	cmd.Flags().Bool("color", false, "colorize JSON output")
	cmd.Flags().Bool("save", false, "save the raw bundle as JSON")
	cmd.Flags().String("out", "", "output directory for --save (default: output.dir from config)")
	cmd.Flags().String("filename", "", "file name for --save (default: <TICKER>_raw[_timestamp].json)")
	cmd.Flags().Bool("no-timestamp", false, "omit the timestamp from the saved file name")
}

func checkFormat(format string) error {
	switch format {
	case "json", "text", "html":
		return nil
	default:
		return fmt.Errorf("unsupported format %q (use json, text or html)", format)
	}
}

func saveIfRequested(cmd *cobra.Command, ticker string, bundle *models.RawBundle) error {
	if save, _ := cmd.Flags().GetBool("save"); !save {
		return nil
	}

	opts := store.Options{Dir: cfg.Output.Dir, Timestamp: cfg.Output.Timestamp}
	if dir, _ := cmd.Flags().GetString("out"); dir != "" {
		opts.Dir = dir
	}
	if noTS, _ := cmd.Flags().GetBool("no-timestamp"); noTS {
		opts.Timestamp = false
	}
	opts.Filename, _ = cmd.Flags().GetString("filename")

	path, err := store.Save(ticker, bundle, opts)
	if err != nil {
		return err
	}
	logger.Info("bundle saved", zap.String("ticker", ticker), zap.String("path", path))
	fmt.Fprintf(cmd.ErrOrStderr(), "saved %s\n", path)
	return nil
}

// writeOutput prints the bundle, with any agent results, in format.
func writeOutput(cmd *cobra.Command, format string, bundle *models.RawBundle, results map[string]*agent.AgentResult) error {
	w := cmd.OutOrStdout()
	switch format {
	case "text", "html":
		rc := report.DefaultReportConfig()
		rc.Format = report.ReportFormat(format)
		out, err := report.Generate(bundle, results, rc)
		if err != nil {
			return err
		}
		_, err = io.WriteString(w, out)
		return err
	}

	var v any = bundle
	if results != nil {
		v = struct {
			Bundle  *models.RawBundle              `json:"bundle"`
			Results map[string]*agent.AgentResult `json:"results"`
		}{bundle, results}
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	data = pretty.Pretty(data)
	if color, _ := cmd.Flags().GetBool("color"); color {
		data = pretty.Color(data, pretty.TerminalStyle)
	}
	_, err = w.Write(data)
	return err
}
