package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/alienxp03/rostrum/internal/analysis"
	"github.com/alienxp03/rostrum/internal/archive"
	"github.com/alienxp03/rostrum/internal/config"
	"github.com/alienxp03/rostrum/internal/core"
	"github.com/alienxp03/rostrum/internal/engine"
	"github.com/alienxp03/rostrum/internal/export"
	"github.com/alienxp03/rostrum/internal/provider"
	"github.com/alienxp03/rostrum/internal/session"
	"github.com/alienxp03/rostrum/internal/tally"
	"github.com/alienxp03/rostrum/web/handlers"
)

var (
	cfgPath   string
	debugFlag bool
	appConfig *config.Config
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "rostrum",
	Short: "AI debate session orchestrator",
	Long: `rostrum orchestrates structured debates between AI participants.

Debaters argue a topic in rounds, a judge declares a winner after each
round, and finished debates are archived as JSON transcripts.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		opts := &slog.HandlerOptions{Level: slog.LevelInfo}
		if debugFlag {
			opts.Level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, opts)))

		var err error
		if cfgPath != "" {
			appConfig, err = config.LoadFrom(cfgPath)
		} else {
			appConfig, err = config.Load()
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "Config file path (default: ~/.rostrum/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debugFlag, "debug", false, "Enable debug logging")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(configCmd)
}

// ============================================================================
// SERVE COMMAND
// ============================================================================

var portFlag int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the debate API server",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().IntVar(&portFlag, "port", 0, "Server port (default from config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	store := session.NewStore()
	gen := provider.New(appConfig.ProviderConfig())
	eng := engine.New(store, gen)
	archiver := archive.New(store, appConfig.Archive.Dir)

	var analyzer analysis.Analyzer
	if appConfig.Analysis.Endpoint != "" {
		analyzer = analysis.NewClient(appConfig.Analysis.Endpoint, appConfig.Analysis.Timeout)
	}

	h := handlers.New(eng, archiver, analyzer, store)

	port := portFlag
	if port == 0 {
		port = appConfig.Server.Port
	}
	addr := fmt.Sprintf(":%d", port)
	server := &http.Server{
		Addr:    addr,
		Handler: h.Router(),
	}

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
		<-sigCh
		slog.Info("Shutting down...")
		server.Close()
	}()

	slog.Info("Starting rostrum server", "url", fmt.Sprintf("http://localhost%s", addr), "generator", gen.Name())
	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// ============================================================================
// RUN COMMAND
// ============================================================================

var (
	roundsFlag  int
	debatersVar []string
	judgeFlag   string
	saveFlag    bool
)

var runCmd = &cobra.Command{
	Use:   "run [topic]",
	Short: "Run a debate in the terminal",
	Long: `Run a complete debate on the given topic and print the transcript.

Examples:
  rostrum run "Is AI beneficial for humanity?"
  rostrum run "Tabs or spaces" --debater Optimist --debater Skeptic --rounds 3
  rostrum run "Climate policy" --save`,
	Args: cobra.MinimumNArgs(1),
	RunE: runDebate,
}

func init() {
	runCmd.Flags().IntVar(&roundsFlag, "rounds", 2, "Number of rounds to run")
	runCmd.Flags().StringArrayVar(&debatersVar, "debater", []string{"Proponent", "Opponent"}, "Debater name (repeatable)")
	runCmd.Flags().StringVar(&judgeFlag, "judge", "Judge", "Judge name")
	runCmd.Flags().BoolVar(&saveFlag, "save", false, "Archive the debate when done")
}

func runDebate(cmd *cobra.Command, args []string) error {
	topic := strings.Join(args, " ")

	entries := make([]core.RosterEntry, 0, len(debatersVar)+1)
	for _, name := range debatersVar {
		entries = append(entries, core.RosterEntry{
			Name:          name,
			Role:          core.RoleDebater,
			SystemMessage: fmt.Sprintf("You are %s, a debater. Argue your position persuasively and rebut your opponents.", name),
		})
	}
	entries = append(entries, core.RosterEntry{
		Name:          judgeFlag,
		Role:          core.RoleJudge,
		SystemMessage: "You are the judge. After each round, weigh the arguments and declare 'Round Winner: <name>'.",
	})

	store := session.NewStore()
	gen := provider.New(appConfig.ProviderConfig())
	eng := engine.New(store, gen)

	if !gen.Available() {
		return fmt.Errorf("generator %q is not available on this system", gen.Name())
	}

	result, err := eng.Start(cmd.Context(), topic, entries)
	if err != nil {
		return err
	}
	printMessages(result.Messages)

	for round := 2; round <= roundsFlag; round++ {
		messages, err := eng.Continue(cmd.Context(), result.SessionID)
		if err != nil {
			return err
		}
		printMessages(messages)
	}

	sess, messages, err := eng.Transcript(result.SessionID)
	if err != nil {
		return err
	}

	outcome := tally.Count(sess.Roster, messages)
	fmt.Println("=== Result ===")
	fmt.Printf("Winner: %s\n", outcome.Winner)
	for _, p := range sess.Debaters() {
		fmt.Printf("  %s: %d round(s)\n", p.ID, outcome.Scores[p.ID])
	}
	for _, warning := range outcome.Warnings {
		fmt.Printf("  warning: %s\n", warning)
	}

	if saveFlag {
		archiver := archive.New(store, appConfig.Archive.Dir)
		filename, _, err := archiver.Finalize(result.SessionID, nil)
		if err != nil {
			return err
		}
		fmt.Printf("Saved to %s\n", filepath.Join(appConfig.Archive.Dir, filename))
	}
	return nil
}

func printMessages(messages []core.Message) {
	currentRound := 0
	for _, msg := range messages {
		if msg.Round != currentRound {
			currentRound = msg.Round
			fmt.Printf("\n--- Round %d ---\n", currentRound)
		}
		fmt.Printf("\n[%s]\n%s\n", msg.Agent, msg.Content)
	}
}

// ============================================================================
// EXPORT COMMAND
// ============================================================================

var formatFlag string

var exportCmd = &cobra.Command{
	Use:   "export [archive.json]",
	Short: "Export an archived debate to Markdown or PDF",
	Args:  cobra.ExactArgs(1),
	RunE:  runExport,
}

func init() {
	exportCmd.Flags().StringVarP(&formatFlag, "format", "f", "markdown", "Export format (markdown, pdf)")
}

func runExport(cmd *cobra.Command, args []string) error {
	record, err := archive.Load(args[0])
	if err != nil {
		return err
	}

	exporter, err := export.GetExporter(export.Format(formatFlag))
	if err != nil {
		return err
	}

	filename := export.GenerateFilename(record, exporter.FileExtension())
	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", filename, err)
	}
	defer f.Close()

	if err := exporter.Export(record, f); err != nil {
		return fmt.Errorf("export failed: %w", err)
	}

	fmt.Printf("Exported to %s\n", filename)
	return nil
}

// ============================================================================
// CONFIG COMMAND
// ============================================================================

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print an example configuration file",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Print(config.GenerateExample())
		return nil
	},
}
