// Package main provides the investnotes command line. It transcribes Lao
// Liu's handwritten notebook, extracts the investment ideas in it and
// produces the stock data files used by the mini-program.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"investnotes/internal/utils"
)

// app carries what every command needs once the root command has loaded
// the configuration.
type app struct {
	configPath string
	verbose    bool

	config *utils.Config
	logger *utils.Logger
	start  time.Time
}

// newRootCmd builds the command tree around a. The caller runs a.teardown
// once the command returns, whether it failed or not.
//
// Parameters:
//   - a: Shared state filled in by setup
//
// Returns:
//   - *cobra.Command: The root command with every subcommand attached
func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:               "investnotes",
		Short:             "Lao Liu notebook OCR, note analysis and mini-program stock data",
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
	}
	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", defaultConfigPath(), "path to the YAML configuration")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(
		newOCRCmd(a),
		newWatchCmd(a),
		newAnalyzeCmd(a),
		newRulesCmd(a),
		newQuotesCmd(a),
		newGenerateCmd(a),
		newSyncCmd(a),
		newExportXLSXCmd(a),
		newServeCmd(a),
		newScheduleCmd(a),
		newCheckCmd(a),
	)
	return root
}

func defaultConfigPath() string {
	if p := os.Getenv("CONFIG_PATH"); p != "" {
		return p
	}
	return "configs/config.yaml"
}

// setup loads the configuration and opens the logger.
//
// Parameters:
//   - cmd: The command being run
//   - args: Its positional arguments
//
// Returns:
//   - error: Any error loading the configuration or creating the log file
func (a *app) setup(cmd *cobra.Command, args []string) error {
	a.start = time.Now()

	config, err := utils.LoadConfigOrDefault(a.configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := config.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	level := config.Logging.Level
	if a.verbose {
		level = "debug"
	}
	logger, err := utils.NewLoggerAt(config.Logging.Dir, level)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	a.config = config
	a.logger = logger
	logger.Debug("Loaded configuration from %s", a.configPath)
	return nil
}

// teardown logs the outcome and total time, then flushes and closes the log
// file. It does nothing when setup never opened the logger.
func (a *app) teardown(err error) {
	if a.logger == nil {
		return
	}
	if err != nil {
		a.logger.Error("Command failed: %v", err)
	}
	a.logger.Info("Total execution time: %v", time.Since(a.start).Round(time.Millisecond))
	a.logger.Close()
	a.logger = nil
}

func seconds(n float64) time.Duration {
	return time.Duration(n * float64(time.Second))
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := &app{}
	var err error
	defer func() { a.teardown(err) }()

	if err = newRootCmd(a).ExecuteContext(ctx); err != nil {
		return 1
	}
	return 0
}

func main() {
	os.Exit(run())
}
