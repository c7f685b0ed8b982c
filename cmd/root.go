package cmd

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/kamusis/imgrepo-cli/internal/config"
	"github.com/kamusis/imgrepo-cli/internal/corpus"
	"github.com/kamusis/imgrepo-cli/internal/metrics"
	"github.com/kamusis/imgrepo-cli/internal/repo"
)

var (
	flagLogLevel  string
	flagWorkers   int
	flagRecursive bool
	flagNoLock    bool
)

var rootCmd = &cobra.Command{
	Use:          "imgrepo <image-dir>",
	Short:        "Browse an image directory by file name and by similarity",
	SilenceUsage: true, // don't print usage on operational errors
	Long: `imgrepo indexes the images of a directory and opens an interactive shell.

Every search narrows the current view to its results and clusters them again,
so searches can be chained and undone with "return" and "return home".
Settings are read from ~/.imgrepo/imgrepo.yaml (see 'imgrepo init').`,
	Args: checkImageDirArgs,
	RunE: runRoot,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Override log_level from the config (debug, info, warn, error)")
	rootCmd.PersistentFlags().IntVar(&flagWorkers, "workers", 0, "Override the number of concurrent image decoders")
	rootCmd.PersistentFlags().BoolVar(&flagRecursive, "recursive", false, "Include images in subdirectories")
	rootCmd.Flags().BoolVar(&flagNoLock, "no-lock", false, "Do not take the per-directory session lock")
}

// Execute is called by main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// checkImageDirArgs requires exactly one argument naming an existing directory.
func checkImageDirArgs(_ *cobra.Command, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("invalid number of arguments: expected one image directory, got %d", len(args))
	}
	return corpus.CheckDir(args[0])
}

func runRoot(cmd *cobra.Command, args []string) error {
	dir := args[0]
	cfg, log, err := loadRuntime(cmd)
	if err != nil {
		return err
	}

	if cfg.SessionLock && !flagNoLock {
		unlock, err := acquireSessionLock(dir, sessionLockTimeout)
		if err != nil {
			return err
		}
		defer unlock()
	}

	printInfo("", "Building image repository and clustering images for searching, wait a few moments...")
	_, root, err := openRepository(cfg, log, dir)
	if err != nil {
		return err
	}
	printViewSummary(root)

	sh := newShell(root)
	runErr := sh.run(cmd.InOrStdin())
	flushMetrics(cfg)
	return runErr
}

// loadRuntime loads the config, applies command-line overrides and returns
// a logger configured from it.
func loadRuntime(cmd *cobra.Command) (*config.Config, *logrus.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("cannot load config: %w", err)
	}
	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.LogLevel = flagLogLevel
	}
	if flags.Changed("workers") {
		cfg.Workers = flagWorkers
	}
	if flags.Changed("recursive") {
		cfg.Recursive = flagRecursive
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	log, err := newLogger(cfg)
	if err != nil {
		return nil, nil, err
	}
	return cfg, log, nil
}

func newLogger(cfg *config.Config) (*logrus.Logger, error) {
	lvl, err := cfg.Level()
	if err != nil {
		return nil, err
	}
	log := logrus.New()
	log.SetOutput(stderr)
	log.SetLevel(lvl)
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	return log, nil
}

// openRepository lists dir and builds the root view over it.
func openRepository(cfg *config.Config, log logrus.FieldLogger, dir string) (*repo.Repository, *repo.View, error) {
	paths, err := corpus.List(dir, corpus.Options{Recursive: cfg.Recursive, Excludes: cfg.Excludes})
	if err != nil {
		return nil, nil, err
	}
	r, err := repo.New(repo.Options{
		Canvas:  cfg.Canvas,
		Cluster: cfg.Clustering,
		Workers: cfg.Workers,
		Logger:  log,
	})
	if err != nil {
		return nil, nil, err
	}
	return r, r.Open(paths), nil
}

func printViewSummary(v *repo.View) {
	k := 0
	if c := v.Clusters(); c != nil {
		k = c.K()
	}
	msg := fmt.Sprintf("Indexed %d image(s) into %d cluster(s)", v.Len(), k)
	if n := len(v.Skipped()); n > 0 {
		msg += fmt.Sprintf(", %d file(s) skipped", n)
	}
	if v.Empty() {
		printWarn("", msg+"; image search is disabled for this view")
		return
	}
	printOK("", msg)
}

// flushMetrics writes the metrics textfile when one is configured. Failures
// are reported but never change the exit status.
func flushMetrics(cfg *config.Config) {
	if cfg.MetricsFile == "" {
		return
	}
	if err := metrics.WriteTextfile(cfg.MetricsFile); err != nil {
		printWarn("", fmt.Sprintf("cannot write metrics to %s: %v", cfg.MetricsFile, err))
	}
}
