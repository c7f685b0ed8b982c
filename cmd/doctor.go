package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"github.com/kamusis/imgrepo-cli/internal/config"
	"github.com/kamusis/imgrepo-cli/internal/corpus"
	"github.com/kamusis/imgrepo-cli/internal/features"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor <image-dir>",
	Short: "Check the config and every file of an image directory",
	Long: `Check that imgrepo's config is valid and report, file by file, which
entries of <image-dir> would be left out of the repository and why.
Run this command when a picture does not show up in searches.`,
	Args: checkImageDirArgs,
	RunE: runDoctor,
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}

func runDoctor(_ *cobra.Command, args []string) error {
	dir := args[0]
	allOK := true
	failD := func(format string, args ...any) {
		printErr("", fmt.Sprintf(format, args...))
		allOK = false
	}

	printSection("imgrepo doctor")
	fmt.Fprintln(stdout)

	// ── Check 1: imgrepo.yaml is valid ────────────────────────────────────────
	fmt.Fprintln(stdout, "[ imgrepo.yaml ]")
	cfgPath, _ := config.ConfigPath()
	cfg, err := config.Load()
	switch {
	case err != nil:
		failD("cannot load config: %v", err)
		cfg = config.DefaultConfig()
		printWarn("", "continuing with default settings")
	default:
		if _, statErr := os.Stat(cfgPath); errors.Is(statErr, os.ErrNotExist) {
			printSkip("", fmt.Sprintf("%s not found, using defaults (run 'imgrepo init' to create it)", cfgPath))
		} else {
			printOK("", fmt.Sprintf("valid YAML: %s", cfgPath))
		}
		printInfo("", fmt.Sprintf("canvas %dx%d %s, %d worker(s)", cfg.Canvas.Width, cfg.Canvas.Height, cfg.Canvas.Filter, cfg.Workers))
	}
	fmt.Fprintln(stdout)

	// ── Check 2: Image files ──────────────────────────────────────────────────
	fmt.Fprintln(stdout, "[ Image files ]")
	bad, err := doctorImages(cfg, dir)
	if err != nil {
		failD("%v", err)
	} else if bad > 0 {
		failD("%d file(s) will be left out of the repository", bad)
	}
	fmt.Fprintln(stdout)

	// ── Check 3: Session lock ─────────────────────────────────────────────────
	fmt.Fprintln(stdout, "[ Session lock ]")
	if !cfg.SessionLock {
		printSkip("", "session_lock is disabled")
	} else if lockPath, err := sessionLockPath(dir); err != nil {
		failD("%v", err)
	} else {
		l := flock.New(lockPath)
		locked, err := l.TryLock()
		switch {
		case err != nil:
			failD("cannot probe lock %s: %v", lockPath, err)
		case !locked:
			printWarn("", fmt.Sprintf("another imgrepo session is browsing %s", dir))
		default:
			_ = l.Unlock()
			printOK("", fmt.Sprintf("lock available: %s", lockPath))
		}
	}
	fmt.Fprintln(stdout)

	// ── Summary ──────────────────────────────────────────────────────────────────
	fmt.Fprintln(stdout, "===================")
	if allOK {
		fmt.Fprintln(stdout, "✓  All checks passed. imgrepo is ready to use.")
		return nil
	}
	fmt.Fprintln(stderr, "✗  One or more checks failed. See details above.")
	return fmt.Errorf("doctor found issues")
}

// doctorImages validates every file imgrepo would index from dir and
// returns how many would be skipped.
func doctorImages(cfg *config.Config, dir string) (int, error) {
	paths, err := corpus.List(dir, corpus.Options{Recursive: cfg.Recursive, Excludes: cfg.Excludes})
	if err != nil {
		return 0, err
	}
	if len(paths) == 0 {
		printMiss("", fmt.Sprintf("no files in %s", dir))
		return 0, nil
	}
	var bad int
	for _, p := range paths {
		name := filepath.Base(p)
		err := features.Validate(p)
		switch {
		case err == nil:
			printOK(name, "OK")
		case errors.Is(err, features.ErrUnsupportedFormat):
			printSkip(name, "not an image (unsupported extension)")
			bad++
		default:
			printErr(name, err.Error())
			bad++
		}
	}
	return bad, nil
}
