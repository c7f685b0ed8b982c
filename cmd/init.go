package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kamusis/imgrepo-cli/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default imgrepo config",
	Long: `Create ~/.imgrepo/ with a default imgrepo.yaml and a .env template
holding the environment overrides (IMGREPO_LOG_LEVEL, IMGREPO_METRICS_FILE,
IMGREPO_WORKERS). Existing files are left alone unless --force is given.`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

var flagInitForce bool

func init() {
	initCmd.Flags().BoolVar(&flagInitForce, "force", false, "Overwrite an existing imgrepo.yaml with the defaults")
	rootCmd.AddCommand(initCmd)
}

func runInit(_ *cobra.Command, _ []string) error {
	if err := initConfig(flagInitForce); err != nil {
		return err
	}
	fmt.Fprintln(stdout, "\n✓  imgrepo init complete. Run 'imgrepo <image-dir>' to start browsing.")
	return nil
}

func initConfig(force bool) error {
	dir, err := config.ImgrepoDir()
	if err != nil {
		return err
	}
	cfgPath, err := config.ConfigPath()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("cannot create %s: %w", dir, err)
	}
	printOK("", fmt.Sprintf("imgrepo directory ready: %s", dir))

	_, statErr := os.Stat(cfgPath)
	switch {
	case force || errors.Is(statErr, os.ErrNotExist):
		if err := config.Save(config.DefaultConfig()); err != nil {
			return err
		}
		printOK("", fmt.Sprintf("Config written: %s", cfgPath))
	case statErr != nil:
		return fmt.Errorf("cannot stat %s: %w", cfgPath, statErr)
	default:
		printSkip("", fmt.Sprintf("Config already exists: %s", cfgPath))
	}

	if err := config.EnsureDotEnvTemplate(); err != nil {
		return err
	}
	envPath, _ := config.DotEnvPath()
	printOK("", fmt.Sprintf("Environment overrides: %s", envPath))
	return nil
}
