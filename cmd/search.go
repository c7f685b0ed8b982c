package cmd

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/kamusis/imgrepo-cli/internal/config"
	"github.com/kamusis/imgrepo-cli/internal/repo"
)

var (
	flagSearchText  string
	flagSearchImage string
)

var searchCmd = &cobra.Command{
	Use:   "search <image-dir> (--text <query> | --image <path>)",
	Short: "Run a single text or image search and print the matches",
	Long: `Build the repository for <image-dir>, run one search against it and print
the matching images, without starting the interactive shell.

Example:
  imgrepo search ~/Pictures --text holiday
  imgrepo search ~/Pictures --image ~/Downloads/beach.jpg`,
	Args: checkImageDirArgs,
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().StringVar(&flagSearchText, "text", "", "Match images whose file name contains this text")
	searchCmd.Flags().StringVar(&flagSearchImage, "image", "", "Match images in the cluster nearest to this image")
	searchCmd.MarkFlagsMutuallyExclusive("text", "image")
	searchCmd.MarkFlagsOneRequired("text", "image")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadRuntime(cmd)
	if err != nil {
		return err
	}
	q := searchQuery{text: flagSearchText, image: flagSearchImage, byImage: cmd.Flags().Changed("image")}
	err = searchOnce(cfg, log, args[0], q)
	flushMetrics(cfg)
	return err
}

type searchQuery struct {
	text    string
	image   string
	byImage bool
}

// searchOnce builds the root view over dir and prints the result of one search.
// A search without hits is not an error.
func searchOnce(cfg *config.Config, log logrus.FieldLogger, dir string, q searchQuery) error {
	_, root, err := openRepository(cfg, log, dir)
	if err != nil {
		return err
	}

	var res *repo.View
	if q.byImage {
		res, err = root.ImageSearch(q.image)
	} else {
		res, err = root.TextSearch(q.text)
	}
	switch {
	case errors.Is(err, repo.ErrNoMatch):
		printMiss("", "No search results found")
		return nil
	case errors.Is(err, repo.ErrEmptyRepository):
		printWarn("", fmt.Sprintf("No usable images in %s", dir))
		return nil
	case err != nil:
		return fmt.Errorf("search failed: %w", err)
	}

	printOK("", fmt.Sprintf("%d search result(s):", res.Len()))
	printPaths(res.Images())
	return nil
}
