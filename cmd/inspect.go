package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/kamusis/imgrepo-cli/internal/repo"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <image-dir>",
	Short: "Show the clusters and fingerprints of an image directory",
	Long: `Build the repository for <image-dir> and print how its images were
clustered, together with the fingerprint recorded for each image.

Example:
  imgrepo inspect ~/Pictures`,
	Args: checkImageDirArgs,
	RunE: runInspect,
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}

func runInspect(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadRuntime(cmd)
	if err != nil {
		return err
	}
	_, root, err := openRepository(cfg, log, args[0])
	if err != nil {
		return err
	}
	printInspect(root)
	flushMetrics(cfg)
	return nil
}

func printInspect(v *repo.View) {
	printSection("Repository")
	printViewSummary(v)
	if ix := v.Clusters(); ix != nil {
		state := "converged"
		if !ix.Converged() {
			state = "stopped at iteration cap"
		}
		printInfo("", fmt.Sprintf("k-means: %d iteration(s), %s", ix.Iterations(), state))
	}

	printSection("Clusters")
	printClusters(v)

	printSection("Fingerprints")
	tw := tabwriter.NewWriter(stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "  CLUSTER\tFINGERPRINT\tIMAGE")
	for _, rec := range v.Records() {
		c, _ := v.ClusterOf(rec.Path)
		fmt.Fprintf(tw, "  %d\t%#x\t%s\n", c, rec.Fingerprint, rec.Path)
	}
	_ = tw.Flush()

	if sk := v.Skipped(); len(sk) > 0 {
		printSection("Skipped")
		for _, s := range sk {
			printSkip("", fmt.Sprintf("%s: %v", s.Path, s.Err))
		}
	}
}
