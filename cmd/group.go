package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/kozaktomas/listing-builder/internal/config"
	"github.com/kozaktomas/listing-builder/internal/grouper"
	"github.com/kozaktomas/listing-builder/internal/grouping"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

var groupCmd = &cobra.Command{
	Use:   "group [files or directories...]",
	Short: "Group a photo batch into listing candidates",
	Long: `Group a batch of photos into listing candidates, one group per
physical item, using perceptual fingerprints and visual similarity only.

Directories are scanned for image files (jpg, jpeg, png, gif, bmp, webp).
Photos are processed in the order given, so the same input always produces
the same grouping.

Examples:
  # Group all photos in an upload directory
  listing-builder group ./uploads

  # Stricter matching (fewer photos per group)
  listing-builder group ./uploads --threshold 0.85

  # Average-linkage clustering with its default threshold
  listing-builder group ./uploads --strategy average

  # Output as JSON
  listing-builder group ./uploads --json`,
	Args: cobra.MinimumNArgs(1),
	RunE: runGroup,
}

func init() {
	rootCmd.AddCommand(groupCmd)
	registerGroupFlags(groupCmd)
}

func registerGroupFlags(cmd *cobra.Command) {
	cmd.Flags().String("strategy", "greedy", "Clustering strategy: greedy or average")
	cmd.Flags().Float64("threshold", 0, "Similarity threshold in [0,1] (default: per-strategy)")
	cmd.Flags().Int("workers", 0, "Number of parallel fingerprint workers")
	cmd.Flags().Bool("json", false, "Output as JSON")
}

// resolveGroupingOptions resolves strategy and threshold from flags and
// environment variables. Explicit flag values win and are passed through
// untouched, even when out of range, so the engine's validator rejects them
// instead of a default silently taking over.
func resolveGroupingOptions(cmd *cobra.Command, cfg *config.Config) (grouping.Strategy, float64, error) {
	strategyName := mustGetString(cmd, "strategy")
	if !cmd.Flags().Changed("strategy") && cfg.Grouping.Strategy != "" {
		strategyName = cfg.Grouping.Strategy
	}
	strategy, err := grouping.ParseStrategy(strategyName)
	if err != nil {
		return "", 0, err
	}

	threshold := mustGetFloat64(cmd, "threshold")
	if !cmd.Flags().Changed("threshold") {
		threshold = cfg.Grouping.Threshold
		if threshold == 0 {
			threshold = cfg.DefaultThreshold(string(strategy))
		}
	}
	return strategy, threshold, nil
}

// GroupOutput represents the JSON output structure for the group command
type GroupOutput struct {
	Strategy  string                 `json:"strategy"`
	Threshold float64                `json:"threshold"`
	Groups    []grouping.PhotoGroup  `json:"groups"`
	Skipped   []grouper.SkippedPhoto `json:"skipped,omitempty"`
	Count     int                    `json:"count"`
}

func runGroup(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	jsonOutput := mustGetBool(cmd, "json")

	strategy, threshold, err := resolveGroupingOptions(cmd, cfg)
	if err != nil {
		return err
	}

	workers := mustGetInt(cmd, "workers")
	if workers <= 0 {
		workers = cfg.Grouping.Concurrency
	}

	paths, err := collectImagePaths(args)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return errors.New("no image files found")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		cancel()
	}()

	opts := grouper.Options{
		Strategy:    strategy,
		Threshold:   threshold,
		Concurrency: workers,
	}

	if !jsonOutput {
		bar := progressbar.NewOptions(len(paths),
			progressbar.OptionSetDescription(fmt.Sprintf("Fingerprinting photos (%d workers)", workers)),
			progressbar.OptionShowCount(),
			progressbar.OptionShowIts(),
			progressbar.OptionSetItsString("photos"),
			progressbar.OptionShowElapsedTimeOnFinish(),
			progressbar.OptionFullWidth(),
			progressbar.OptionSetTheme(progressbar.Theme{
				Saucer:        "=",
				SaucerHead:    ">",
				SaucerPadding: " ",
				BarStart:      "[",
				BarEnd:        "]",
			}),
		)
		opts.OnProgress = func(done, total int) { bar.Add(1) }
	}

	result, err := grouper.GroupPhotosByItem(ctx, paths, opts)
	if err != nil {
		return err
	}
	if !jsonOutput {
		fmt.Println() // New line after progress bar
	}

	if jsonOutput {
		if err := json.NewEncoder(os.Stdout).Encode(GroupOutput{
			Strategy:  string(strategy),
			Threshold: threshold,
			Groups:    result.Groups,
			Skipped:   result.Skipped,
			Count:     len(result.Groups),
		}); err != nil {
			return fmt.Errorf("encoding JSON output: %w", err)
		}
		return nil
	}

	printGroupTable(result.Groups)

	for _, s := range result.Skipped {
		fmt.Printf("Warning: skipped %s: %v\n", s.Path, s.Err)
	}
	fmt.Printf("\n%d photos grouped into %d listing candidates\n",
		len(paths)-len(result.Skipped), len(result.Groups))
	return nil
}

// printGroupTable prints the group set as a human-readable table.
func printGroupTable(groups []grouping.PhotoGroup) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "GROUP\tPHOTOS\tCONFIDENCE\tPRIMARY")
	fmt.Fprintln(w, "-----\t------\t----------\t-------")
	for _, g := range groups {
		fmt.Fprintf(w, "%s\t%d\t%.2f\t%s\n", g.ID, len(g.Photos), g.Confidence, g.PrimaryPhoto)
	}
	w.Flush()
}

// imageExtensions are the file extensions considered part of a photo batch.
var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".bmp":  true,
	".webp": true,
}

// collectImagePaths expands the command arguments into an ordered list of
// image file paths. Directories are walked in lexical order so the batch
// order is stable between runs.
func collectImagePaths(args []string) ([]string, error) {
	var paths []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", arg, err)
		}

		if !info.IsDir() {
			paths = append(paths, arg)
			continue
		}

		err = filepath.WalkDir(arg, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				return nil
			}
			if imageExtensions[strings.ToLower(filepath.Ext(path))] {
				paths = append(paths, path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("scanning %s: %w", arg, err)
		}
	}
	return paths, nil
}
