package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/kdduha/proposal-relay/internal/client"
	"github.com/kdduha/proposal-relay/internal/models"
	"github.com/spf13/cobra"
)

var (
	serverURL string
	showStats bool

	technologyDomain string
	historyText      string
	categoryFiles    = map[models.Category]*[]string{
		models.CategoryRFP:      new([]string),
		models.CategorySample:   new([]string),
		models.CategoryTaskList: new([]string),
		models.CategoryHistory:  new([]string),
	}

	revisionType int
)

var rootCmd = &cobra.Command{
	Use:          "proposalctl",
	Short:        "Stream proposals from a proposal-relay server",
	SilenceUsage: true,
}

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Draft a proposal from uploaded documents",
	RunE: func(cmd *cobra.Command, _ []string) error {
		req := &models.GenerateRequest{
			TechnologyDomain: technologyDomain,
			HistoryText:      historyText,
			Files:            map[models.Category][]models.UploadedFile{},
		}
		for c, paths := range categoryFiles {
			for _, p := range *paths {
				content, err := os.ReadFile(p)
				if err != nil {
					return err
				}
				req.Files[c] = append(req.Files[c], models.UploadedFile{Name: filepath.Base(p), Content: content})
			}
		}
		return run(func(c *client.Client, onChunk client.ChunkFunc) (string, error) {
			return c.Generate(cmd.Context(), req, onChunk)
		})
	},
}

var reviseCmd = &cobra.Command{
	Use:   "revise <draft-file>",
	Short: "Revise a draft (type 1: impact, type 2: assertive)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		draft, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		req := &models.ReviseRequest{Draft: string(draft), RevisionType: models.RevisionType(revisionType)}
		return run(func(c *client.Client, onChunk client.ChunkFunc) (string, error) {
			return c.Revise(cmd.Context(), req, onChunk)
		})
	},
}

var imagePromptsCmd = &cobra.Command{
	Use:   "image-prompts <draft-file>",
	Short: "Suggest images for a draft",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		draft, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		req := &models.ImagePromptsRequest{Draft: string(draft)}
		return run(func(c *client.Client, onChunk client.ChunkFunc) (string, error) {
			return c.ImagePrompts(cmd.Context(), req, onChunk)
		})
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "http://localhost:8080", "relay base URL")
	rootCmd.PersistentFlags().BoolVar(&showStats, "stats", false, "print size and timing to stderr")

	generateCmd.Flags().StringVar(&technologyDomain, "domain", "", "technology domain")
	generateCmd.Flags().StringVar(&historyText, "history-text", "", "free-form track record notes")
	generateCmd.Flags().StringSliceVar(categoryFiles[models.CategoryRFP], "rfp", nil, "RFP documents")
	generateCmd.Flags().StringSliceVar(categoryFiles[models.CategorySample], "sample", nil, "proposal examples")
	generateCmd.Flags().StringSliceVar(categoryFiles[models.CategoryTaskList], "task-list", nil, "completed project lists")
	generateCmd.Flags().StringSliceVar(categoryFiles[models.CategoryHistory], "history", nil, "track record documents")

	reviseCmd.Flags().IntVar(&revisionType, "type", int(models.RevisionImpact), "revision type (1 or 2)")

	rootCmd.AddCommand(generateCmd, reviseCmd, imagePromptsCmd)
}

// run prints chunks to stdout as they arrive.
func run(call func(*client.Client, client.ChunkFunc) (string, error)) error {
	c := client.New(serverURL, nil)

	var firstChunk time.Duration
	start := time.Now()
	text, err := call(c, func(chunk string) error {
		if firstChunk == 0 {
			firstChunk = time.Since(start)
		}
		_, werr := fmt.Fprint(os.Stdout, chunk)
		return werr
	})
	fmt.Fprintln(os.Stdout)

	if showStats {
		fmt.Fprintf(os.Stderr, "received %s in %v (first chunk after %v)\n",
			humanBytes(int64(len(text))),
			time.Since(start).Round(time.Millisecond),
			firstChunk.Round(time.Millisecond),
		)
	}
	return err
}

func humanBytes(size int64) string {
	const (
		KB = 1024
		MB = KB * 1024
	)
	switch {
	case size >= MB:
		return fmt.Sprintf("%.2f MB", float64(size)/MB)
	case size >= KB:
		return fmt.Sprintf("%.2f KB", float64(size)/KB)
	default:
		return fmt.Sprintf("%d B", size)
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
