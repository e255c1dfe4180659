package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	service "github.com/okian/sopmatch/internal/app"
	"github.com/okian/sopmatch/internal/catalog"
	"github.com/okian/sopmatch/internal/domain/types"
	"github.com/okian/sopmatch/internal/output"
	"github.com/okian/sopmatch/pkg/logger"
)

// rankSubmissionID names the single in-process submission the rank command stores.
const rankSubmissionID = "cli"

var rankCmd = &cobra.Command{
	Use:   "rank",
	Short: "Rank the reviewer catalog against a statement",
	Long: `Rank the reviewer catalog against a Statement of Purpose read from a file
or stdin, without running the HTTP service.

Examples:
  sopmatch rank --text sop.txt --field "machine learning"
  cat sop.txt | sopmatch rank --top 3 -o json
  sopmatch rank --text sop.txt --catalog reviewers.toml`,
	Args: cobra.NoArgs,
	RunE: runRank,
}

var (
	rankTextPath string
	rankField    string
	rankTopK     int
	rankCatalog  string
)

func init() {
	rootCmd.AddCommand(rankCmd)
	rankCmd.Flags().StringVarP(&rankTextPath, "text", "t", "-", `statement file, "-" for stdin`)
	rankCmd.Flags().StringVarP(&rankField, "field", "f", "", "declared field of interest")
	rankCmd.Flags().IntVarP(&rankTopK, "top", "k", 0, "number of reviewers to return (default: default_top_k)")
	rankCmd.Flags().StringVar(&rankCatalog, "catalog", "", "reviewer catalog (default: catalog_path or the embedded catalog)")
}

func runRank(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	topK := rankTopK
	if topK == 0 {
		topK = cfg.DefaultTopK
	}
	catalogPath := cfg.CatalogPath
	if rankCatalog != "" {
		catalogPath = rankCatalog
	}

	text, err := readText(cmd.InOrStdin(), rankTextPath)
	if err != nil {
		return err
	}
	reviewers, err := catalog.Load(ctx, catalogPath)
	if err != nil {
		return err
	}

	svc := service.New(
		service.WithLogger(logger.Named("rank")),
		service.WithReviewers(reviewers),
		service.WithWorkerCount(1),
		service.WithWeights(cfg.Weights.Scoring()),
		service.WithNGramMax(cfg.NGramMax),
		service.WithStopWords(cfg.StopWords),
	)
	if err := svc.Start(ctx); err != nil {
		return err
	}
	defer svc.Stop()

	sub := types.Submission{ID: rankSubmissionID, Text: text}
	if field := strings.TrimSpace(rankField); field != "" {
		sub.Preferences = &types.Preferences{Field: field}
	}
	if _, _, err := svc.PutSubmission(ctx, sub); err != nil {
		return err
	}

	res, err := svc.Match(ctx, rankSubmissionID, topK)
	if err != nil {
		return err
	}
	return output.Write(cmd.OutOrStdout(), outputFmt, res)
}

func readText(stdin io.Reader, path string) (string, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("read statement %s: %w", path, err)
	}
	return string(data), nil
}
