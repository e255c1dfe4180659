package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/okian/sopmatch/internal/catalog"
	"github.com/okian/sopmatch/internal/domain/types"
	"github.com/okian/sopmatch/internal/output"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Inspect reviewer catalogs",
}

var catalogValidateCmd = &cobra.Command{
	Use:   "validate [path]",
	Short: "Validate a YAML, TOML or JSON reviewer catalog",
	Long: `Parse and validate a reviewer catalog. Without a path the embedded
default catalog is checked.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCatalogValidate,
}

var catalogShowCmd = &cobra.Command{
	Use:   "show [path]",
	Short: "List the reviewers in a catalog",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runCatalogShow,
}

func init() {
	rootCmd.AddCommand(catalogCmd)
	catalogCmd.AddCommand(catalogValidateCmd)
	catalogCmd.AddCommand(catalogShowCmd)
}

func loadCatalog(cmd *cobra.Command, args []string) ([]types.Reviewer, string, error) {
	path := ""
	if len(args) == 1 {
		path = args[0]
	}
	reviewers, err := catalog.Load(cmd.Context(), path)
	if err != nil {
		return nil, path, err
	}

	out := make([]types.Reviewer, len(reviewers))
	for i, r := range reviewers {
		out[i] = types.Reviewer{
			ID:          r.ID,
			Name:        r.Name,
			Expertise:   r.Expertise,
			Notes:       r.Notes,
			MaxCapacity: r.MaxCapacity,
			CurrentLoad: r.CurrentLoad,
		}
	}
	if path == "" {
		path = "embedded catalog"
	}
	return out, path, nil
}

func runCatalogValidate(cmd *cobra.Command, args []string) error {
	reviewers, source, err := loadCatalog(cmd, args)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s: %d reviewers OK\n", source, len(reviewers))
	return err
}

func runCatalogShow(cmd *cobra.Command, args []string) error {
	reviewers, _, err := loadCatalog(cmd, args)
	if err != nil {
		return err
	}
	return output.Write(cmd.OutOrStdout(), outputFmt, reviewers)
}
