package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/yildizm/docvec/internal/common"
	"github.com/yildizm/docvec/internal/docstore"
)

var (
	queryTopK     int
	queryCategory string
	queryWhere    []string
	queryMinScore float64
)

func newQueryCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "query TEXT...",
		Short: "Find the documents most similar to a text",
		Long: `Embed TEXT and return the nearest stored documents, best first.

Filters are exact matches on metadata and are combined with AND. --category
is shorthand for --where <category_key>=C.

Ranking is only as semantic as the embedding provider. The default hash
provider works offline and matches shared words and word fragments, so
"feline pet" will not find "The cat sat on the mat". Set embedding.provider
to ollama or openai for meaning-based ranking.

Examples:
  docvec query feline pet
  docvec query "markets" --category finance --top-k 3
  docvec query "rates" --where year=2024 --min-score 0.2 --output json`,
		Args: cobra.MinimumNArgs(1),
		RunE: runQuery,
	}

	cmd.Flags().IntVarP(&queryTopK, "top-k", "k", 0, "maximum number of results (default from config)")
	cmd.Flags().StringVar(&queryCategory, "category", "", "only match documents in this category")
	cmd.Flags().StringArrayVarP(&queryWhere, "where", "w", nil, "metadata filter as key=value (repeatable)")
	cmd.Flags().Float64Var(&queryMinScore, "min-score", 0, "drop matches scoring below this value (default from config)")

	return cmd
}

func runQuery(cmd *cobra.Command, args []string) error {
	cfg := GetGlobalConfig()

	req, err := buildQueryRequest(strings.Join(args, " "), cfg.Query.CategoryKey)
	if err != nil {
		return err
	}
	if !cmd.Flags().Changed("top-k") {
		req.TopK = cfg.Query.TopK
	}
	if !cmd.Flags().Changed("min-score") {
		req.MinScore = cfg.Query.MinScore
	}

	store, err := openStore(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer closeStore(store)

	result, err := store.Query(cmd.Context(), req)
	if err != nil {
		return err
	}

	f, err := getFormatter()
	if err != nil {
		return err
	}
	output, err := f.FormatQuery(result)
	if err != nil {
		return fmt.Errorf("failed to format results: %w", err)
	}
	return writeOutput(cmd.OutOrStdout(), output)
}

// buildQueryRequest turns the query flags into a request. A category that
// conflicts with a --where on the same key is rejected.
func buildQueryRequest(text, categoryKey string) (docstore.QueryRequest, error) {
	where, err := parsePairs(queryWhere)
	if err != nil {
		return docstore.QueryRequest{}, err
	}

	filters := common.Filter(where)
	if queryCategory != "" {
		if existing, ok := filters[categoryKey]; ok && common.ValueKey(existing) != common.ValueKey(queryCategory) {
			return docstore.QueryRequest{}, fmt.Errorf("--category %q conflicts with --where %s=%v", queryCategory, categoryKey, existing)
		}
		filters[categoryKey] = queryCategory
	}

	return docstore.QueryRequest{
		Text:     text,
		Filters:  filters,
		TopK:     queryTopK,
		MinScore: queryMinScore,
	}, nil
}
