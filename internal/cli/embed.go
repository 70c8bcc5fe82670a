package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/yildizm/docvec/internal/embedding"
)

var (
	embedCheck   bool
	embedWorkers int
)

func newEmbedCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "embed TEXT...",
		Short: "Print the embeddings of texts",
		Long: `Embed each argument with the configured provider and print the vectors.
Nothing is stored. Useful to check a provider setup.

Examples:
  docvec embed "The cat sat on the mat" "Stock markets rose today"
  docvec embed --check hello --output json`,
		Args: cobra.MinimumNArgs(1),
		RunE: runEmbed,
	}

	cmd.Flags().BoolVar(&embedCheck, "check", false, "verify the provider is reachable before embedding")
	cmd.Flags().IntVar(&embedWorkers, "workers", 4, "concurrent embedding calls")

	return cmd
}

type embeddingOutput struct {
	Text      string    `json:"text"`
	Dimension int       `json:"dimension"`
	Vector    []float32 `json:"vector"`
}

func runEmbed(cmd *cobra.Command, args []string) error {
	provider, err := newProvider(GetGlobalConfig())
	if err != nil {
		return err
	}
	defer func() { _ = provider.Close() }()

	if hc, ok := provider.(embedding.HealthChecker); ok && embedCheck {
		if err := hc.HealthCheck(cmd.Context()); err != nil {
			return fmt.Errorf("provider %s is not healthy: %w", provider.Name(), err)
		}
	}

	vectors, err := embedding.EmbedAll(cmd.Context(), provider, args, embedWorkers)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if getOutputFormat() == "json" {
		outputs := make([]embeddingOutput, 0, len(vectors))
		for i, vec := range vectors {
			outputs = append(outputs, embeddingOutput{Text: args[i], Dimension: len(vec), Vector: vec})
		}
		data, err := json.MarshalIndent(outputs, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal embeddings: %w", err)
		}
		return writeOutput(out, append(data, '\n'))
	}

	fmt.Fprintf(out, "%s %s, %d dimensions\n", GetSymbol("info"), provider.Name(), provider.Dimension())
	for i, vec := range vectors {
		fmt.Fprintf(out, "%d. %s\n   %s\n", i+1, args[i], previewVector(vec, 8))
	}
	return nil
}

// previewVector prints the first n components of vec
func previewVector(vec []float32, n int) string {
	parts := make([]string, 0, n+1)
	for i := 0; i < len(vec) && i < n; i++ {
		parts = append(parts, fmt.Sprintf("%.4f", vec[i]))
	}
	if len(vec) > n {
		parts = append(parts, fmt.Sprintf("... (%d more)", len(vec)-n))
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
