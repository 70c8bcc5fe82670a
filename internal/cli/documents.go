package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/yildizm/docvec/internal/common"
	"gopkg.in/yaml.v3"
)

// documentFlags are shared by create and update
type documentFlags struct {
	text     string
	category string
	meta     []string
}

func (f *documentFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.text, "text", "t", "", "document text (required)")
	cmd.Flags().StringVar(&f.category, "category", "", "category, stored under the configured category key")
	cmd.Flags().StringArrayVarP(&f.meta, "meta", "m", nil, "metadata as key=value (repeatable)")
	_ = cmd.MarkFlagRequired("text")
}

// metadata combines --meta pairs and --category into one map
func (f *documentFlags) metadata(categoryKey string) (common.Metadata, error) {
	md, err := parsePairs(f.meta)
	if err != nil {
		return nil, err
	}
	if f.category != "" {
		if existing, ok := md[categoryKey]; ok && common.ValueKey(existing) != common.ValueKey(f.category) {
			return nil, fmt.Errorf("--category %q conflicts with --meta %s=%v", f.category, categoryKey, existing)
		}
		md[categoryKey] = f.category
	}
	return common.Metadata(md), nil
}

func newCreateCommand() *cobra.Command {
	var flags documentFlags

	cmd := &cobra.Command{
		Use:   "create ID",
		Short: "Store a new document",
		Long: `Store a new document under ID. The text is embedded and indexed.

At least one metadata entry is required, either through --category or --meta.

Examples:
  docvec create doc1 --text "The cat sat on the mat" --category animals
  docvec create doc2 --text "Stock markets rose today" --meta categoria=finance --meta year=2024`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := GetGlobalConfig()
			md, err := flags.metadata(cfg.Query.CategoryKey)
			if err != nil {
				return err
			}

			store, err := openStore(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer closeStore(store)

			if err := store.Create(cmd.Context(), args[0], flags.text, md); err != nil {
				return err
			}
			return reportAction(cmd, "created", args[0])
		},
	}

	flags.register(cmd)
	return cmd
}

func newReadCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "read ID",
		Short: "Show a stored document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore(cmd.Context(), GetGlobalConfig())
			if err != nil {
				return err
			}
			defer closeStore(store)

			record, err := store.Read(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			f, err := getFormatter()
			if err != nil {
				return err
			}
			output, err := f.FormatRecord(record)
			if err != nil {
				return fmt.Errorf("failed to format document: %w", err)
			}
			return writeOutput(cmd.OutOrStdout(), output)
		},
	}
}

func newUpdateCommand() *cobra.Command {
	var flags documentFlags

	cmd := &cobra.Command{
		Use:   "update ID",
		Short: "Replace the text and metadata of a document",
		Long: `Replace the text and metadata of an existing document and recompute its
embedding. Metadata is replaced as a whole, not merged.

Examples:
  docvec update doc1 --text "The dog slept on the rug" --category animals`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := GetGlobalConfig()
			md, err := flags.metadata(cfg.Query.CategoryKey)
			if err != nil {
				return err
			}

			store, err := openStore(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer closeStore(store)

			if err := store.Update(cmd.Context(), args[0], flags.text, md); err != nil {
				return err
			}
			return reportAction(cmd, "updated", args[0])
		},
	}

	flags.register(cmd)
	return cmd
}

func newDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Remove a document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore(cmd.Context(), GetGlobalConfig())
			if err != nil {
				return err
			}
			defer closeStore(store)

			if err := store.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			return reportAction(cmd, "deleted", args[0])
		},
	}
}

func newListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every stored document",
		Long:  "List every stored document with its id, text and metadata, in insertion order.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore(cmd.Context(), GetGlobalConfig())
			if err != nil {
				return err
			}
			defer closeStore(store)

			records, err := store.ListAll(cmd.Context())
			if err != nil {
				return err
			}

			f, err := getFormatter()
			if err != nil {
				return err
			}
			output, err := f.FormatRecords(records)
			if err != nil {
				return fmt.Errorf("failed to format documents: %w", err)
			}
			return writeOutput(cmd.OutOrStdout(), output)
		},
	}
}

// reportAction confirms a write. JSON output gets a machine-readable object.
func reportAction(cmd *cobra.Command, action, id string) error {
	out := cmd.OutOrStdout()
	if getOutputFormat() == "json" {
		data, err := json.Marshal(map[string]string{"id": id, "action": action})
		if err != nil {
			return err
		}
		return writeOutput(out, append(data, '\n'))
	}

	_, err := fmt.Fprintf(out, "%s Document %q %s\n", GetSymbol(action), id, action)
	return err
}

// parsePairs parses key=value arguments. Values are read as YAML scalars so
// that true, 3 and 2.5 keep their types; anything else stays a raw string.
func parsePairs(pairs []string) (map[string]any, error) {
	out := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		key, raw, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid pair %q (expected key=value)", pair)
		}
		out[key] = parseScalar(raw)
	}
	return out, nil
}

func parseScalar(raw string) any {
	var value any
	if err := yaml.Unmarshal([]byte(raw), &value); err != nil || value == nil {
		return raw
	}
	normalized, err := common.NormalizeValue(value)
	if err != nil {
		return raw
	}
	return normalized
}
