package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/yildizm/docvec/internal/importer"
)

var (
	importWatch   bool
	importWorkers int
)

func newImportCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import FILE",
		Short: "Load documents from a YAML or JSON file",
		Long: `Load documents from a YAML or JSON file of the form

  documents:
    - id: doc1
      text: The cat sat on the mat
      metadata: {categoria: animals}

Absent documents are created, changed ones are updated and identical ones are
left alone, so importing the same file twice is harmless. With --watch the file
is re-applied whenever it changes. Press Ctrl+C to stop watching.

Examples:
  docvec import seed.yaml
  docvec import --watch --workers 8 documents.json`,
		Args: cobra.ExactArgs(1),
		RunE: runImport,
	}

	cmd.Flags().BoolVar(&importWatch, "watch", false, "re-apply the file whenever it changes")
	cmd.Flags().IntVar(&importWorkers, "workers", 0, "documents applied concurrently (default from config)")

	return cmd
}

func runImport(cmd *cobra.Command, args []string) error {
	cfg := GetGlobalConfig()
	if !cmd.Flags().Changed("workers") {
		importWorkers = cfg.Import.Workers
	}

	store, err := openStore(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer closeStore(store)

	im := importer.New(store,
		importer.WithWorkers(importWorkers),
		importer.WithLogger(newLogger("importer")),
	)

	out := cmd.OutOrStdout()
	summary, err := im.ImportFile(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	if err := printSummary(out, summary); err != nil {
		return err
	}

	if !importWatch {
		if summary.Failed > 0 {
			return fmt.Errorf("%d of %d documents failed to import", summary.Failed, len(summary.Results))
		}
		return nil
	}

	return watchImport(cmd.Context(), im, args[0], out)
}

// watchImport re-applies path on every change until interrupted
func watchImport(ctx context.Context, im *importer.Importer, path string, out io.Writer) error {
	watcher, err := im.NewWatcher(path, GetGlobalConfig().Import.Debounce)
	if err != nil {
		return err
	}
	defer func() {
		if err := watcher.Close(); err != nil && isVerbose() {
			fmt.Fprintf(os.Stderr, "Warning: failed to close watcher: %v\n", err)
		}
	}()

	// Set up signal handling for graceful shutdown
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fmt.Fprintf(out, "%s Watching %s (Ctrl+C to stop)\n", GetSymbol("watch"), watcher.Path())

	return watcher.Run(ctx, func(summary *importer.Summary, err error) {
		if err != nil {
			fmt.Fprintf(out, "%s %v\n", GetSymbol("error"), err)
			return
		}
		_ = printSummary(out, summary)
	})
}

type importResultOutput struct {
	ID     string `json:"id"`
	Action string `json:"action"`
	Error  string `json:"error,omitempty"`
}

type importSummaryOutput struct {
	Created   int                  `json:"created"`
	Updated   int                  `json:"updated"`
	Unchanged int                  `json:"unchanged"`
	Failed    int                  `json:"failed"`
	Results   []importResultOutput `json:"results"`
}

// printSummary reports one import run
func printSummary(w io.Writer, summary *importer.Summary) error {
	if getOutputFormat() == "json" {
		output := importSummaryOutput{
			Created:   summary.Created,
			Updated:   summary.Updated,
			Unchanged: summary.Unchanged,
			Failed:    summary.Failed,
			Results:   make([]importResultOutput, 0, len(summary.Results)),
		}
		for _, r := range summary.Results {
			ro := importResultOutput{ID: r.ID, Action: string(r.Action)}
			if r.Err != nil {
				ro.Error = r.Err.Error()
			}
			output.Results = append(output.Results, ro)
		}
		data, err := json.MarshalIndent(output, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal import summary: %w", err)
		}
		return writeOutput(w, append(data, '\n'))
	}

	for _, r := range summary.Results {
		if r.Action == importer.ActionUnchanged && !isVerbose() {
			continue
		}
		symbol := GetSymbol(string(r.Action))
		if r.Err != nil {
			fmt.Fprintf(w, "%s %s: %v\n", GetSymbol("error"), r.ID, r.Err)
			continue
		}
		fmt.Fprintf(w, "%s %s %s\n", symbol, r.ID, r.Action)
	}

	_, err := fmt.Fprintf(w, "%s %d created, %d updated, %d unchanged, %d failed (%s)\n",
		GetSymbol("success"), summary.Created, summary.Updated, summary.Unchanged, summary.Failed,
		summary.Duration.Round(time.Millisecond))
	return err
}
