package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/yildizm/docvec/internal/ui"
)

var browseTheme string

func newBrowseCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "browse",
		Short: "Browse and query documents interactively",
		Long: `Open an interactive terminal browser over the stored documents.

Keys: / query, c category filter, enter details, esc back, ? help, q quit.`,
		Args: cobra.NoArgs,
		RunE: runBrowse,
	}

	cmd.Flags().StringVar(&browseTheme, "theme", "default", fmt.Sprintf("color theme %v", ui.GetAvailableThemes()))

	return cmd
}

func runBrowse(cmd *cobra.Command, args []string) error {
	cfg := GetGlobalConfig()

	theme, ok := ui.ThemeByName(browseTheme)
	if !ok {
		return fmt.Errorf("unknown theme: %s (available: %v)", browseTheme, ui.GetAvailableThemes())
	}

	store, err := openStore(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer closeStore(store)

	return ui.Run(store, ui.Options{
		TopK:        cfg.Query.TopK,
		MinScore:    cfg.Query.MinScore,
		CategoryKey: cfg.Query.CategoryKey,
		Theme:       theme,
		Color:       !noColor && cfg.Output.ColorMode != "never",
		Emoji:       !isEmojiDisabled(),
	})
}
