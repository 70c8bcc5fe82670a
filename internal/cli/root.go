package cli

import (
	"fmt"
	"io"
	"os"
	"runtime"

	"github.com/spf13/cobra"
	"github.com/yildizm/docvec/internal/config"
	"github.com/yildizm/docvec/internal/emoji"
	"github.com/yildizm/docvec/internal/monitor"
)

var (
	cfgFile   string
	verbose   bool
	noColor   bool
	noEmoji   bool
	outputFmt string
	showStats bool

	globalConfig *config.Config
	recorder     *monitor.Recorder
)

// NewRootCommand creates the root command
func NewRootCommand(version, commit, date string) *cobra.Command {
	recorder = nil

	rootCmd := &cobra.Command{
		Use:   "docvec",
		Short: "Semantic document store",
		Long: `docvec stores text documents together with their vector embeddings and
retrieves them by semantic similarity.

Documents carry scalar metadata. Queries can be narrowed with exact-match
filters on that metadata, most commonly a category.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Auto-disable emojis on Windows if not explicitly set
			if runtime.GOOS == "windows" && !cmd.Flag("no-emoji").Changed {
				noEmoji = true
			}

			cfg, err := config.NewLoader().LoadConfig(cfgFile)
			if err != nil {
				return err
			}
			applyGlobalFlags(cmd, cfg)
			globalConfig = cfg

			emoji.SetEmojiDisabled(noEmoji)

			recorder = nil
			if showStats {
				recorder = monitor.NewRecorder()
			}
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if recorder == nil {
				return nil
			}
			return printStats(cmd.ErrOrStderr(), recorder)
		},
	}

	// Global flags
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	rootCmd.PersistentFlags().BoolVar(&noEmoji, "no-emoji", false, "disable emoji output (useful for Windows terminals)")
	rootCmd.PersistentFlags().StringVarP(&outputFmt, "output", "o", "text", "output format (text, json, markdown, csv)")
	rootCmd.PersistentFlags().BoolVar(&showStats, "stats", false, "print store operation timings to stderr")

	// Add subcommands
	rootCmd.AddCommand(newCreateCommand())
	rootCmd.AddCommand(newReadCommand())
	rootCmd.AddCommand(newUpdateCommand())
	rootCmd.AddCommand(newDeleteCommand())
	rootCmd.AddCommand(newQueryCommand())
	rootCmd.AddCommand(newListCommand())
	rootCmd.AddCommand(newImportCommand())
	rootCmd.AddCommand(newBrowseCommand())
	rootCmd.AddCommand(newEmbedCommand())
	rootCmd.AddCommand(newConfigCommand())
	rootCmd.AddCommand(newVersionCommand(version, commit, date))

	return rootCmd
}

// applyGlobalFlags lets explicit flags win over the loaded configuration and
// fills unset flags from it
func applyGlobalFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()

	if flags.Changed("verbose") {
		cfg.Output.Verbose = verbose
	} else {
		verbose = cfg.Output.Verbose
	}

	if flags.Changed("output") {
		cfg.Output.DefaultFormat = outputFmt
	} else if cfg.Output.DefaultFormat != "" {
		outputFmt = cfg.Output.DefaultFormat
	}

	if flags.Changed("no-emoji") {
		cfg.Output.Emoji = !noEmoji
	} else if !cfg.Output.Emoji {
		noEmoji = true
	}

	if noColor {
		cfg.Output.ColorMode = "never"
	}
}

func newVersionCommand(version, commit, date string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  "Display version number, build commit, date, and runtime information",
		// Version works without a readable config file.
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
		Run: func(cmd *cobra.Command, args []string) {
			displayVersion := version
			displayCommit := commit
			displayDate := date

			if version == "dev" || version == "" {
				displayVersion = "development"
			}
			if commit == "none" || commit == "" {
				displayCommit = "local-build"
			}
			if date == "unknown" || date == "" {
				displayDate = "local-build"
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "docvec %s (%s) built on %s\n", displayVersion, displayCommit, displayDate)
			fmt.Fprintf(out, "Go version: %s\n", runtime.Version())
			fmt.Fprintf(out, "OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	}
}

// printStats writes the operation report, as JSON when JSON output is selected
func printStats(w io.Writer, r *monitor.Recorder) error {
	format := monitor.ReportFormatText
	if getOutputFormat() == "json" {
		format = monitor.ReportFormatJSON
	}
	report, err := monitor.NewReport(r).Format(format)
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, report)
	return err
}

// Global helpers
func isVerbose() bool {
	return verbose
}

func getOutputFormat() string {
	return outputFmt
}

func isEmojiDisabled() bool {
	return noEmoji
}

// GetGlobalConfig returns the configuration loaded for the running command
func GetGlobalConfig() *config.Config {
	if globalConfig == nil {
		return config.DefaultConfig()
	}
	return globalConfig
}

// useColor decides whether text output is colored
func useColor() bool {
	if noColor || os.Getenv("NO_COLOR") != "" {
		return false
	}
	switch GetGlobalConfig().Output.ColorMode {
	case "never":
		return false
	case "always":
		return true
	default:
		return isTerminal(os.Stdout)
	}
}

func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}
