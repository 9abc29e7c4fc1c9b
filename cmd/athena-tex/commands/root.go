package commands

import (
	"github.com/spf13/cobra"

	"github.com/Algor1tm/Athena-sub002/engine/core"
)

// NewRootCommand builds the athena-tex command tree. Every call returns
// fresh commands with their own flag state.
func NewRootCommand() *cobra.Command {
	var (
		verbose bool
		quiet   bool
	)
	root := &cobra.Command{
		Use:   "athena-tex",
		Short: "Texture import and export tool",
		Long: `athena-tex runs textures through the engine import and export path on the
headless renderer: the same decoders, channel expansion and GPU formats the
engine uses at runtime, without a window or a GPU.`,
		Version:       "0.1.0",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			switch {
			case verbose:
				core.SetLogLevel(core.DebugLevel)
			case quiet:
				core.SetLogLevel(core.ErrorLevel)
			default:
				core.SetLogLevel(core.WarnLevel)
			}
		},
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	root.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "only log errors")

	root.AddCommand(newInfoCommand())
	root.AddCommand(newConvertCommand())
	root.AddCommand(newDefaultsCommand())
	return root
}

// Execute runs the root command
func Execute() error {
	return NewRootCommand().Execute()
}
