package root

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/bonesis-go/bonesis/cmd/decode"
	"github.com/bonesis-go/bonesis/cmd/encode"
	"github.com/bonesis-go/bonesis/cmd/solve"
)

func NewRootCmd() *cobra.Command {
	logger := logrus.New()
	var debug bool

	rootCmd := &cobra.Command{
		Use:   "bonesis",
		Short: "Bonesis synthesizes Boolean networks from influence graphs and observations",
		Long: `Synthesis of Boolean networks from an influence graph, observations
and dynamical constraints. Models are YAML documents; see the model package
for their format.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logger.SetOutput(cmd.ErrOrStderr())
			if debug {
				logger.SetLevel(logrus.DebugLevel)
			}
			return nil
		},
	}
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	log := logrus.NewEntry(logger)
	// add sub-commands
	rootCmd.AddCommand(encode.NewEncodeCommand(log))
	rootCmd.AddCommand(solve.NewSolveCommand(log))
	rootCmd.AddCommand(decode.NewDecodeCommand(log))

	return rootCmd
}
