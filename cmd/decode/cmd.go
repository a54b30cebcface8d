package decode

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/bonesis-go/bonesis/pkg/bonesis"
	"github.com/bonesis-go/bonesis/pkg/bonesis/encoding"
)

func NewDecodeCommand(log *logrus.Entry) *cobra.Command {
	return &cobra.Command{
		Use:   "decode [<answers>]",
		Short: "Decodes solver answers into Boolean networks",
		Long: `Decodes the answers printed by an ASP solver run on an encoded model, and
prints each network in .bnet format. Answers are read from the given file,
or from standard input when no file or "-" is given.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var r io.Reader = cmd.InOrStdin()
			if len(args) == 1 && args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return fmt.Errorf("error opening answers (%s): %w", args[0], err)
				}
				defer f.Close()
				r = f
			}
			answers, err := bonesis.ParseAnswers(r)
			if err != nil {
				return err
			}
			log.WithField("answers", len(answers)).Debug("answers parsed")
			out := cmd.OutOrStdout()
			for i, facts := range answers {
				bn, err := encoding.Decode(facts)
				if err != nil {
					return fmt.Errorf("answer %d: %w", i+1, err)
				}
				fmt.Fprintf(out, "# network %d\n", i+1)
				fmt.Fprint(out, bn)
			}
			return nil
		},
	}
}
