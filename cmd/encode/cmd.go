package encode

import (
	"errors"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/bonesis-go/bonesis/internal/model"
	"github.com/bonesis-go/bonesis/pkg/bonesis"
	"github.com/bonesis-go/bonesis/pkg/bonesis/encoding"
	"github.com/bonesis-go/bonesis/pkg/bonesis/language"
)

func NewEncodeCommand(log *logrus.Entry) *cobra.Command {
	return &cobra.Command{
		Use:   "encode <model.yaml>",
		Short: "Prints the facts encoding a model",
		Long: `Prints the facts encoding a model, one per line, as they are given to a
solving engine. The output can be fed to an external ASP solver together
with the bonesis rules.`,
		Args: cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			if _, err := os.Stat(args[0]); errors.Is(err, os.ErrNotExist) {
				return fmt.Errorf("file (%s) not found", args[0])
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := model.Load(args[0], language.WithLogger(log))
			if err != nil {
				return err
			}
			facts, err := encoding.Encode(s)
			if err != nil {
				return err
			}
			log.WithField("facts", len(facts)).Debug("model encoded")
			_, err = fmt.Fprintln(cmd.OutOrStdout(), bonesis.FormatFacts(facts))
			return err
		},
	}
}
