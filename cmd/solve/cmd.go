package solve

import (
	"errors"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/bonesis-go/bonesis/internal/engine"
	"github.com/bonesis-go/bonesis/internal/model"
	"github.com/bonesis-go/bonesis/pkg/bonesis"
	"github.com/bonesis-go/bonesis/pkg/bonesis/language"
	"github.com/bonesis-go/bonesis/pkg/bonesis/solver"
)

type options struct {
	limit int
	count bool
	facts bool
}

func (o *options) addFlags(fs *pflag.FlagSet) {
	fs.IntVarP(&o.limit, "limit", "n", 0, "maximum number of networks, 0 for all")
	fs.BoolVar(&o.count, "count", false, "only print the number of networks")
	fs.BoolVar(&o.facts, "facts", false, "print the raw facts of each answer")
}

func NewSolveCommand(log *logrus.Entry) *cobra.Command {
	var opts options
	cmd := &cobra.Command{
		Use:   "solve <model.yaml>",
		Short: "Enumerates the Boolean networks of a model",
		Long: `Enumerates the Boolean networks of a model with the built-in engine and
prints them in .bnet format. Reachability constraints need an external ASP
solver: use the encode command instead.`,
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
			e, err := engine.New(engine.WithLogger(log))
			if err != nil {
				return err
			}
			it, err := solver.Networks(cmd.Context(), e, s, solver.WithLimit(opts.limit), solver.WithLogger(log))
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			n := 0
			for {
				bn, ok, err := it.Next(cmd.Context())
				if err != nil {
					return err
				}
				if !ok {
					break
				}
				n++
				if opts.count {
					continue
				}
				fmt.Fprintf(out, "# network %d\n", n)
				if opts.facts {
					fmt.Fprintln(out, bonesis.FormatFacts(it.Facts()))
					continue
				}
				fmt.Fprint(out, bn)
			}
			if opts.count {
				fmt.Fprintln(out, n)
			}
			log.WithField("networks", n).Debug("enumeration complete")
			return nil
		},
	}
	opts.addFlags(cmd.Flags())
	return cmd
}
