package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/dshills/classkit"
	"github.com/dshills/classkit/internal/class"
)

func newMutatorsCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "mutators",
		Short: "List the registered mutators and their property prefixes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := classkit.NewEngine(classkit.WithLogger(opts.logger))
			if err != nil {
				return err
			}
			return printMutators(cmd, e.MutatorNames())
		},
	}
}

func printMutators(cmd *cobra.Command, names []string) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tPREFIX\tCONTAINER")
	for _, name := range names {
		fmt.Fprintf(w, "%s\t%s\t%s\n", name, class.Prefix(name), class.Sentinel(name))
	}
	return w.Flush()
}
