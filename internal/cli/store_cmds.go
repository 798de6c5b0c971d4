package cli

import (
	"fmt"

	"github.com/andreyvit/treedb"
	"github.com/spf13/cobra"
)

type storeFlags struct {
	dbFile        string
	allowOverlaps bool
}

func (f *storeFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.dbFile, "db", "", "Bolt database file")
	_ = cmd.MarkFlagRequired("db")
}

func (f *storeFlags) open(cmd *cobra.Command, opts *globalOptions) (*treedb.Store, error) {
	s, err := treedb.Open(f.dbFile, treedb.Options{
		Logger:        opts.logger(cmd.ErrOrStderr()),
		Verbose:       opts.verbose,
		AllowOverlaps: f.allowOverlaps,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", f.dbFile, err)
	}
	return s, nil
}

func newApplyCmd(opts *globalOptions) *cobra.Command {
	var sf storeFlags
	var raw bool
	cmd := &cobra.Command{
		Use:   "apply --db FILE [file]",
		Short: "Apply a JSON batch to a store",
		Long: `Applies a JSON batch atomically. Overlapping writes are dropped first,
unless --raw is given, in which case a batch with overlapping paths is rejected.`,
		Args:    cobra.MaximumNArgs(1),
		GroupID: "store",
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := readBatch(cmd, args)
			if err != nil {
				return err
			}
			s, err := sf.open(cmd, opts)
			if err != nil {
				return err
			}
			defer s.Close()

			if raw {
				if err := s.Apply(b); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "applied %d entries\n", b.Len())
				return nil
			}

			applied, removed, err := s.Submit(b)
			if len(removed) > 0 {
				printRemovals(cmd.ErrOrStderr(), removed)
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "applied %d entries, dropped %d\n", applied.Len(), len(removed))
			return nil
		},
	}
	sf.register(cmd)
	cmd.Flags().BoolVar(&raw, "raw", false, "Apply the batch as is, without dropping overlapping writes")
	cmd.Flags().BoolVar(&sf.allowOverlaps, "allow-overlaps", false, "With --raw, apply overlapping paths ancestors first instead of rejecting")
	return cmd
}

func newGetCmd(opts *globalOptions) *cobra.Command {
	var sf storeFlags
	cmd := &cobra.Command{
		Use:     "get --db FILE PATH",
		Short:   "Print the value stored at a path as JSON",
		Args:    cobra.ExactArgs(1),
		GroupID: "store",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := sf.open(cmd, opts)
			if err != nil {
				return err
			}
			defer s.Close()

			v, err := s.Get(args[0])
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), v)
		},
	}
	sf.register(cmd)
	return cmd
}

func newDumpCmd(opts *globalOptions) *cobra.Command {
	var sf storeFlags
	var stats bool
	cmd := &cobra.Command{
		Use:     "dump --db FILE",
		Short:   "Print every stored leaf",
		Args:    cobra.NoArgs,
		GroupID: "store",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := sf.open(cmd, opts)
			if err != nil {
				return err
			}
			defer s.Close()

			flags := treedb.DumpLeaves
			if stats {
				flags |= treedb.DumpStats
			}
			out, err := s.Dump(flags)
			if err != nil {
				return err
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), out)
			return err
		},
	}
	sf.register(cmd)
	cmd.Flags().BoolVar(&stats, "stats", false, "Append leaf and node counts")
	return cmd
}
