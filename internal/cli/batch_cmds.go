package cli

import (
	"fmt"

	"github.com/andreyvit/treedb"
	"github.com/spf13/cobra"
)

func newCleanCmd() *cobra.Command {
	var report bool
	cmd := &cobra.Command{
		Use:     "clean [file]",
		Short:   "Drop writes made redundant by deletions in the same batch",
		Long:    `Reads a JSON batch and prints it without the entries that lie below a null (deleted) path of the same batch.`,
		Args:    cobra.MaximumNArgs(1),
		GroupID: "batch",
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := readBatch(cmd, args)
			if err != nil {
				return err
			}
			clean, removed := treedb.Sanitize(b)
			if report {
				printRemovals(cmd.ErrOrStderr(), removed)
			}
			return writeJSON(cmd.OutOrStdout(), clean.Map())
		},
	}
	cmd.Flags().BoolVarP(&report, "report", "r", false, "Print dropped entries to stderr")
	return cmd
}

func newConflictsCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "conflicts PATH PATH",
		Short:   "Print whether one path is an ancestor of the other",
		Args:    cobra.ExactArgs(2),
		GroupID: "batch",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := treedb.ParsePath(args[0])
			if err != nil {
				return err
			}
			b, err := treedb.ParsePath(args[1])
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), a.Conflicts(b))
			return err
		},
	}
}

func newOverlapsCmd() *cobra.Command {
	var fail bool
	cmd := &cobra.Command{
		Use:     "overlaps [file]",
		Short:   "List ancestor/descendant path pairs in a batch",
		Args:    cobra.MaximumNArgs(1),
		GroupID: "batch",
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := readBatch(cmd, args)
			if err != nil {
				return err
			}
			overlaps := treedb.FindOverlaps(b)
			printOverlaps(cmd.OutOrStdout(), overlaps)
			if fail && len(overlaps) > 0 {
				return &treedb.OverlapError{Overlaps: overlaps}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&fail, "fail", false, "Exit with an error if any overlaps are found")
	return cmd
}
