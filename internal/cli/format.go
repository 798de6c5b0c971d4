package cli

import (
	"fmt"
	"io"

	"github.com/andreyvit/treedb"
	"github.com/fatih/color"
)

var (
	removedColor = color.New(color.FgYellow)
	overlapColor = color.New(color.FgRed, color.Bold)
	pathColor    = color.New(color.FgCyan)
	dimColor     = color.New(color.FgHiBlack)
)

func printRemovals(w io.Writer, removed []treedb.Removal) {
	if len(removed) == 0 {
		fmt.Fprintln(w, dimColor.Sprint("no overlapping writes"))
		return
	}
	for _, r := range removed {
		fmt.Fprintf(w, "%s %s = %s %s\n",
			removedColor.Sprint("dropped"),
			pathColor.Sprint(r.Path),
			r.Value,
			dimColor.Sprintf("(deleted by %s)", r.DeletedBy))
	}
}

func printOverlaps(w io.Writer, overlaps []treedb.Overlap) {
	if len(overlaps) == 0 {
		fmt.Fprintln(w, dimColor.Sprint("no overlaps"))
		return
	}
	for _, o := range overlaps {
		fmt.Fprintf(w, "%s %s %s\n", pathColor.Sprint(o.Ancestor), overlapColor.Sprint(">"), pathColor.Sprint(o.Descendant))
	}
}
