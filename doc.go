/*
Package treedb prepares and applies multi-path write batches for a
hierarchical, path-addressed key-value store.

A path like "users/u1/profile" names a node in a tree. A batch maps paths to
values; a value is either a payload to store at the path or a deletion marker
that removes the path and everything below it.

A batch that deletes a subtree and also writes inside it is inconsistent: the
result depends on apply order, and the backend rejects such batches. Before
submitting a batch assembled from independent sources, run it through
RemoveOverlappingUpdates (or Sanitize, which also reports what was dropped).

We implement:

1. Path, a parsed and validated sequence of segments, and PathsConflict,
the ancestor/descendant relation.

2. Batch and Value, with Value being an explicit Set(payload) or Delete()
rather than a nil check.

3. The overlap remover: entries strictly below a deletion marker are dropped,
including deletion markers nested under another one. Writes above a deletion
marker are kept as is.

4. Store, a local implementation of the backend contract on top of Bolt (or
in memory), which applies a batch in one transaction and rejects batches with
overlapping paths.

# Technical Details

**Nodes.**
Every path segment is a nested Bolt bucket under the "tree" root bucket. A
leaf keeps its msgpack-encoded payload under the key "\x00" inside its own
bucket. Writing below a leaf turns it into an interior node; deleting the last
child of a node removes the node too.

**Objects.**
Setting a map[string]any payload expands it into child nodes, and reading an
interior node returns a map[string]any. Nil members are skipped, so an empty
object is the same as a deletion.

**Ordering.**
Paths compare segment by segment, so a path sorts right before its
descendants. Batch.Entries, Sanitize reports and FindOverlaps all use this
order.
*/
package treedb
