package treedb

// pathTrie is a segment-keyed trie marking a set of paths.
type pathTrie struct {
	root trieNode
}

type trieNode struct {
	children map[string]*trieNode
	marked   bool
	path     Path
}

func (t *pathTrie) insert(p Path) {
	n := &t.root
	for _, seg := range p.segs {
		child := n.children[seg]
		if child == nil {
			if n.children == nil {
				n.children = make(map[string]*trieNode)
			}
			child = &trieNode{}
			n.children[seg] = child
		}
		n = child
	}
	n.marked = true
	n.path = p
}

// outermostAncestor returns the shallowest marked strict ancestor of p.
func (t *pathTrie) outermostAncestor(p Path) (Path, bool) {
	n := &t.root
	for _, seg := range p.segs[:len(p.segs)-1] {
		n = n.children[seg]
		if n == nil {
			return Path{}, false
		}
		if n.marked {
			return n.path, true
		}
	}
	return Path{}, false
}

// walkAncestors calls f for every marked strict ancestor of p, shallowest first.
func (t *pathTrie) walkAncestors(p Path, f func(anc Path)) {
	n := &t.root
	for _, seg := range p.segs[:len(p.segs)-1] {
		n = n.children[seg]
		if n == nil {
			return
		}
		if n.marked {
			f(n.path)
		}
	}
}
