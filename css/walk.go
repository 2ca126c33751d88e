package css

import "errors"

// ErrSkipChildren may be returned by a Walk callback to avoid descending
// into the children of the current node.
var ErrSkipChildren = errors.New("skip children")

// Walk visits nodes in document order (pre-order). Walk stops at the first
// error returned by fn other than ErrSkipChildren.
func Walk(nodes []Node, fn func(Node) error) error {
	for _, n := range nodes {
		err := fn(n)
		if errors.Is(err, ErrSkipChildren) {
			continue
		}
		if err != nil {
			return err
		}
		if c, ok := n.(Container); ok {
			if err := Walk(c.Children(), fn); err != nil {
				return err
			}
		}
	}
	return nil
}

// RewriteFunc decides what happens to a node during Rewrite. When replaced is
// false the node is kept and its children are rewritten. When replaced is
// true the node is substituted with repl (which may be empty to remove the
// node) and repl is not visited. Returning the node itself as the only
// replacement keeps it without visiting its children.
type RewriteFunc func(n Node) (repl []Node, replaced bool, err error)

// Rewrite produces a new node list with fn applied to every node in document
// order. Input nodes are never modified: containers on the path to a change
// are shallow copied, everything else is shared with the input. When nothing
// changed the input slice itself is returned.
func Rewrite(nodes []Node, fn RewriteFunc) ([]Node, error) {
	var out []Node
	changed := false
	for i, n := range nodes {
		repl, replaced, err := fn(n)
		if err != nil {
			return nil, err
		}
		if replaced && len(repl) == 1 && repl[0] == n {
			replaced = false
		} else if !replaced {
			if c, ok := n.(Container); ok {
				children, err := Rewrite(c.Children(), fn)
				if err != nil {
					return nil, err
				}
				if !Same(children, c.Children()) {
					repl, replaced = []Node{c.WithChildren(children)}, true
				}
			}
		}
		if replaced && !changed {
			changed = true
			out = make([]Node, 0, len(nodes)+len(repl))
			out = append(out, nodes[:i]...)
		}
		switch {
		case replaced:
			out = append(out, repl...)
		case changed:
			out = append(out, n)
		}
	}
	if !changed {
		return nodes, nil
	}
	return out, nil
}

// Same reports whether a and b are the same slice, as returned by Rewrite
// when nothing changed.
func Same(a, b []Node) bool {
	if len(a) != len(b) {
		return false
	}
	if len(a) == 0 {
		return true
	}
	return &a[0] == &b[0]
}
