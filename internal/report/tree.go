package report

import (
	"fmt"
	"slices"
	"strings"

	"github.com/isseis/go-privsep-analyzer/internal/callgraph"
)

// ElevatedMarker follows tree entries reached through an elevated edge.
const ElevatedMarker = "[Elevated]"

type treeItem struct {
	fn        callgraph.Function
	prefix    string
	last      bool
	root      bool
	inherited bool
	elevated  bool
}

// Tree writes an ASCII call tree for every root whose name contains filter
// (every root when filter is empty). Within one root's tree each function is
// expanded once; later occurrences are listed without children.
func (t *TextWriter) Tree(g *callgraph.Graph, filter string) error {
	symbols := g.Symbols()
	for _, root := range g.Roots() {
		if filter != "" && !strings.Contains(root.Name, filter) {
			continue
		}
		t.printf("%s:\n", root.Name)

		expanded := make(map[uint64]struct{})
		stack := []treeItem{{fn: root, root: true}}
		for len(stack) > 0 {
			item := stack[len(stack)-1]
			stack = stack[:len(stack)-1]

			privileged := item.inherited || item.fn.Privileged
			t.treeLine(item, privileged)

			if _, done := expanded[item.fn.Address]; done {
				continue
			}
			expanded[item.fn.Address] = struct{}{}

			var children []treeItem
			for _, e := range g.Edges(item.fn.Address) {
				callee, ok := symbols.Lookup(e.Callee)
				if !ok {
					continue
				}
				children = append(children, treeItem{
					fn:        callee,
					prefix:    childPrefix(item),
					inherited: privileged,
					elevated:  e.Elevated,
				})
			}
			if len(children) > 0 {
				children[len(children)-1].last = true
			}
			slices.Reverse(children)
			stack = append(stack, children...)
		}
	}
	return t.err
}

func childPrefix(parent treeItem) string {
	if parent.root || parent.last {
		return parent.prefix + "    "
	}
	return parent.prefix + "│   "
}

func (t *TextWriter) treeLine(item treeItem, privileged bool) {
	name := callgraph.SimplifyName(item.fn.Name)
	state := "(unprivileged)"
	if privileged {
		name = t.p.Privileged(name)
		state = "(privileged)"
	} else {
		name = t.p.Unprivileged(name)
	}

	var b strings.Builder
	b.WriteString(item.prefix)
	if item.root || item.last {
		b.WriteString(t.p.Muted("└── "))
	} else {
		b.WriteString(t.p.Muted("├── "))
	}
	fmt.Fprintf(&b, "%s %s", name, state)
	if item.elevated {
		b.WriteString(" " + t.p.Elevated(ElevatedMarker))
	}
	t.printf("%s\n", b.String())
}
