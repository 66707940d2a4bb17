// Package tree navigates the static phase-by-phase decision tree. It is a
// pure lookup over the catalog and uses no randomness.
package tree

import (
	"fmt"
	"sort"

	"github.com/okian/rugbysim/internal/domain/catalog"
)

// Navigator walks the catalog's decision tree.
type Navigator struct {
	reg *catalog.Registry
}

// New returns a Navigator. The registry must carry a decision tree.
func New(reg *catalog.Registry) (*Navigator, error) {
	if _, err := reg.Node(reg.TreeStart()); err != nil {
		return nil, fmt.Errorf("decision tree: %w", err)
	}
	return &Navigator{reg: reg}, nil
}

// Start returns the entry node.
func (n *Navigator) Start() catalog.TreeNode {
	node, _ := n.reg.Node(n.reg.TreeStart())
	return node
}

// Node looks up a node by key.
func (n *Navigator) Node(key string) (catalog.TreeNode, error) {
	return n.reg.Node(key)
}

// Labels returns the reaction labels accepted at node, sorted.
func Labels(node catalog.TreeNode) []string {
	out := make([]string, 0, len(node.Triggers))
	for l := range node.Triggers {
		out = append(out, l)
	}
	sort.Strings(out)
	return out
}

// Advance returns the key of the node reached from nodeKey on the opponent
// reaction label. Labels match exactly or after case and spacing
// normalisation; the catalog rejects labels that collide once normalised,
// so at most one trigger matches.
func (n *Navigator) Advance(nodeKey, label string) (string, error) {
	node, err := n.reg.Node(nodeKey)
	if err != nil {
		return "", err
	}
	if next, ok := node.Triggers[label]; ok {
		return next, nil
	}
	want := catalog.Normalize(label)
	for l, next := range node.Triggers {
		if catalog.Normalize(l) == want {
			return next, nil
		}
	}
	if node.Terminal() {
		return "", fmt.Errorf("%w %q: node %q is terminal", ErrUnknownTrigger, label, node.Key)
	}
	return "", fmt.Errorf("%w %q at node %q, expected one of %q", ErrUnknownTrigger, label, node.Key, Labels(node))
}

// Walk follows labels from the start node and returns every node visited,
// start included. It stops at the first error.
func (n *Navigator) Walk(labels []string) ([]catalog.TreeNode, error) {
	cur := n.Start()
	path := []catalog.TreeNode{cur}
	for _, label := range labels {
		next, err := n.Advance(cur.Key, label)
		if err != nil {
			return path, err
		}
		if cur, err = n.reg.Node(next); err != nil {
			return path, err
		}
		path = append(path, cur)
	}
	return path, nil
}
