// Package thread rebuilds comment threads from flat rows and aggregates
// reactions for display.
package thread

import (
	"github.com/spec-kit/triage-service/internal/domain"
)

// BuildTree links comments into a forest. Input order is kept within every
// sibling group; a comment whose parent is not in the input becomes a root.
// The input comments are not modified.
func BuildTree(comments []*domain.Comment) []*domain.Comment {
	index := make(map[string]*domain.Comment, len(comments))
	nodes := make([]*domain.Comment, 0, len(comments))
	for _, c := range comments {
		if c == nil {
			continue
		}
		node := *c
		node.Replies = []*domain.Comment{}
		index[node.ID] = &node
		nodes = append(nodes, &node)
	}

	roots := make([]*domain.Comment, 0, len(nodes))
	for _, node := range nodes {
		parent, ok := index[node.ParentID]
		if node.ParentID == "" || !ok || parent == node {
			roots = append(roots, node)
			continue
		}
		parent.Replies = append(parent.Replies, node)
	}
	return roots
}

// Flatten walks the forest in pre-order.
func Flatten(roots []*domain.Comment) []*domain.Comment {
	var out []*domain.Comment
	var walk func(nodes []*domain.Comment)
	walk = func(nodes []*domain.Comment) {
		for _, node := range nodes {
			out = append(out, node)
			walk(node.Replies)
		}
	}
	walk(roots)
	return out
}
