package domain

import "sort"

// TreeEdge is one confirmed referral inside a subtree query result.
type TreeEdge struct {
	ReferrerID string
	Referred   UserProfile
	Depth      int
}

type TreeNode struct {
	UserProfile
	Depth    int         `json:"depth"`
	Children []*TreeNode `json:"children"`
}

// BuildTree assembles the nodes reachable from root within maxDepth hops.
// Edges whose parent is not already in the tree are dropped, as is any
// second occurrence of a user.
func BuildTree(root UserProfile, edges []TreeEdge, maxDepth int) (*TreeNode, error) {
	if maxDepth < 1 {
		return nil, ErrInvalidDepth
	}

	ordered := make([]TreeEdge, len(edges))
	copy(ordered, edges)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Depth < ordered[j].Depth
	})

	rootNode := &TreeNode{UserProfile: root, Children: []*TreeNode{}}
	nodes := map[string]*TreeNode{root.ID: rootNode}
	for _, e := range ordered {
		if e.Depth < 1 || e.Depth > maxDepth {
			continue
		}
		parent, ok := nodes[e.ReferrerID]
		if !ok || parent.Depth != e.Depth-1 {
			continue
		}
		if _, seen := nodes[e.Referred.ID]; seen {
			continue
		}
		child := &TreeNode{UserProfile: e.Referred, Depth: e.Depth, Children: []*TreeNode{}}
		nodes[e.Referred.ID] = child
		parent.Children = append(parent.Children, child)
	}
	return rootNode, nil
}

// Size counts the descendants of n.
func (n *TreeNode) Size() int {
	total := 0
	for _, c := range n.Children {
		total += 1 + c.Size()
	}
	return total
}
