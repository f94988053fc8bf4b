package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func profile(id string) UserProfile {
	return UserProfile{ID: id, FullName: "User " + id}
}

func chainEdges() []TreeEdge {
	return []TreeEdge{
		{ReferrerID: "root", Referred: profile("B"), Depth: 1},
		{ReferrerID: "B", Referred: profile("C"), Depth: 2},
		{ReferrerID: "C", Referred: profile("D"), Depth: 3},
	}
}

func TestBuildTree_StopsAtMaxDepth(t *testing.T) {
	tree, err := BuildTree(profile("root"), chainEdges(), 2)
	require.NoError(t, err)

	require.Len(t, tree.Children, 1)
	b := tree.Children[0]
	assert.Equal(t, "B", b.ID)
	require.Len(t, b.Children, 1)
	c := b.Children[0]
	assert.Equal(t, "C", c.ID)
	assert.Equal(t, 2, c.Depth)
	assert.Empty(t, c.Children)
	assert.Equal(t, 2, tree.Size())
}

func TestBuildTree_FansOut(t *testing.T) {
	edges := []TreeEdge{
		{ReferrerID: "B", Referred: profile("D"), Depth: 2},
		{ReferrerID: "root", Referred: profile("B"), Depth: 1},
		{ReferrerID: "root", Referred: profile("C"), Depth: 1},
	}

	tree, err := BuildTree(profile("root"), edges, 3)
	require.NoError(t, err)
	require.Len(t, tree.Children, 2)
	assert.Equal(t, "B", tree.Children[0].ID)
	assert.Equal(t, "C", tree.Children[1].ID)
	require.Len(t, tree.Children[0].Children, 1)
	assert.Equal(t, "D", tree.Children[0].Children[0].ID)
}

func TestBuildTree_IgnoresRepeatedAndOrphanEdges(t *testing.T) {
	edges := append(chainEdges(),
		TreeEdge{ReferrerID: "C", Referred: profile("root"), Depth: 3},
		TreeEdge{ReferrerID: "ghost", Referred: profile("E"), Depth: 2},
	)

	tree, err := BuildTree(profile("root"), edges, 10)
	require.NoError(t, err)
	assert.Equal(t, 3, tree.Size())
}

func TestBuildTree_EmptyAndInvalidDepth(t *testing.T) {
	tree, err := BuildTree(profile("root"), nil, 1)
	require.NoError(t, err)
	assert.NotNil(t, tree.Children)
	assert.Empty(t, tree.Children)

	_, err = BuildTree(profile("root"), chainEdges(), 0)
	assert.ErrorIs(t, err, ErrInvalidDepth)
}

func TestReferralEdgeError(t *testing.T) {
	assert.ErrorIs(t, ReferralEdgeError("A", "A", false), ErrSelfReferral)
	assert.ErrorIs(t, ReferralEdgeError("B", "A", true), ErrReferralCycle)
	assert.NoError(t, ReferralEdgeError("A", "B", false))
}
