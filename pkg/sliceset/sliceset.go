// Package sliceset implements the persistent (structurally shared) set of
// mined slices attached to every chain-store entry: mined_slices[h] =
// mined_slices[prev(h)] ∪ set(body(h)). Each block's set must be derivable
// from its parent's in O(|body|), not O(height), per the design note in
// spec.md §9 ("a mutable copy-per-block approach will blow up memory for
// long chains"). We ground this on hashicorp/go-immutable-radix/v2, the
// same persistent-trie family go-ethereum-adjacent projects in this
// corpus pull in for exactly this kind of copy-on-write set.
package sliceset

import (
	iradix "github.com/hashicorp/go-immutable-radix/v2"
)

// Set is an immutable set of slice keys. The zero value is the empty set.
type Set struct {
	tree *iradix.Tree[struct{}]
}

// Empty is the empty slice set, the seed value attached to ZeroHash.
var Empty = Set{tree: iradix.New[struct{}]()}

// Contains reports whether key is a member of s.
func (s Set) Contains(key string) bool {
	if s.tree == nil {
		return false
	}
	_, ok := s.tree.Get([]byte(key))
	return ok
}

// Union returns a new Set containing every key of s plus every key in
// keys. Because iradix.Tree is persistent, this shares structure with s:
// the cost is O(len(keys)), not O(s.Len()).
func (s Set) Union(keys []string) Set {
	tree := s.tree
	if tree == nil {
		tree = iradix.New[struct{}]()
	}
	txn := tree.Txn()
	for _, k := range keys {
		txn.Insert([]byte(k), struct{}{})
	}
	return Set{tree: txn.Commit()}
}

// Len returns the number of members in s.
func (s Set) Len() int {
	if s.tree == nil {
		return 0
	}
	return s.tree.Len()
}
