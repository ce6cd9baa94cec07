// Package syntax provides the immutable, persistent syntax tree shared by all
// hosts, rules and fixes.
//
// A tree is made of green [Node] values that know their kind, their children
// and their width, but not their absolute position. Positions are computed on
// demand by a [Cursor], which pairs a node with its start offset and its parent
// chain. The text of a tree is the concatenation of its leaves, so every tree
// built with [Build] reproduces its source byte for byte.
//
// Edits never mutate a tree. [Tree.Replace], [Tree.Remove], [Tree.InsertBefore],
// [Tree.InsertAfter] and [Tree.ReplaceNodes] return a new tree that allocates
// nodes only along the path from the root to the edit and shares every other
// subtree with the original.
//
// An [Annotation] is a tag carried by a node. Because annotations live on the
// node itself, they survive every edit that does not replace the annotated node,
// and [Tree.Annotated] finds the node again after its span has moved.
package syntax
