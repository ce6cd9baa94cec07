package syntax

import (
	"fmt"
	"sync/atomic"
)

// Annotation is a durable tag attached to a node. Two annotations are equal
// only when they come from the same call to [NewAnnotation].
type Annotation struct {
	kind string
	id   uint64
}

var annotationSeq atomic.Uint64

// NewAnnotation returns a fresh annotation of the given kind.
func NewAnnotation(kind string) Annotation {
	return Annotation{kind: kind, id: annotationSeq.Add(1)}
}

// FormatAnnotation marks a subtree the host formatter should normalize after
// a batch of edits.
var FormatAnnotation = Annotation{kind: "format"}

// Kind returns the annotation's kind.
func (a Annotation) Kind() string { return a.kind }

// IsZero reports whether a is the zero Annotation.
func (a Annotation) IsZero() bool { return a == Annotation{} }

func (a Annotation) String() string {
	return fmt.Sprintf("%s#%d", a.kind, a.id)
}
