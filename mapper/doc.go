// Package mapper implements the read-to-reference mapping core of a
// long-read aligner: sketch, low-complexity filtering, anchor construction,
// colinear chaining, primary/secondary selection, chain joining, and mapping
// quality, wired together by a batched read/map/write pipeline.
//
// The index, sketcher, low-complexity detector, base-level aligner,
// sequence reader and text serializer are external collaborators; mapper
// depends only on their interfaces (see the index, sketch, lcmask, align,
// seqio and mapout subpackages), not on any particular implementation.
package mapper
