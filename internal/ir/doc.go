// Package ir implements the core of an extensible, region-based intermediate
// representation: a Context that owns every long-lived, uniqued entity
// (types, attributes, locations, affine maps, operation names), and the
// Operation node that those entities describe.
//
// # Ownership model
//
// The Context is the root owner. Uniqued storage obtained through it is
// immortal until the Context is garbage: there is no reference counting and
// no individual release. Handles (Type, Attribute, Location, OperationName)
// are small values wrapping a storage pointer, so equality is pointer
// equality and they are meant to be passed by value.
//
// Operations are not uniqued. Each Operation is an individually owned node,
// usually held by its parent Block; it borrows every Type, Attribute and
// OperationName it references and owns only its properties blob and its
// discardable attribute dictionary.
//
// # Dialects
//
// Kinds of types, attributes and operations arrive in named bundles called
// dialects. A dialect is loaded at most once per context; loading registers
// its kinds in the per-kind dispatch tables and primes the uniquers. The
// builtin dialect is always pre-loaded.
//
// # Concurrency
//
// Lookups of already-registered entities are safe for concurrent readers.
// Registration (loading dialects, adding kinds, flipping context flags) must
// happen outside multithreaded execution; callers bracket parallel phases
// with EnterMultiThreadedExecution / ExitMultiThreadedExecution and the
// context panics on mutation attempts while the bracket is open.
package ir
