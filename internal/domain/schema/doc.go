// Package schema implements declarative validation of untyped configuration
// trees, in the style of the platform's Python ancestor: a schema is data (an
// ordered field list), application either normalizes the input or returns a
// single Invalid failure whose message is meant for the end user.
//
// The engine is collection-agnostic so new collection types reuse it by
// declaring their own field lists.
package schema
