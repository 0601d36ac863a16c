// Package blueprint loads reusable parameterized templates and expands them
// into concrete entry bodies.
//
// A blueprint file declares its metadata and inputs under a top-level
// "blueprint" key; the rest of the document is the template body. The body
// references inputs with single-key mappings of the form {input: <name>}.
// Binding checks that every declared input is satisfied (defaults count);
// substitution then replaces every reference, failing on references to
// inputs that were never bound.
package blueprint
