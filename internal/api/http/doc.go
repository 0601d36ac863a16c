// Package http maps the REST config API onto editor operations and editor
// outcomes onto status codes. Validation failures come back to the caller
// verbatim inside "Message malformed: ..." bodies; storage faults become
// opaque 500s and are logged.
package http
