// Package server wires configuration, storage, validation, live collections
// and the HTTP/WebSocket API into a runnable service.
package server
