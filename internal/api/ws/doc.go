// Package ws streams live collection events over WebSocket.
//
// Clients connect to /stream and receive one JSON message per collection
// event as reloads reconcile the live entities.
//
// Message Types (Client → Server):
//   - ping: Keep-alive ping
//
// Message Types (Server → Client):
//   - system: Connection established
//   - state_changed: A live entity changed state
//   - entity_removed: A live entity was removed
//   - pong: Keep-alive reply
//
// Example Usage:
//
//	handler := ws.NewHandler(logger, metrics, col)
//	router.GET("/stream", handler.HandleConnection)
package ws
