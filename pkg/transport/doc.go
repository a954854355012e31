// Package transport provides host-side ports.Transport implementations:
// a Recorder that collects outbound activities per conversation (used by the
// HTTP and MCP adapters to return replies to the caller, and by tests), and
// a Writer that prints replies to an io.Writer for console hosts.
package transport
