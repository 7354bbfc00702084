// Package api provides the HTTP API server for searching and replacing the
// document store.
package api

// Config is the API server configuration.
type Config struct {
	// ListenAddr is the address to listen on (e.g., ":8081")
	ListenAddr string

	// DisableMCP removes the search tool from the /mcp endpoint
	DisableMCP bool
}
