package mcp

import "github.com/modelcontextprotocol/go-sdk/mcp"

// MCPServer exposes the underlying server so tests can connect in process.
func (s *Server) MCPServer() *mcp.Server {
	return s.mcpServer
}
