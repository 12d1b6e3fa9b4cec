// Package config reads the two kinds of configuration a manager needs: the
// server file, a JSON object of the form
//
//	{
//	  "mcpServers": {
//	    "filesystem": {"command": "npx", "args": ["-y", "@modelcontextprotocol/server-filesystem", "/tmp"]},
//	    "search":     {"transport": "sse", "url": "https://search.example.com/sse"},
//	    "legacy":     {"command": "legacy-server", "disabled": true}
//	  }
//	}
//
// and process-wide Settings taken from MCP_* environment variables.
package config
