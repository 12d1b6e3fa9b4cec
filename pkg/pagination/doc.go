// Package pagination follows the opaque cursors MCP list operations return.
//
// A listing is complete when the server omits nextCursor. Collect drives a
// Fetcher until then:
//
//	tools, err := pagination.Collect(ctx, func(ctx context.Context, cursor string) (pagination.Page[protocol.Tool], error) {
//	    var result protocol.ListToolsResult
//	    err := call(ctx, protocol.MethodListTools, protocol.ListToolsParams{
//	        PaginatedParams: protocol.PaginatedParams{Cursor: cursor},
//	    }, &result)
//	    return pagination.Page[protocol.Tool]{Items: result.Tools, NextCursor: result.NextCursor}, err
//	}, 0)
//
// A cursor the server already handed out, or more than MaxPages pages, ends
// the listing with a protocol error instead of looping.
package pagination
