package api

import (
	"context"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/hazyhaar/amyloid-notes/pkg/keywords"
	"github.com/hazyhaar/amyloid-notes/pkg/kit"
	"github.com/hazyhaar/amyloid-notes/pkg/textnorm"
)

// RegisterMCPTools registers the normalizer and keyword tools on the server.
func RegisterMCPTools(srv *server.MCPServer, svc *Service) {
	registerNormalizeText(srv, svc)
	registerSplitCamelCase(srv, svc)
	registerFlagKeywords(srv, svc)
	registerListKeywordGroups(srv, svc)
}

// mcpContext marks tool calls that did not arrive through the QUIC
// listener, which tags its sessions itself, as stdio calls.
func mcpContext(ctx context.Context) context.Context {
	if _, ok := ctx.Value(kit.TransportKey).(string); ok {
		return ctx
	}
	return kit.WithTransport(ctx, kit.TransportMCPStdio)
}

func registerNormalizeText(srv *server.MCPServer, svc *Service) {
	tool := mcp.NewTool("normalize_text",
		mcp.WithDescription("Clean a clinical report into ASCII, sentence-segmented text. Mode cardiac_path (default) runs the full pipeline, pyp only collapses whitespace."),
		mcp.WithString("text", mcp.Required(), mcp.Description("Raw report text")),
		mcp.WithString("mode", mcp.Description("cardiac_path, pyp or none")),
		mcp.WithBoolean("trace", mcp.Description("Include the output of every pipeline stage")),
		mcp.WithBoolean("flag", mcp.Description("Also flag keyword groups in the cleaned text")),
	)

	kit.RegisterMCPTool(srv, tool, svc.normalizeEndpoint(), func(req mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		args := req.GetArguments()
		nr := &normalizeReq{}
		if text, ok := args["text"].(string); ok {
			nr.Text = &text
		}
		if mode, _ := args["mode"].(string); mode != "" {
			nr.Mode = textnorm.Mode(mode)
		}
		nr.Trace, _ = args["trace"].(bool)
		nr.Flag, _ = args["flag"].(bool)
		return &kit.MCPDecodeResult{Request: nr, EnrichCtx: mcpContext}, nil
	})
}

func registerSplitCamelCase(srv *server.MCPServer, svc *Service) {
	tool := mcp.NewTool("split_camel_case",
		mcp.WithDescription("Insert a space at every lowercase-to-uppercase boundary (AmyloidosisCardiac -> Amyloidosis Cardiac)."),
		mcp.WithString("token", mcp.Required(), mcp.Description("The token to split")),
	)

	kit.RegisterMCPTool(srv, tool, svc.camelCaseEndpoint(), func(req mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		token, _ := req.GetArguments()["token"].(string)
		return &kit.MCPDecodeResult{Request: &camelCaseReq{Token: token}, EnrichCtx: mcpContext}, nil
	})
}

func registerFlagKeywords(srv *server.MCPServer, svc *Service) {
	tool := mcp.NewTool("flag_keywords",
		mcp.WithDescription("Find amyloidosis keyword groups (amyloid, ttr, al, congo red stain, heart biopsy, ...) in a text."),
		mcp.WithString("text", mcp.Required(), mcp.Description("Text to search")),
		mcp.WithBoolean("clean", mcp.Description("Run the cardiac pathology cleaner before matching")),
		mcp.WithString("groups", mcp.Description("Comma-separated group filter (e.g. ttr,al)")),
		mcp.WithString("categories", mcp.Description("Comma-separated category filter (e.g. subtype,stain)")),
	)

	kit.RegisterMCPTool(srv, tool, svc.flagEndpoint(), func(req mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		args := req.GetArguments()
		text, _ := args["text"].(string)
		clean, _ := args["clean"].(bool)
		opts := &keywords.FlagOptions{}
		if v, _ := args["groups"].(string); v != "" {
			opts.Groups = splitList(v)
		}
		if v, _ := args["categories"].(string); v != "" {
			opts.Categories = splitList(v)
		}
		return &kit.MCPDecodeResult{Request: &flagReq{Text: text, Clean: clean, Opts: opts}, EnrichCtx: mcpContext}, nil
	})
}

func registerListKeywordGroups(srv *server.MCPServer, svc *Service) {
	tool := mcp.NewTool("list_keyword_groups",
		mcp.WithDescription("List the loaded keyword groups with category, method and size."),
	)

	kit.RegisterMCPTool(srv, tool, svc.listGroupsEndpoint(), func(_ mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		return &kit.MCPDecodeResult{Request: nil, EnrichCtx: mcpContext}, nil
	})
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}
