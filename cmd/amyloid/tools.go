package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/hazyhaar/amyloid-notes/pkg/mcpquic"
)

func cmdTools(args []string) {
	fs := flag.NewFlagSet("tools", flag.ExitOnError)
	cfgPath := fs.String("config", "config.yaml", "path to config file")
	addr := fs.String("addr", "", "MCP QUIC address (default: mcp_addr from config)")
	call := fs.String("call", "", "tool to call; lists tools when empty")
	argsJSON := fs.String("args", "{}", "tool arguments as a JSON object")
	fs.Parse(args)

	cfg, logger := setup(*cfgPath)
	target := *addr
	if target == "" {
		target = cfg.MCPAddr
	}
	if target == "" {
		fatal(logger, "tools", fmt.Errorf("no address: pass -addr or set mcp_addr"))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	c := mcpquic.NewClient(target, nil)
	if err := c.Connect(ctx); err != nil {
		fatal(logger, "connect", err)
	}
	defer c.Close()

	if *call == "" {
		res, err := c.ListTools(ctx)
		if err != nil {
			fatal(logger, "list tools", err)
		}
		for _, t := range res.Tools {
			fmt.Printf("  %-22s %s\n", t.Name, t.Description)
		}
		return
	}

	var toolArgs map[string]any
	if err := json.Unmarshal([]byte(*argsJSON), &toolArgs); err != nil {
		fatal(logger, "parse -args", err)
	}
	res, err := c.CallTool(ctx, *call, toolArgs)
	if err != nil {
		fatal(logger, "call tool", err)
	}
	for _, content := range res.Content {
		if tc, ok := mcp.AsTextContent(content); ok {
			fmt.Println(tc.Text)
		}
	}
	if res.IsError {
		fatal(logger, "tool error", fmt.Errorf("%s returned an error", *call))
	}
}
