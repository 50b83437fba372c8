package api

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/server"
)

type toolResult struct {
	Result struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
		IsError bool `json:"isError"`
	} `json:"result"`
}

func setupMCP(t *testing.T) *server.MCPServer {
	t.Helper()
	srv := server.NewMCPServer("amyloid-notes-test", "test", server.WithToolCapabilities(false))
	RegisterMCPTools(srv, setupService(t))

	initMsg := `{"jsonrpc":"2.0","id":0,"method":"initialize","params":{"protocolVersion":"2024-11-05","capabilities":{},"clientInfo":{"name":"test","version":"0"}}}`
	srv.HandleMessage(context.Background(), json.RawMessage(initMsg))
	return srv
}

func callTool(t *testing.T, srv *server.MCPServer, name string, args map[string]any) toolResult {
	t.Helper()
	msg, _ := json.Marshal(map[string]any{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  "tools/call",
		"params":  map[string]any{"name": name, "arguments": args},
	})
	resp := srv.HandleMessage(context.Background(), msg)
	data, err := json.Marshal(resp)
	if err != nil {
		t.Fatalf("marshal response: %v", err)
	}
	var out toolResult
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("unmarshal %s: %v", data, err)
	}
	if len(out.Result.Content) == 0 {
		t.Fatalf("%s: empty result: %s", name, data)
	}
	return out
}

func TestMCPTools_List(t *testing.T) {
	srv := setupMCP(t)
	resp := srv.HandleMessage(context.Background(), json.RawMessage(`{"jsonrpc":"2.0","id":2,"method":"tools/list"}`))
	data, _ := json.Marshal(resp)
	for _, name := range []string{"normalize_text", "split_camel_case", "flag_keywords", "list_keyword_groups"} {
		if !strings.Contains(string(data), `"`+name+`"`) {
			t.Errorf("tools/list missing %s", name)
		}
	}
}

func TestMCPNormalizeText(t *testing.T) {
	srv := setupMCP(t)
	res := callTool(t, srv, "normalize_text", map[string]any{"text": "Heart biopsy\n\nCongo red positive"})
	if res.Result.IsError {
		t.Fatalf("tool error: %s", res.Result.Content[0].Text)
	}
	var body normalizeResponse
	if err := json.Unmarshal([]byte(res.Result.Content[0].Text), &body); err != nil {
		t.Fatal(err)
	}
	if body.Text != "Heart biopsy. Congo red positive" {
		t.Errorf("text = %q", body.Text)
	}

	res = callTool(t, srv, "normalize_text", map[string]any{"text": "x", "mode": "loud"})
	if !res.Result.IsError || !strings.Contains(res.Result.Content[0].Text, "invalid input") {
		t.Errorf("unknown mode result = %+v", res.Result)
	}
}

func TestMCPSplitCamelCase(t *testing.T) {
	srv := setupMCP(t)
	res := callTool(t, srv, "split_camel_case", map[string]any{"token": "congoRed"})
	if !strings.Contains(res.Result.Content[0].Text, `"split":"congo Red"`) {
		t.Errorf("result = %s", res.Result.Content[0].Text)
	}
}

func TestMCPFlagKeywords(t *testing.T) {
	srv := setupMCP(t)
	res := callTool(t, srv, "flag_keywords", map[string]any{
		"text":   "Hereditary TTR amyloidosis",
		"groups": "httr, al",
	})
	if res.Result.IsError {
		t.Fatalf("tool error: %s", res.Result.Content[0].Text)
	}
	text := res.Result.Content[0].Text
	if !strings.Contains(text, `"group_id":"httr"`) || strings.Contains(text, `"group_id":"amyloid"`) {
		t.Errorf("result = %s", text)
	}
}

func TestMCPListKeywordGroups(t *testing.T) {
	srv := setupMCP(t)
	res := callTool(t, srv, "list_keyword_groups", nil)
	if !strings.Contains(res.Result.Content[0].Text, `"id":"congo-red-stain"`) {
		t.Errorf("result = %s", res.Result.Content[0].Text)
	}
}
