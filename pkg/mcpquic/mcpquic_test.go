package mcpquic

import (
	"bufio"
	"bytes"
	"context"
	"crypto/x509"
	"errors"
	"log/slog"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/hazyhaar/amyloid-notes/pkg/kit"
)

func TestMagicBytes(t *testing.T) {
	var buf bytes.Buffer
	if err := SendMagicBytes(&buf); err != nil {
		t.Fatalf("SendMagicBytes: %v", err)
	}
	if err := ValidateMagicBytes(&buf); err != nil {
		t.Fatalf("ValidateMagicBytes: %v", err)
	}

	if err := ValidateMagicBytes(strings.NewReader("HTTP/1.1")); !errors.Is(err, ErrInvalidMagicBytes) {
		t.Errorf("err = %v, want ErrInvalidMagicBytes", err)
	}
	if err := ValidateMagicBytes(strings.NewReader("MC")); err == nil {
		t.Error("expected error for short read")
	}
}

func TestReadLine(t *testing.T) {
	r := bufio.NewReaderSize(strings.NewReader("{\"a\":1}\r\n\nlast"), 16)
	want := []string{`{"a":1}`, "", "last"}
	for _, w := range want {
		got, err := readLine(r, 64)
		if err != nil {
			t.Fatalf("readLine: %v", err)
		}
		if string(got) != w {
			t.Errorf("readLine = %q, want %q", got, w)
		}
	}
	if _, err := readLine(r, 64); err == nil {
		t.Error("expected EOF")
	}

	long := bufio.NewReaderSize(strings.NewReader(strings.Repeat("x", 100)+"\n"), 16)
	if _, err := readLine(long, 64); !errors.Is(err, errMessageTooLarge) {
		t.Errorf("err = %v, want errMessageTooLarge", err)
	}
}

func TestConnectionError(t *testing.T) {
	err := &ConnectionError{RemoteAddr: "127.0.0.1:1", Code: ConnErrorUnsupportedALPN, Err: ErrUnsupportedALPN}
	if !errors.Is(err, ErrUnsupportedALPN) {
		t.Error("ConnectionError should unwrap")
	}
	if !strings.Contains(err.Error(), "0x01") {
		t.Errorf("Error() = %q", err.Error())
	}
}

func TestListenerRoundTrip(t *testing.T) {
	mcpSrv := server.NewMCPServer("amyloid-notes-test", "test", server.WithToolCapabilities(false))
	transports := make(chan string, 1)
	mcpSrv.AddTool(mcp.NewTool("echo", mcp.WithString("text", mcp.Required())),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			transports <- kit.GetTransport(ctx)
			text, _ := req.GetArguments()["text"].(string)
			return mcp.NewToolResultText(strings.ToUpper(text)), nil
		})

	tlsCfg, err := SelfSignedTLSConfig()
	if err != nil {
		t.Fatalf("SelfSignedTLSConfig: %v", err)
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	l, err := NewListener("127.0.0.1:0", tlsCfg, mcpSrv, logger)
	if err != nil {
		t.Fatalf("NewListener: %v", err)
	}
	defer l.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()
	go l.Serve(ctx)

	c := NewClient(l.Addr().String(), nil)
	if err := c.Connect(ctx); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer c.Close()

	if err := c.Ping(ctx); err != nil {
		t.Fatalf("Ping: %v", err)
	}
	tools, err := c.ListTools(ctx)
	if err != nil {
		t.Fatalf("ListTools: %v", err)
	}
	if len(tools.Tools) != 1 || tools.Tools[0].Name != "echo" {
		t.Errorf("tools = %+v", tools.Tools)
	}

	res, err := c.CallTool(ctx, "echo", map[string]any{"text": "amyloid"})
	if err != nil {
		t.Fatalf("CallTool: %v", err)
	}
	var text string
	switch c := res.Content[0].(type) {
	case mcp.TextContent:
		text = c.Text
	case *mcp.TextContent:
		text = c.Text
	}
	if text != "AMYLOID" {
		t.Errorf("content = %+v", res.Content)
	}
	if got := <-transports; got != kit.TransportMCPQUIC {
		t.Errorf("transport = %q", got)
	}
}

func TestClientNotConnected(t *testing.T) {
	c := NewClient("127.0.0.1:1", nil)
	ctx := context.Background()
	if _, err := c.ListTools(ctx); !errors.Is(err, errNotConnected) {
		t.Errorf("ListTools: err = %v", err)
	}
	if _, err := c.CallTool(ctx, "x", nil); err == nil {
		t.Error("CallTool: expected error")
	}
	if err := c.Ping(ctx); err == nil {
		t.Error("Ping: expected error")
	}
}

func TestSelfSignedHosts(t *testing.T) {
	cfg, err := SelfSignedTLSConfig("notes.internal", "10.1.2.3", "")
	if err != nil {
		t.Fatalf("SelfSignedTLSConfig: %v", err)
	}
	cert, err := x509.ParseCertificate(cfg.Certificates[0].Certificate[0])
	if err != nil {
		t.Fatalf("ParseCertificate: %v", err)
	}
	if err := cert.VerifyHostname("notes.internal"); err != nil {
		t.Errorf("VerifyHostname(notes.internal): %v", err)
	}
	if err := cert.VerifyHostname("10.1.2.3"); err != nil {
		t.Errorf("VerifyHostname(10.1.2.3): %v", err)
	}
	if err := cert.VerifyHostname("localhost"); err != nil {
		t.Errorf("VerifyHostname(localhost): %v", err)
	}
	if len(cert.DNSNames) != 2 {
		t.Errorf("DNSNames = %v", cert.DNSNames)
	}
}

func TestLoadTLS(t *testing.T) {
	cfg, err := LoadTLS("", "")
	if err != nil {
		t.Fatalf("LoadTLS self-signed: %v", err)
	}
	if cfg.NextProtos[0] != ALPNProtocolMCP {
		t.Errorf("NextProtos = %v", cfg.NextProtos)
	}
	if _, err := LoadTLS("/nonexistent/cert.pem", "/nonexistent/key.pem"); err == nil {
		t.Error("expected error for missing key pair")
	}
}
