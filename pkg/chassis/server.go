// Package chassis serves the API over TLS on one port with two listeners:
//   - TCP: HTTP/1.1 + HTTP/2
//   - UDP: QUIC, demuxed by ALPN between "h3" (HTTP/3, same handler) and
//     mcpquic.ALPNProtocolMCP (MCP JSON-RPC)
//
// HTTP responses advertise HTTP/3 with an Alt-Svc header.
package chassis

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"

	"github.com/mark3labs/mcp-go/server"
	"github.com/quic-go/quic-go"
	"github.com/quic-go/quic-go/http3"

	"github.com/hazyhaar/amyloid-notes/pkg/mcpquic"
)

const (
	connErrorMCPDisabled     quic.ApplicationErrorCode = 0x10
	connErrorUnsupportedALPN quic.ApplicationErrorCode = 0x11
)

// Config holds configuration for the chassis server.
type Config struct {
	Addr      string            // TCP and UDP listen address, e.g. ":8443"
	CertFile  string            // empty = self-signed
	KeyFile   string
	Handler   http.Handler
	MCPServer *server.MCPServer // nil = MCP disabled
	Logger    *slog.Logger
}

// Server is the dual-transport server.
type Server struct {
	addr       string
	logger     *slog.Logger
	tlsCfg     *tls.Config
	handler    http.Handler
	mcpHandler *mcpquic.Handler
	h3Server   *http3.Server
	tcpServer  *http.Server
	quicLn     *quic.Listener
	mu         sync.Mutex
}

// New prepares a server; nothing listens until Start.
func New(cfg Config) (*Server, error) {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	tlsCfg, err := TLSConfig(cfg.CertFile, cfg.KeyFile)
	if err != nil {
		return nil, err
	}

	s := &Server{
		addr:    cfg.Addr,
		logger:  cfg.Logger,
		tlsCfg:  tlsCfg,
		handler: securityHeaders(altSvc(cfg.Addr, cfg.Handler)),
	}
	if cfg.MCPServer != nil {
		s.mcpHandler = mcpquic.NewHandler(cfg.MCPServer, cfg.Logger)
	}
	return s, nil
}

// TLSConfig loads certFile/keyFile, or generates a self-signed certificate
// when certFile is empty, and advertises both "h3" and the MCP ALPN.
func TLSConfig(certFile, keyFile string) (*tls.Config, error) {
	cfg, err := mcpquic.LoadTLS(certFile, keyFile)
	if err != nil {
		return nil, fmt.Errorf("chassis tls: %w", err)
	}
	cfg.NextProtos = []string{http3.NextProtoH3, mcpquic.ALPNProtocolMCP}
	return cfg, nil
}

func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "no-referrer")
		w.Header().Set("Cache-Control", "no-store")
		next.ServeHTTP(w, r)
	})
}

// altSvc advertises HTTP/3 on the port of addr.
func altSvc(addr string, next http.Handler) http.Handler {
	_, port, _ := net.SplitHostPort(addr)
	if port == "" {
		port = "443"
	}
	value := fmt.Sprintf(`h3=":%s"; ma=86400`, port)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Alt-Svc", value)
		next.ServeHTTP(w, r)
	})
}

// Start listens on TCP and UDP and blocks until ctx is done or a listener
// fails.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()

	tcpTLS := s.tlsCfg.Clone()
	tcpTLS.NextProtos = []string{"h2", "http/1.1"}
	s.tcpServer = &http.Server{
		Addr:      s.addr,
		Handler:   s.handler,
		TLSConfig: tcpTLS,
	}

	ln, err := quic.ListenAddr(s.addr, s.tlsCfg, mcpquic.ProductionQUICConfig())
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("QUIC listen: %w", err)
	}
	s.quicLn = ln
	s.h3Server = &http3.Server{Handler: s.handler}
	s.mu.Unlock()

	s.logger.Info("chassis started", "addr", s.addr, "tcp", "HTTP/1.1+HTTP/2", "udp", "HTTP/3+MCP")

	errCh := make(chan error, 2)
	go func() {
		tcpLn, err := tls.Listen("tcp", s.addr, tcpTLS)
		if err != nil {
			errCh <- fmt.Errorf("TCP listen: %w", err)
			return
		}
		if err := s.tcpServer.Serve(tcpLn); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("TCP: %w", err)
		}
	}()

	go func() {
		for {
			conn, err := ln.Accept(ctx)
			if err != nil {
				if ctx.Err() == nil {
					errCh <- fmt.Errorf("QUIC accept: %w", err)
				}
				return
			}
			s.dispatch(ctx, conn)
		}
	}()

	select {
	case <-ctx.Done():
		return nil
	case err := <-errCh:
		return err
	}
}

// dispatch routes an accepted QUIC connection by its negotiated ALPN.
func (s *Server) dispatch(ctx context.Context, conn *quic.Conn) {
	alpn := conn.ConnectionState().TLS.NegotiatedProtocol
	switch {
	case alpn == http3.NextProtoH3:
		go func() {
			if err := s.h3Server.ServeQUICConn(conn); err != nil {
				s.logger.Debug("HTTP/3 conn done", "remote", conn.RemoteAddr(), "error", err)
			}
		}()
	case alpn == mcpquic.ALPNProtocolMCP && s.mcpHandler != nil:
		go s.mcpHandler.ServeConn(ctx, conn)
	case alpn == mcpquic.ALPNProtocolMCP:
		conn.CloseWithError(connErrorMCPDisabled, "MCP not enabled")
	default:
		s.logger.Warn("unknown ALPN, closing", "alpn", alpn, "remote", conn.RemoteAddr())
		conn.CloseWithError(connErrorUnsupportedALPN, "unsupported ALPN: "+alpn)
	}
}

// Stop shuts down both listeners.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var firstErr error
	if s.tcpServer != nil {
		if err := s.tcpServer.Shutdown(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if s.quicLn != nil {
		if err := s.quicLn.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if s.h3Server != nil {
		if err := s.h3Server.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	s.logger.Info("chassis stopped")
	return firstErr
}
