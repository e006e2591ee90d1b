package mcp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/palimpsest/internal/logger"
)

// instructions are sent to the assistant when a session opens.
const instructions = `Palimpsest holds scanned archival documents in English, Hindi and Tamil.
Submit scans with submit_document and poll document_status until the status is "indexed" or "failed".
Answer questions with query and cite the returned document IDs (DOC-YYYY-NNN); if the result is uncertain, say so.
translate keeps dates, numerals and gazetteer names unchanged. Hindi and Tamil translate through English.
Read a document's extracted text from the resource palimpsest://documents/{documentId}.`

// shutdownTimeout bounds how long open HTTP sessions get to finish.
const shutdownTimeout = 5 * time.Second

// Server exposes the archive to MCP clients.
type Server struct {
	ports   *Ports
	server  *mcp.Server
	version string
}

// NewServer validates ports and registers the tools and resources.
func NewServer(ports *Ports) (*Server, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("validating ports: %w", err)
	}

	version := ports.Version
	if version == "" {
		version = "dev"
	}

	s := &Server{
		ports:   ports,
		version: version,
		server: mcp.NewServer(
			&mcp.Implementation{Name: "palimpsest", Version: version},
			&mcp.ServerOptions{Instructions: instructions},
		),
	}
	s.registerTools()
	s.registerResources()

	return s, nil
}

// Version reports the version advertised to clients.
func (s *Server) Version() string {
	return s.version
}

// Run serves one client over stdio until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	logger.Info("MCP server %s on stdio", s.version)
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// Handler serves streamable HTTP at / and a liveness probe at /healthz.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		fmt.Fprintf(w, "palimpsest %s ok\n", s.version)
	})
	mux.Handle("/", mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return s.server
	}, nil))
	return mux
}

// RunHTTP serves Handler on addr until ctx is cancelled, then gives open
// requests shutdownTimeout to finish.
func (s *Server) RunHTTP(ctx context.Context, addr string) error {
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Warn("MCP HTTP shutdown: %v", err)
		}
	}()

	logger.Info("MCP server %s on %s", s.version, addr)
	if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
