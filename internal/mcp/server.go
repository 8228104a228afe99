// Package mcp exposes the document store as an MCP JSON-RPC façade over
// plain HTTP, with an SSE stream for clients that keep a connection open.
package mcp

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/nmelo/mcp-pinecone/internal/docstore"
)

const (
	serviceName     = "mcp-pinecone-web"
	serviceVersion  = "1.0.0"
	protocolVersion = "2024-11-05"

	// maxRequestBytes bounds a single JSON-RPC request body.
	maxRequestBytes = 10 << 20
)

// storeUnavailableMessage is returned inside tool results while the remote
// vector store is not initialized. The façade itself stays up.
const storeUnavailableMessage = "Pinecone client is not initialized. Set PINECONE_API_KEY and PINECONE_INDEX_NAME (or PINECONE_HOST) and restart the server."

// Config configures the façade server.
type Config struct {
	// Store backs tools/call. May be nil when the vector store failed to
	// initialize; tool calls then return explanatory text instead of errors.
	Store *docstore.Store

	// HeartbeatInterval is the SSE heartbeat period. Defaults to 30s.
	HeartbeatInterval time.Duration

	// Clock stamps SSE heartbeats. Defaults to time.Now.
	Clock func() time.Time
}

// Server handles the HTTP surface of the façade.
type Server struct {
	store             *docstore.Store
	heartbeatInterval time.Duration
	clock             func() time.Time
}

// New creates a façade server.
func New(cfg Config) *Server {
	if cfg.HeartbeatInterval <= 0 {
		cfg.HeartbeatInterval = defaultHeartbeatInterval
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}

	return &Server{
		store:             cfg.Store,
		heartbeatInterval: cfg.HeartbeatInterval,
		clock:             cfg.Clock,
	}
}

// Handler returns the façade routes wrapped with request logging.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleRoot)
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/tools", s.handleToolNames)
	mux.HandleFunc("/sse", s.handleSSE)
	return logRequests(mux)
}

// handleRoot serves the service descriptor on GET and the JSON-RPC
// dispatcher on POST.
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, map[string]any{
			"status":  "ok",
			"service": serviceName,
			"version": serviceVersion,
		})
	case http.MethodPost:
		s.handleRPC(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":               "healthy",
		"pinecone_initialized": s.store != nil,
	})
}

func (s *Server) handleToolNames(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"tools": toolNames()})
}

// handleRPC decodes one JSON-RPC request and writes one response. Protocol
// failures are reported inside the JSON-RPC envelope with HTTP 200; the only
// non-200 outcome is 202 for notifications.
func (s *Server) handleRPC(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBytes)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeJSON(w, http.StatusOK, rpcErr(nil, codeParseError, "Parse error"))
		return
	}

	var req jsonrpcRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeJSON(w, http.StatusOK, rpcErr(nil, codeParseError, "Parse error"))
		return
	}

	if req.JSONRPC != "2.0" {
		writeJSON(w, http.StatusOK, rpcErr(req.ID, codeInvalidRequest, "Invalid request: jsonrpc must be \"2.0\""))
		return
	}

	// Notifications carry no id and expect no response body.
	if req.ID == nil {
		slog.Debug("rpc notification", "rpc_method", req.Method)
		w.WriteHeader(http.StatusAccepted)
		return
	}

	slog.Info("rpc request", "rpc_method", req.Method, "id", req.ID)
	writeJSON(w, http.StatusOK, s.dispatch(r.Context(), req))
}

func (s *Server) dispatch(ctx context.Context, req jsonrpcRequest) *jsonrpcResponse {
	switch req.Method {
	case "initialize":
		return rpcResult(req.ID, capabilityDescriptor())
	case "tools/list":
		return rpcResult(req.ID, map[string]any{"tools": toolDefinitions()})
	case "tools/call":
		return s.handleToolsCall(ctx, req)
	default:
		return rpcErr(req.ID, codeMethodNotFound, "Method not found: "+req.Method)
	}
}

// capabilityDescriptor is the initialize result, also streamed as the second
// SSE event.
func capabilityDescriptor() map[string]any {
	return map[string]any{
		"protocolVersion": protocolVersion,
		"capabilities": map[string]any{
			"tools": map[string]any{},
		},
		"serverInfo": map[string]any{
			"name":    serviceName,
			"version": serviceVersion,
		},
	}
}

func (s *Server) handleToolsCall(ctx context.Context, req jsonrpcRequest) *jsonrpcResponse {
	var params struct {
		Name      string         `json:"name"`
		Arguments map[string]any `json:"arguments"`
	}
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return rpcErr(req.ID, codeInvalidParams, "Invalid params: "+err.Error())
	}

	// Without a store every tool degrades to the same explanation. This
	// keeps the protocol surface healthy while the backend is down.
	if s.store == nil {
		return toolResult(req.ID, storeUnavailableMessage)
	}

	switch params.Name {
	case toolSemanticSearch:
		return s.callSemanticSearch(ctx, req.ID, params.Arguments)
	case toolProcessDocument:
		return s.callProcessDocument(ctx, req.ID, params.Arguments)
	case toolListDocuments:
		return s.callListDocuments(ctx, req.ID, params.Arguments)
	case toolReadDocument:
		return s.callReadDocument(ctx, req.ID, params.Arguments)
	case toolPineconeStats:
		return s.callPineconeStats(ctx, req.ID)
	default:
		return toolResult(req.ID, "Unknown tool: "+params.Name)
	}
}

func (s *Server) callSemanticSearch(ctx context.Context, id any, args map[string]any) *jsonrpcResponse {
	query := strArg(args, "query")
	if query == "" {
		return toolResult(id, "Error: query is required")
	}

	matches, err := s.store.SemanticSearch(ctx, query, intArg(args, "top_k"), strArg(args, "namespace"), objArg(args, "filter"))
	if err != nil {
		return toolResult(id, "Error searching documents: "+err.Error())
	}

	slog.Info("tool call", "tool", toolSemanticSearch, "matches", len(matches))
	return toolResult(id, formatSearchMatches(query, matches))
}

func (s *Server) callProcessDocument(ctx context.Context, id any, args map[string]any) *jsonrpcResponse {
	text := strArg(args, "text")
	if text == "" {
		return toolResult(id, "Error: text is required")
	}

	doc := docstore.Document{
		ID:       strArg(args, "document_id"),
		Title:    strArg(args, "title"),
		Text:     text,
		Metadata: objArg(args, "metadata"),
	}

	docID, err := s.store.ProcessDocument(ctx, doc, strArg(args, "namespace"))
	if err != nil {
		return toolResult(id, "Error processing document: "+err.Error())
	}

	slog.Info("tool call", "tool", toolProcessDocument, "document_id", docID)
	return toolResult(id, "Document stored with id: "+docID)
}

func (s *Server) callListDocuments(ctx context.Context, id any, args map[string]any) *jsonrpcResponse {
	summaries, err := s.store.ListDocuments(ctx, strArg(args, "namespace"), intArg(args, "limit"))
	if err != nil {
		return toolResult(id, "Error listing documents: "+err.Error())
	}

	slog.Info("tool call", "tool", toolListDocuments, "documents", len(summaries))
	return toolResult(id, formatSummaries(summaries))
}

func (s *Server) callReadDocument(ctx context.Context, id any, args map[string]any) *jsonrpcResponse {
	docID := strArg(args, "document_id")
	if docID == "" {
		return toolResult(id, "Error: document_id is required")
	}

	doc, err := s.store.ReadDocument(ctx, docID, strArg(args, "namespace"))
	if err != nil {
		return toolResult(id, "Error reading document: "+err.Error())
	}

	slog.Info("tool call", "tool", toolReadDocument, "document_id", docID)
	return toolResult(id, formatDocument(doc))
}

func (s *Server) callPineconeStats(ctx context.Context, id any) *jsonrpcResponse {
	stats, err := s.store.Stats(ctx)
	if err != nil {
		return toolResult(id, "Error describing index: "+err.Error())
	}

	slog.Info("tool call", "tool", toolPineconeStats, "total_vectors", stats.TotalVectorCount)
	return toolResult(id, formatStats(stats))
}

// logRequests logs one line per request after it completes.
func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rw, r)
		slog.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rw.status,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

// Flush forwards to the underlying writer so SSE streaming keeps working
// behind the logging wrapper.
func (rw *responseWriter) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}
