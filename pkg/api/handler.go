package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/hazyhaar/amyloid-notes/pkg/keywords"
	"github.com/hazyhaar/amyloid-notes/pkg/kit"
	"github.com/hazyhaar/amyloid-notes/pkg/textnorm"
)

// maxBody bounds JSON request bodies. Pathology reports run to a few KiB
// each; a full batch stays well under this.
const maxBody = 4 << 20

// NewRouter returns an http.Handler with all API routes.
func NewRouter(svc *Service) http.Handler {
	mux := http.NewServeMux()
	h := &handler{
		normalize:      svc.normalizeEndpoint(),
		normalizeBatch: svc.normalizeBatchEndpoint(),
		camelCase:      svc.camelCaseEndpoint(),
		flag:           svc.flagEndpoint(),
		listGroups:     svc.listGroupsEndpoint(),
		listDatasets:   svc.listDatasetsEndpoint(),
		svc:            svc,
	}

	mux.HandleFunc("GET /v1/normalize", methodNotAllowed)
	mux.HandleFunc("POST /v1/normalize", h.handleNormalize)
	mux.HandleFunc("GET /v1/normalize/batch", methodNotAllowed)
	mux.HandleFunc("POST /v1/normalize/batch", h.handleNormalizeBatch)
	mux.HandleFunc("GET /v1/camelcase/{token}", h.handleCamelCase)
	mux.HandleFunc("POST /v1/keywords/flag", h.handleFlag)
	mux.HandleFunc("GET /v1/keywords/groups", h.handleListGroups)
	mux.HandleFunc("GET /v1/datasets", h.handleListDatasets)
	mux.HandleFunc("GET /v1/health", h.handleHealth)

	return cors(mux)
}

type handler struct {
	normalize      kit.Endpoint
	normalizeBatch kit.Endpoint
	camelCase      kit.Endpoint
	flag           kit.Endpoint
	listGroups     kit.Endpoint
	listDatasets   kit.Endpoint
	svc            *Service
}

// requestContext tags the request with the transport and a request id,
// taken from X-Request-ID when the client sends one.
func requestContext(w http.ResponseWriter, r *http.Request) context.Context {
	id := r.Header.Get("X-Request-ID")
	if id == "" {
		id = uuid.NewString()
	}
	w.Header().Set("X-Request-ID", id)
	ctx := kit.WithTransport(r.Context(), kit.TransportHTTP)
	return kit.WithRequestID(ctx, id)
}

// --- normalize ---

type httpNormalizeRequest struct {
	Text  *string       `json:"text"`
	Mode  textnorm.Mode `json:"mode,omitempty"`
	Trace bool          `json:"trace,omitempty"`
	Flag  bool          `json:"flag,omitempty"`
}

func (h *handler) handleNormalize(w http.ResponseWriter, r *http.Request) {
	ctx := requestContext(w, r)
	var req httpNormalizeRequest
	if !decodeBody(w, r, &req) {
		return
	}
	resp, err := h.normalize(ctx, &normalizeReq{Text: req.Text, Mode: req.Mode, Trace: req.Trace, Flag: req.Flag})
	if err != nil {
		writeEndpointError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// --- normalize batch ---

type httpBatchRequest struct {
	Texts []string      `json:"texts"`
	Mode  textnorm.Mode `json:"mode,omitempty"`
}

func (h *handler) handleNormalizeBatch(w http.ResponseWriter, r *http.Request) {
	ctx := requestContext(w, r)
	var req httpBatchRequest
	if !decodeBody(w, r, &req) {
		return
	}
	resp, err := h.normalizeBatch(ctx, &normalizeBatchReq{Texts: req.Texts, Mode: req.Mode})
	if err != nil {
		writeEndpointError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// --- camel case ---

func (h *handler) handleCamelCase(w http.ResponseWriter, r *http.Request) {
	ctx := requestContext(w, r)
	token := r.PathValue("token")
	if token == "" {
		writeError(w, http.StatusBadRequest, "missing token")
		return
	}
	resp, err := h.camelCase(ctx, &camelCaseReq{Token: token})
	if err != nil {
		writeEndpointError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// --- keyword flags ---

type httpFlagRequest struct {
	Text       string   `json:"text"`
	Clean      bool     `json:"clean,omitempty"`
	Groups     []string `json:"groups,omitempty"`
	Categories []string `json:"categories,omitempty"`
}

func (h *handler) handleFlag(w http.ResponseWriter, r *http.Request) {
	ctx := requestContext(w, r)
	var req httpFlagRequest
	if !decodeBody(w, r, &req) {
		return
	}
	opts := &keywords.FlagOptions{Groups: req.Groups, Categories: req.Categories}
	mergeListParam(r, "groups", &opts.Groups)
	mergeListParam(r, "categories", &opts.Categories)

	resp, err := h.flag(ctx, &flagReq{Text: req.Text, Clean: req.Clean, Opts: opts})
	if err != nil {
		writeEndpointError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// --- listings ---

func (h *handler) handleListGroups(w http.ResponseWriter, r *http.Request) {
	resp, err := h.listGroups(requestContext(w, r), nil)
	if err != nil {
		writeEndpointError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *handler) handleListDatasets(w http.ResponseWriter, r *http.Request) {
	resp, err := h.listDatasets(requestContext(w, r), nil)
	if err != nil {
		writeEndpointError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// --- health ---

type healthResponse struct {
	Status        string   `json:"status"`
	Stages        []string `json:"stages"`
	KeywordGroups int      `json:"keyword_groups"`
	TotalKeywords int      `json:"total_keywords"`
}

func (h *handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	stages := h.svc.Normalizer.Stages()
	resp := healthResponse{Status: "ok", Stages: make([]string, len(stages))}
	for i, st := range stages {
		resp.Stages[i] = st.Name
	}
	if h.svc.Keywords != nil {
		resp.KeywordGroups = h.svc.Keywords.GroupCount()
		resp.TotalKeywords = h.svc.Keywords.TotalKeywords()
	}
	writeJSON(w, http.StatusOK, resp)
}

// --- helpers ---

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBody)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

// mergeListParam appends the comma-separated query parameter name to dst.
func mergeListParam(r *http.Request, name string, dst *[]string) {
	if v := r.URL.Query().Get(name); v != "" {
		*dst = append(*dst, strings.Split(v, ",")...)
	}
}

func writeEndpointError(w http.ResponseWriter, err error) {
	code := http.StatusInternalServerError
	if isBadRequest(err) {
		code = http.StatusBadRequest
	}
	writeError(w, code, err.Error())
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

func methodNotAllowed(w http.ResponseWriter, _ *http.Request) {
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}

// cors is a simple CORS middleware for browser-based clients.
func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Request-ID")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
