package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hazyhaar/amyloid-notes/pkg/corpus"
	"github.com/hazyhaar/amyloid-notes/pkg/keywords"
	"github.com/hazyhaar/amyloid-notes/pkg/textnorm"
)

func setupService(t *testing.T) *Service {
	t.Helper()
	n, err := textnorm.New(textnorm.TokenizerFunc(func(s string) []string { return []string{s} }))
	if err != nil {
		t.Fatalf("textnorm.New: %v", err)
	}
	reg := keywords.NewRegistry("")
	if err := reg.Load(); err != nil {
		t.Fatalf("keywords Load: %v", err)
	}
	store, err := corpus.OpenStore(filepath.Join(t.TempDir(), "corpus.db"))
	if err != nil {
		t.Fatalf("OpenStore: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	if err := store.Seed(corpus.All()); err != nil {
		t.Fatalf("Seed: %v", err)
	}
	return &Service{
		Normalizer: n,
		Keywords:   reg,
		Store:      store,
		Logger:     slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError})),
	}
}

func setupServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(NewRouter(setupService(t)))
	t.Cleanup(srv.Close)
	return srv
}

func postJSON(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return v
}

func TestNormalize(t *testing.T) {
	srv := setupServer(t)
	resp := postJSON(t, srv.URL+"/v1/normalize", `{"text":"FINAL DIAGNOSIS:-\n\nAMYOIDOSIS   present","flag":true}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if resp.Header.Get("X-Request-ID") == "" {
		t.Error("missing X-Request-ID")
	}
	body := decode[normalizeResponse](t, resp)
	if want := "FINAL DIAGNOSIS: . AMYLOIDOSIS present"; body.Text != want {
		t.Errorf("text = %q, want %q", body.Text, want)
	}
	if body.Mode != textnorm.ModeCardiacPath {
		t.Errorf("mode = %q", body.Mode)
	}
	var flagged bool
	for _, h := range body.Hits {
		if h.GroupID == "amyloid" {
			flagged = true
		}
	}
	if !flagged {
		t.Errorf("hits = %+v, want amyloid", body.Hits)
	}
}

func TestNormalize_PYPAndTrace(t *testing.T) {
	srv := setupServer(t)

	resp := postJSON(t, srv.URL+"/v1/normalize", `{"text":"a   b\n\n\nc","mode":"pyp"}`)
	body := decode[normalizeResponse](t, resp)
	if body.Text != "a b\nc" {
		t.Errorf("pyp text = %q", body.Text)
	}

	resp = postJSON(t, srv.URL+"/v1/normalize", `{"text":"x--y","trace":true}`)
	body = decode[normalizeResponse](t, resp)
	if len(body.Stages) != 12 {
		t.Fatalf("stages = %d, want 12", len(body.Stages))
	}
	if body.Stages[1].Stage != "double_dashes" || body.Stages[1].Output != "x\ny" {
		t.Errorf("stage 2 = %+v", body.Stages[1])
	}
	if body.Stages[11].Output != body.Text {
		t.Errorf("last stage %q != text %q", body.Stages[11].Output, body.Text)
	}
}

func TestNormalize_RequestIDEcho(t *testing.T) {
	srv := setupServer(t)
	req, _ := http.NewRequest(http.MethodPost, srv.URL+"/v1/normalize", strings.NewReader(`{"text":"ok"}`))
	req.Header.Set("X-Request-ID", "study-42")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if got := resp.Header.Get("X-Request-ID"); got != "study-42" {
		t.Errorf("X-Request-ID = %q", got)
	}
}

func TestNormalize_BadRequests(t *testing.T) {
	srv := setupServer(t)
	tests := []struct {
		name, body string
	}{
		{"null text", `{"text":null}`},
		{"missing text", `{}`},
		{"unknown mode", `{"text":"x","mode":"shout"}`},
		{"invalid json", `{"text":`},
	}
	for _, tt := range tests {
		resp := postJSON(t, srv.URL+"/v1/normalize", tt.body)
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", tt.name, resp.StatusCode)
		}
		if e := decode[map[string]string](t, resp); e["error"] == "" {
			t.Errorf("%s: empty error body", tt.name)
		}
	}

	resp, err := http.Get(srv.URL + "/v1/normalize")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("GET normalize status = %d, want 405", resp.StatusCode)
	}
}

func TestNormalizeBatch(t *testing.T) {
	srv := setupServer(t)
	resp := postJSON(t, srv.URL+"/v1/normalize/batch", `{"texts":["a\n\nb","café"]}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	body := decode[batchResponse](t, resp)
	if len(body.Results) != 2 {
		t.Fatalf("results = %d", len(body.Results))
	}
	if body.Results[0].Text != "a. b" || body.Results[1].Text != "caf" {
		t.Errorf("results = %+v", body.Results)
	}

	resp = postJSON(t, srv.URL+"/v1/normalize/batch", `{"texts":[]}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("empty batch status = %d", resp.StatusCode)
	}

	texts := make([]string, MaxBatch+1)
	for i := range texts {
		texts[i] = "x"
	}
	data, _ := json.Marshal(map[string]any{"texts": texts})
	resp = postJSON(t, srv.URL+"/v1/normalize/batch", string(data))
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("oversized batch status = %d", resp.StatusCode)
	}
}

func TestCamelCase(t *testing.T) {
	srv := setupServer(t)
	resp, err := http.Get(srv.URL + "/v1/camelcase/AmyloidosisCardiacATTR")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	body := decode[camelCaseResponse](t, resp)
	if body.Split != "Amyloidosis Cardiac ATTR" {
		t.Errorf("split = %q", body.Split)
	}
}

func TestFlag(t *testing.T) {
	srv := setupServer(t)
	resp := postJSON(t, srv.URL+"/v1/keywords/flag?categories=subtype",
		`{"text":"Wild-type transthyretin amyloid, Congo red positive"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	body := decode[keywords.FlagResult](t, resp)
	if !body.Flagged("ttr") || !body.Flagged("wttr") {
		t.Errorf("hits = %+v", body.Hits)
	}
	if body.Flagged("congo-red-stain") || body.Flagged("amyloid") {
		t.Errorf("category filter ignored: %+v", body.Hits)
	}

	resp = postJSON(t, srv.URL+"/v1/keywords/flag", `{"text":"Congo–red  stain","clean":true,"groups":["congo-red-stain"]}`)
	body = decode[keywords.FlagResult](t, resp)
	if len(body.Hits) != 1 || body.Hits[0].GroupID != "congo-red-stain" {
		t.Errorf("hits = %+v", body.Hits)
	}
}

func TestListGroupsAndHealth(t *testing.T) {
	srv := setupServer(t)

	resp, err := http.Get(srv.URL + "/v1/keywords/groups")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	groups := decode[groupsResponse](t, resp)
	if len(groups.Groups) != len(keywords.DefaultGroups()) {
		t.Errorf("groups = %d", len(groups.Groups))
	}

	resp2, err := http.Get(srv.URL + "/v1/health")
	if err != nil {
		t.Fatal(err)
	}
	defer resp2.Body.Close()
	health := decode[healthResponse](t, resp2)
	if health.Status != "ok" || health.KeywordGroups != len(groups.Groups) || len(health.Stages) != 12 {
		t.Errorf("health = %+v", health)
	}
	if health.Stages[0] != "unicode_newlines" || health.Stages[11] != "trim" {
		t.Errorf("stages = %v", health.Stages)
	}
}

func TestListDatasets(t *testing.T) {
	svc := setupService(t)
	if err := svc.Store.UpdateCheck("pyp_reports", http.StatusNotFound, "missing"); err != nil {
		t.Fatal(err)
	}
	srv := httptest.NewServer(NewRouter(svc))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/v1/datasets")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	body := decode[datasetsResponse](t, resp)
	if len(body.Datasets) != 4 {
		t.Fatalf("datasets = %d", len(body.Datasets))
	}
	for _, d := range body.Datasets {
		if d.ID == "pyp_reports" && (d.LastStatus == nil || *d.LastStatus != http.StatusNotFound || d.Mode != textnorm.ModePYP) {
			t.Errorf("pyp = %+v", d)
		}
		if d.ID == "hf_subtype" && d.Preprocessed {
			t.Errorf("hf_subtype preprocessed = true")
		}
	}
}

func TestCORSPreflight(t *testing.T) {
	srv := setupServer(t)
	req, _ := http.NewRequest(http.MethodOptions, srv.URL+"/v1/normalize", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent || resp.Header.Get("Access-Control-Allow-Origin") != "*" {
		t.Errorf("preflight = %d %v", resp.StatusCode, resp.Header)
	}
}
