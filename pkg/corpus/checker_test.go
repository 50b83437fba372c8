package corpus

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"
)

func TestCheckAll_Mixed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodHead {
			t.Errorf("method = %s, want HEAD", r.Method)
		}
		if r.URL.Path == "/gone.csv" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	s := tempStore(t)
	if err := s.Seed(All()); err != nil {
		t.Fatal(err)
	}
	present := writeFile(t, "cp.csv", cardiacCSV)
	paths := map[string]string{
		"cardiac_path_reports": present,
		"pyp_reports":          srv.URL + "/pyp.csv",
		"mayo_labs":            srv.URL + "/gone.csv",
		"hf_subtype":           t.TempDir(),
	}
	for id, p := range paths {
		if err := s.SetPath(id, p); err != nil {
			t.Fatal(err)
		}
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	NewChecker(s, logger, time.Hour).CheckAll(context.Background())

	sources, err := s.ListSources()
	if err != nil {
		t.Fatal(err)
	}
	want := map[string]int{
		"cardiac_path_reports": http.StatusOK,
		"pyp_reports":          http.StatusOK,
		"mayo_labs":            http.StatusNotFound,
		"hf_subtype":           http.StatusUnprocessableEntity,
	}
	for _, src := range sources {
		if src.LastStatus == nil {
			t.Errorf("%s: not checked", src.DatasetID)
			continue
		}
		if *src.LastStatus != want[src.DatasetID] {
			t.Errorf("%s: status = %d, want %d", src.DatasetID, *src.LastStatus, want[src.DatasetID])
		}
		failed := want[src.DatasetID] != http.StatusOK
		if failed != (src.LastError != nil) {
			t.Errorf("%s: last_error = %v", src.DatasetID, src.LastError)
		}
	}
}

func TestCheckOne_MissingFile(t *testing.T) {
	c := NewChecker(tempStore(t), slog.Default(), time.Hour)
	status, err := c.checkOne(context.Background(), "/nonexistent/extract.csv")
	if status != http.StatusNotFound || err == nil {
		t.Errorf("checkOne = %d, %v; want 404 with error", status, err)
	}
}

func TestCheckerStart_StopsOnCancel(t *testing.T) {
	s := tempStore(t)
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	c := NewChecker(s, logger, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		c.Start(ctx)
		close(done)
	}()
	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Start did not return after cancel")
	}
}
