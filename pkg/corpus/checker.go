package corpus

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"time"
)

// Checker periodically verifies that every dataset source is reachable and
// persists the result. Local paths are stat'ed; http(s) sources get a HEAD
// request. Local results reuse HTTP status codes (200, 403, 404).
type Checker struct {
	store    *Store
	logger   *slog.Logger
	interval time.Duration
	client   *http.Client
}

// NewChecker creates a Checker that will verify sources every interval.
func NewChecker(store *Store, logger *slog.Logger, interval time.Duration) *Checker {
	return &Checker{
		store:    store,
		logger:   logger,
		interval: interval,
		client: &http.Client{
			Timeout: 30 * time.Second,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

// Start runs an immediate check then repeats every interval until ctx is cancelled.
func (c *Checker) Start(ctx context.Context) {
	c.CheckAll(ctx)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.CheckAll(ctx)
		}
	}
}

// CheckAll checks every source and persists the result.
func (c *Checker) CheckAll(ctx context.Context) {
	sources, err := c.store.ListSources()
	if err != nil {
		c.logger.Error("source check: list sources", "error", err)
		return
	}
	if len(sources) == 0 {
		return
	}

	var ok, failed int
	for _, src := range sources {
		if ctx.Err() != nil {
			return
		}

		status, checkErr := c.checkOne(ctx, src.Path)
		errMsg := ""
		if checkErr != nil {
			errMsg = checkErr.Error()
		}

		if err := c.store.UpdateCheck(src.DatasetID, status, errMsg); err != nil {
			c.logger.Error("source check: update", "dataset", src.DatasetID, "error", err)
		}

		if status >= 200 && status < 400 {
			ok++
		} else {
			failed++
			c.logger.Warn("source unavailable",
				"dataset", src.DatasetID,
				"path", src.Path,
				"status", status,
				"error", errMsg,
			)
		}
	}

	c.logger.Info("source check complete", "total", ok+failed, "ok", ok, "failed", failed)
}

// checkOne returns the status of a single source. On network error or an
// unexpected stat failure, status is 0.
func (c *Checker) checkOne(ctx context.Context, path string) (int, error) {
	if !isURL(path) {
		info, err := os.Stat(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			return http.StatusNotFound, err
		case errors.Is(err, fs.ErrPermission):
			return http.StatusForbidden, err
		case err != nil:
			return 0, err
		case info.IsDir():
			return http.StatusUnprocessableEntity, fmt.Errorf("%s is a directory", path)
		}
		return http.StatusOK, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, path, nil)
	if err != nil {
		return 0, fmt.Errorf("build request: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("HEAD %s: %w", path, err)
	}
	resp.Body.Close()
	return resp.StatusCode, nil
}
