package calendar

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

// DefaultURL is the published season calendar with every session type.
const DefaultURL = "https://files-f1.motorsportcalendars.com/f1-calendar_p1_p2_p3_qualifying_sprint_gp.ics"

var httpClient = &http.Client{Timeout: 30 * time.Second}

// Fetch downloads the calendar feed.
func Fetch(ctx context.Context, url string) ([]byte, error) {
	if url == "" {
		url = DefaultURL
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("calendar fetch: unexpected status %s", resp.Status)
	}
	return io.ReadAll(resp.Body)
}

// Download fetches the feed and writes it to path via a temp-file rename,
// so a failed download never truncates the previous good copy.
func Download(ctx context.Context, url, path string) error {
	b, err := Fetch(ctx, url)
	if err != nil {
		return err
	}
	tmp := filepath.Join(filepath.Dir(path), "."+filepath.Base(path)+".tmp")
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
