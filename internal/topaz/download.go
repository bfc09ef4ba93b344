package topaz

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
)

// Download streams the result at url into destPath, replacing any existing
// file. The presigned URL carries its own authorization.
func (c *Client) Download(ctx context.Context, url, destPath string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("download: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("download: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &StatusError{Op: "GET result", Code: resp.StatusCode, Body: string(body)}
	}

	out, err := os.Create(destPath)
	if err != nil {
		return fmt.Errorf("download: %w", err)
	}
	if _, err := io.Copy(out, resp.Body); err != nil {
		out.Close()
		os.Remove(destPath)
		return fmt.Errorf("download: write %s: %w", destPath, err)
	}
	if err := out.Close(); err != nil {
		os.Remove(destPath)
		return fmt.Errorf("download: close %s: %w", destPath, err)
	}
	return nil
}
