package topaz

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
)

// ProgressFunc receives cumulative uploaded bytes against the total.
type ProgressFunc func(uploaded, total int64)

// UploadParts splits the file at path into len(urls) contiguous ranges and
// PUTs each range to its presigned URL in order. Every issued URL receives a
// part, trailing ranges past the end of the file as zero-length bodies, so
// CompleteUpload always reports as many parts as the service issued URLs
// for. The returned results carry the 1-based part numbers and ETags
// required to complete the upload.
func (c *Client) UploadParts(ctx context.Context, path string, urls []string, progress ProgressFunc) ([]UploadResult, error) {
	if len(urls) == 0 {
		return nil, fmt.Errorf("upload parts: no upload urls provided")
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("upload parts: %w", err)
	}
	total := info.Size()
	if total == 0 {
		return nil, fmt.Errorf("upload parts: %s is empty", path)
	}

	partSize := (total + int64(len(urls)) - 1) / int64(len(urls))
	results := make([]UploadResult, 0, len(urls))
	var uploaded int64

	for i, url := range urls {
		start := int64(i) * partSize
		if start > total {
			start = total
		}
		end := start + partSize
		if end > total {
			end = total
		}

		etag, err := c.uploadPart(ctx, path, url, start, end-start)
		if err != nil {
			return nil, fmt.Errorf("upload part %d: %w", i+1, err)
		}
		results = append(results, UploadResult{PartNum: i + 1, ETag: etag})

		uploaded += end - start
		if progress != nil {
			progress(uploaded, total)
		}
	}
	return results, nil
}

func (c *Client) uploadPart(ctx context.Context, path, url string, offset, length int64) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	if _, err := file.Seek(offset, io.SeekStart); err != nil {
		return "", fmt.Errorf("seek to %d: %w", offset, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, io.LimitReader(file, length))
	if err != nil {
		return "", err
	}
	req.ContentLength = length
	req.Header.Set("Content-Type", "video/mp4")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", &StatusError{Op: "PUT part", Code: resp.StatusCode, Body: string(body)}
	}

	etag := strings.Trim(resp.Header.Get("ETag"), `"`)
	if etag == "" {
		return "", fmt.Errorf("response missing ETag header")
	}
	return etag, nil
}
