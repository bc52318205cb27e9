package deps

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/surxe/wrfexporter/pkg/errors"
)

const userAgent = "wrfexporter"

// Client fetches release metadata and artifacts over HTTPS.
type Client struct {
	http *http.Client
}

// NewClient builds an HTTP client with sane pooling for a handful of
// sequential downloads.
func NewClient(timeout time.Duration) *Client {
	return &Client{
		http: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 4,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

// DownloadResult contains download metadata.
type DownloadResult struct {
	LocalPath string
	SHA256    string
	Size      int64
}

// Download fetches a URL to a local file, computing its SHA256 on the way.
func (c *Client) Download(ctx context.Context, url, localPath string) (*DownloadResult, error) {
	slog.Info("download_start", "url", url, "local_path", localPath)

	resp, err := c.get(ctx, url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	f, err := os.Create(localPath)
	if err != nil {
		slog.Error("local_file_creation_failed", "path", localPath, "error", err)
		return nil, errors.Wrap(err, "failed to create local file")
	}
	defer f.Close()

	hash := sha256.New()
	size, err := io.Copy(io.MultiWriter(f, hash), resp.Body)
	if err != nil {
		slog.Error("download_failed", "url", url, "error", err)
		return nil, errors.Wrap(err, "failed to download file")
	}

	checksum := hex.EncodeToString(hash.Sum(nil))
	slog.Info("download_complete", "url", url, "size", size, "sha256", checksum[:16]+"...")

	return &DownloadResult{LocalPath: localPath, SHA256: checksum, Size: size}, nil
}

// GetJSON fetches a URL and decodes the JSON body into out.
func (c *Client) GetJSON(ctx context.Context, url string, out any) error {
	resp, err := c.get(ctx, url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrap(err, "failed to decode JSON from "+url)
	}
	return nil
}

func (c *Client) get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to build request")
	}
	// GitHub rejects requests without a user agent.
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "request failed")
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("unexpected status %s from %s", resp.Status, url)
	}
	return resp, nil
}
