// Package download fetches the cloudenv artifact over plain HTTP.
//
// One GET, no retries, no integrity verification: the installed artifact is
// whatever the fixed URL served. The missing checksum/signature step is a
// documented gap of the install flow, surfaced to the user by the Reporter
// rather than silently patched here.
package download

import (
	"context"
	"io"
	"net/http"
	"os"

	"github.com/cloudenvhq/cloudenv-install/internal/domain"
	"github.com/cloudenvhq/cloudenv-install/internal/ports"
)

// Client implements ports.Downloader.
type Client struct {
	http   *http.Client
	logger ports.Logger
}

// NewClient builds a downloader with the default artifact timeout.
func NewClient(logger ports.Logger) *Client {
	return &Client{
		http:   &http.Client{Timeout: domain.DefaultDownloadTimeout},
		logger: logger,
	}
}

// Fetch implements ports.Downloader. The destination is overwritten in
// place (no atomic rename is promised) and left with the requested mode.
// Failures map to *domain.CommandFailedError carrying the request line and
// the HTTP status, or exit 1 for transport errors.
func (c *Client) Fetch(ctx context.Context, url, dest string, mode os.FileMode) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.logger.Error("artifact request failed", err, map[string]interface{}{"url": url})
		return &domain.CommandFailedError{Command: "GET " + url, ExitCode: 1}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &domain.CommandFailedError{Command: "GET " + url, ExitCode: resp.StatusCode}
	}

	out, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, resp.Body); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}

	// OpenFile only applies mode on creation; an overwritten file keeps
	// its previous bits without this.
	if err := os.Chmod(dest, mode); err != nil {
		return err
	}

	c.logger.Debug("artifact fetched", map[string]interface{}{"url": url, "dest": dest})
	return nil
}

var _ ports.Downloader = (*Client)(nil)
