package artifact

import (
	"archive/tar"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/klauspost/compress/gzip"
)

// newClient builds the download client. The retryable client only contributes
// its pooled transport; RetryMax is zero because a failed download must
// surface to the caller instead of being retried internally.
func newClient() *resty.Client {
	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = 0
	retryClient.Logger = nil

	return resty.New().
		SetTransport(retryClient.HTTPClient.Transport).
		SetTimeout(5*time.Minute).
		SetHeader("User-Agent", "near-sandbox-go").
		SetDoNotParseResponse(true)
}

// install downloads the archive at url, extracts the node executable and
// atomically moves it to dest. Callers must hold the cache lock.
func install(ctx context.Context, url, dest string) error {
	resp, err := newClient().R().
		SetContext(ctx).
		Get(url)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrDownload, url, err)
	}
	body := resp.RawBody()
	defer body.Close()

	if resp.StatusCode() != 200 {
		return fmt.Errorf("%w: %s: unexpected status %s", ErrDownload, url, resp.Status())
	}

	tmp := dest + "." + uuid.NewString() + ".tmp"
	if err := extractBinary(body, tmp); err != nil {
		os.Remove(tmp)
		return err
	}

	// Rename is atomic within the cache dir, so other callers never observe
	// a partially written binary.
	if err := os.Rename(tmp, dest); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("%w: installing %s: %v", ErrExtract, dest, err)
	}
	return nil
}

// extractBinary streams a gzipped tar archive and writes its node executable
// entry to path with execute permissions.
func extractBinary(archive io.Reader, path string) error {
	gz, err := gzip.NewReader(archive)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrExtract, err)
	}
	defer gz.Close()

	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return fmt.Errorf("%w: archive contains no %s executable", ErrExtract, binName)
		}
		if err != nil {
			return fmt.Errorf("%w: %v", ErrExtract, err)
		}
		if hdr.Typeflag != tar.TypeReg || filepath.Base(hdr.Name) != binName {
			continue
		}

		out, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o755)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrExtract, err)
		}
		if _, err := io.Copy(out, tr); err != nil {
			out.Close()
			return fmt.Errorf("%w: %v", ErrExtract, err)
		}
		if err := out.Close(); err != nil {
			return fmt.Errorf("%w: %v", ErrExtract, err)
		}
		return nil
	}
}
