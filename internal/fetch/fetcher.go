// Package fetch implements Fetcher: it retrieves a sanctions list ZIP
// over HTTPS, streams it to disk while computing an incremental
// SHA-256, verifies it against a known-hash sidecar when one is
// configured, and extracts the first .xml member.
//
// Uses a pooled *http.Client (newPooledHTTPClient) and
// golang.org/x/time/rate for the outbound request-rate limiter.
package fetch

import (
	"archive/zip"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"sanctions-screening/internal/models"
	"sanctions-screening/internal/observability"
)

// Result describes a successfully fetched and extracted XML source file.
type Result struct {
	XMLPath   string
	SHA256    string
	Bytes     int64
	FetchedAt time.Time
}

// Fetcher downloads sanctions list archives and extracts their XML
// payload, pacing requests and bounding response size.
type Fetcher struct {
	client      *http.Client
	limiter     *rate.Limiter
	maxBodySize int64
	logger      *observability.Logger
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithMaxBodySize overrides the default 512 MiB response size bound.
func WithMaxBodySize(n int64) Option {
	return func(f *Fetcher) { f.maxBodySize = n }
}

// WithLogger attaches a Logger; nil falls back to a development logger.
func WithLogger(l *observability.Logger) Option {
	return func(f *Fetcher) { f.logger = l }
}

// WithRateLimiter overrides the default request pacing.
func WithRateLimiter(l *rate.Limiter) Option {
	return func(f *Fetcher) { f.limiter = l }
}

const defaultMaxBodySize = 512 << 20

// newPooledHTTPClient builds an *http.Client tuned for infrequent,
// large downloads rather than high-volume lookups.
func newPooledHTTPClient(requestTimeout time.Duration) *http.Client {
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          10,
		MaxIdleConnsPerHost:   4,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
	return &http.Client{Transport: transport, Timeout: requestTimeout}
}

// New builds a Fetcher with a pooled HTTPS client and a conservative
// default rate limit of one request every two seconds (sanctions list
// sources are polled, not hammered).
func New(requestTimeout time.Duration, opts ...Option) *Fetcher {
	if requestTimeout <= 0 {
		requestTimeout = 2 * time.Minute
	}
	f := &Fetcher{
		client:      newPooledHTTPClient(requestTimeout),
		limiter:     rate.NewLimiter(rate.Every(2*time.Second), 1),
		maxBodySize: defaultMaxBodySize,
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.logger == nil {
		f.logger = observability.NewLogger(true)
	}
	return f
}

// FetchZip downloads the ZIP archive at url, extracts its first .xml
// member into destDir, and returns the extracted file's path and
// SHA-256 digest. If knownSHA256 is non-empty, the digest is verified
// against it and a mismatch aborts extraction (VALIDATION_ABORT).
func (f *Fetcher) FetchZip(ctx context.Context, url, destDir, knownSHA256 string) (*Result, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, models.NewIngestError(models.ErrFetchNet, "rate limiter wait interrupted", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, models.NewIngestError(models.ErrFetchHTTP, "failed to build request", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, models.NewIngestError(models.ErrFetchNet, "request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, models.NewIngestError(models.ErrFetchHTTP,
			fmt.Sprintf("unexpected status code %d", resp.StatusCode), nil)
	}

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return nil, models.NewIngestError(models.ErrFetchIO, "failed to create destination directory", err)
	}

	zipPath := filepath.Join(destDir, "download.zip")
	digest, n, err := f.streamToDisk(resp.Body, zipPath)
	if err != nil {
		return nil, err
	}

	if knownSHA256 != "" && !strings.EqualFold(digest, knownSHA256) {
		os.Remove(zipPath)
		f.logger.Security("FETCH_HASH_MISMATCH", map[string]interface{}{
			"url":      url,
			"expected": knownSHA256,
			"actual":   digest,
		})
		return nil, models.NewIngestError(models.ErrValidationAbort, "downloaded archive does not match known SHA-256", nil)
	}

	xmlPath, err := extractFirstXML(zipPath, destDir)
	if err != nil {
		return nil, err
	}

	return &Result{XMLPath: xmlPath, SHA256: digest, Bytes: n, FetchedAt: time.Now().UTC()}, nil
}

// streamToDisk copies r to path in fixed-size chunks, computing an
// incremental SHA-256 and aborting once maxBodySize bytes have been
// written, so a misbehaving or malicious source cannot exhaust disk.
func (f *Fetcher) streamToDisk(r io.Reader, path string) (string, int64, error) {
	out, err := os.Create(path)
	if err != nil {
		return "", 0, models.NewIngestError(models.ErrFetchIO, "failed to create destination file", err)
	}
	defer out.Close()

	h := sha256.New()
	limited := io.LimitReader(r, f.maxBodySize+1)
	buf := make([]byte, 64*1024)
	var total int64

	for {
		n, rerr := limited.Read(buf)
		if n > 0 {
			total += int64(n)
			if total > f.maxBodySize {
				return "", 0, models.NewIngestError(models.ErrFetchZip, "response exceeded maximum allowed size", nil)
			}
			if _, werr := out.Write(buf[:n]); werr != nil {
				return "", 0, models.NewIngestError(models.ErrFetchIO, "failed to write downloaded bytes", werr)
			}
			h.Write(buf[:n])
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			return "", 0, models.NewIngestError(models.ErrFetchNet, "error reading response body", rerr)
		}
	}

	return hex.EncodeToString(h.Sum(nil)), total, nil
}

// extractFirstXML opens the ZIP at zipPath and writes the first member
// whose name ends in .xml (case-insensitive) into destDir, guarding
// against zip-slip paths and returning FETCH_ZIP on any structural
// problem.
func extractFirstXML(zipPath, destDir string) (string, error) {
	r, err := zip.OpenReader(zipPath)
	if err != nil {
		return "", models.NewIngestError(models.ErrFetchZip, "failed to open archive", err)
	}
	defer r.Close()

	for _, file := range r.File {
		if !strings.EqualFold(filepath.Ext(file.Name), ".xml") {
			continue
		}
		cleanName := filepath.Base(file.Name)
		if cleanName == "." || cleanName == ".." || cleanName == "" {
			return "", models.NewIngestError(models.ErrFetchZip, "archive member has an unsafe name", nil)
		}

		outPath := filepath.Join(destDir, cleanName)
		rc, err := file.Open()
		if err != nil {
			return "", models.NewIngestError(models.ErrFetchZip, "failed to open archive member", err)
		}

		out, err := os.Create(outPath)
		if err != nil {
			rc.Close()
			return "", models.NewIngestError(models.ErrFetchIO, "failed to create extracted file", err)
		}

		// Bound extraction to guard against zip-bomb-shaped members even
		// though these archives are expected to come from known sources.
		if _, err := io.CopyN(out, rc, defaultMaxBodySize*4); err != nil && err != io.EOF {
			rc.Close()
			out.Close()
			return "", models.NewIngestError(models.ErrFetchZip, "failed to extract archive member", err)
		}
		rc.Close()
		out.Close()
		return outPath, nil
	}

	return "", models.NewIngestError(models.ErrFetchZip, "archive does not contain an XML member", nil)
}
