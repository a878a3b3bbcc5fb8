// Package downloader stages installer artifacts and verifies them against
// their published checksums before anything is allowed to run them.
package downloader

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/karvell/temurin-updater/internal/logging"
	"github.com/karvell/temurin-updater/internal/retry"
)

// TransportFailure reports that every attempt died before a verifiable
// pair of files existed.
type TransportFailure struct {
	URL      string
	Attempts int
	Err      error
}

func (e *TransportFailure) Error() string {
	return fmt.Sprintf("downloading %s failed after %d attempts: %v", e.URL, e.Attempts, e.Err)
}

func (e *TransportFailure) Unwrap() error { return e.Err }

// IntegrityFailure reports that downloads kept completing but the
// installer never matched its published checksum.
type IntegrityFailure struct {
	Name     string
	Attempts int
	Err      error
}

func (e *IntegrityFailure) Error() string {
	return fmt.Sprintf("verifying %s failed after %d attempts: %v", e.Name, e.Attempts, e.Err)
}

func (e *IntegrityFailure) Unwrap() error { return e.Err }

// Result describes a verified download sitting in the staging directory.
type Result struct {
	Path         string
	ChecksumPath string
	Size         int64
	Elapsed      time.Duration
}

// Fetcher downloads installer/checksum pairs with exponential backoff
// between attempts.
type Fetcher struct {
	StagingDir   string
	MaxAttempts  int
	InitialDelay time.Duration
	HTTPClient   *http.Client
	Logger       *logging.Logger
	// Progress draws a console byte bar while the installer streams in.
	Progress bool

	// sleep overrides the backoff wait in tests.
	sleep func(ctx context.Context, d time.Duration) error
}

// FetchVerified downloads the installer and its checksum companion into
// the staging directory, then compares the installer's SHA-256 digest with
// the first whitespace-delimited token of the checksum text. Each failed
// attempt removes both files, so no partial artifact survives the call.
func (f *Fetcher) FetchVerified(ctx context.Context, installerURL, checksumURL, destName string) (*Result, error) {
	if err := os.MkdirAll(f.StagingDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating staging directory: %w", err)
	}

	installerPath := filepath.Join(f.StagingDir, destName)
	checksumPath := installerPath + ".sha256.txt"

	attempts := f.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	policy := retry.Policy{Attempts: attempts, InitialDelay: f.InitialDelay, Sleep: f.sleep}

	start := time.Now()
	var (
		size          int64
		lastIntegrity bool
	)
	err := retry.Do(ctx, policy, func(attempt int) error {
		if attempt > 1 {
			f.Logger.Warnf("retrying download of %s (attempt %d/%d)", destName, attempt, attempts)
		}

		n, integrity, err := f.attempt(ctx, installerURL, checksumURL, installerPath, checksumPath)
		if err != nil {
			lastIntegrity = integrity
			os.Remove(installerPath)
			os.Remove(checksumPath)
			f.Logger.Debugf("attempt %d for %s failed: %v", attempt, destName, err)
			return err
		}
		size = n
		return nil
	})
	if err != nil {
		if lastIntegrity {
			return nil, &IntegrityFailure{Name: destName, Attempts: attempts, Err: err}
		}
		return nil, &TransportFailure{URL: installerURL, Attempts: attempts, Err: err}
	}

	elapsed := time.Since(start)
	f.Logger.Debugf("downloaded %s (%d bytes) in %s", destName, size, elapsed.Round(time.Millisecond))

	return &Result{
		Path:         installerPath,
		ChecksumPath: checksumPath,
		Size:         size,
		Elapsed:      elapsed,
	}, nil
}

// attempt performs one download-and-verify cycle. The bool reports
// whether a failure was an integrity problem rather than a transport one.
func (f *Fetcher) attempt(ctx context.Context, installerURL, checksumURL, installerPath, checksumPath string) (int64, bool, error) {
	size, err := f.download(ctx, installerURL, installerPath, true)
	if err != nil {
		return 0, false, err
	}

	if _, err := f.download(ctx, checksumURL, checksumPath, false); err != nil {
		return 0, false, err
	}

	want, err := readChecksum(checksumPath)
	if err != nil {
		return 0, true, err
	}

	// An empty installer is rejected even when its digest matches.
	if size == 0 {
		return 0, true, fmt.Errorf("downloaded %s is empty", filepath.Base(installerPath))
	}

	got, err := sha256File(installerPath)
	if err != nil {
		return 0, false, err
	}
	if !strings.EqualFold(want, got) {
		return 0, true, fmt.Errorf("checksum mismatch for %s: want %s got %s",
			filepath.Base(installerPath), want, got)
	}

	return size, false, nil
}

func (f *Fetcher) download(ctx context.Context, url, destPath string, installer bool) (int64, error) {
	name := filepath.Base(destPath)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, fmt.Errorf("creating request for %s: %w", name, err)
	}

	client := f.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("downloading %s: %w", name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("downloading %s: HTTP %d", name, resp.StatusCode)
	}

	tmpPath := destPath + ".tmp"
	out, err := os.Create(tmpPath)
	if err != nil {
		return 0, fmt.Errorf("creating %s: %w", name, err)
	}

	var src io.Reader = resp.Body
	if installer && f.Progress {
		bar := progressbar.DefaultBytes(resp.ContentLength, name)
		src = io.TeeReader(resp.Body, bar)
	}

	n, err := io.Copy(out, src)
	closeErr := out.Close()
	if err != nil {
		os.Remove(tmpPath)
		return 0, fmt.Errorf("writing %s: %w", name, err)
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return 0, fmt.Errorf("closing %s: %w", name, closeErr)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		os.Remove(tmpPath)
		return 0, fmt.Errorf("finalizing %s: %w", name, err)
	}
	return n, nil
}

// readChecksum extracts the digest from the published checksum text: the
// first whitespace-delimited token, usually followed by the file name.
func readChecksum(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading checksum file: %w", err)
	}
	fields := strings.Fields(string(data))
	if len(fields) == 0 {
		return "", fmt.Errorf("checksum file %s is empty", filepath.Base(path))
	}
	return fields[0], nil
}

func sha256File(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening %s: %w", filepath.Base(path), err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hashing %s: %w", filepath.Base(path), err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
