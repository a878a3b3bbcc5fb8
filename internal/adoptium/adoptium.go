// Package adoptium resolves the newest published installer for a release
// stream from the Adoptium binaries feed on GitHub.
package adoptium

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/karvell/temurin-updater/internal/dist"
	"github.com/karvell/temurin-updater/internal/javaver"
	"github.com/karvell/temurin-updater/internal/logging"
)

// Sentinel errors callers classify on.
var (
	ErrUnknownStream = errors.New("no release feed for stream")
	ErrNoAsset       = errors.New("no installer asset in latest release")
	ErrNoChecksum    = errors.New("no checksum companion for installer asset")
)

// AmbiguousAssetError reports a release carrying more than one asset that
// matches the installer template. Picking one silently could stage the
// wrong build, so the release is rejected instead.
type AmbiguousAssetError struct {
	Stream dist.Stream
	Names  []string
}

func (e *AmbiguousAssetError) Error() string {
	return fmt.Sprintf("stream %s: %d assets match the installer template: %s",
		e.Stream, len(e.Names), strings.Join(e.Names, ", "))
}

// TransportError wraps a feed request that failed before producing a
// usable release.
type TransportError struct {
	URL    string
	Status int
	Err    error
}

func (e *TransportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("fetching %s: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("fetching %s: HTTP %d", e.URL, e.Status)
}

func (e *TransportError) Unwrap() error { return e.Err }

// release is the subset of GitHub's release API response we need.
type release struct {
	TagName string  `json:"tag_name"`
	Assets  []asset `json:"assets"`
}

type asset struct {
	Name               string `json:"name"`
	BrowserDownloadURL string `json:"browser_download_url"`
}

// ReleaseAsset describes the installer chosen from the latest release.
type ReleaseAsset struct {
	Stream      dist.Stream
	Type        dist.PackageType
	Arch        dist.Arch
	Name        string          // installer file name
	RawVersion  string          // version text embedded in the file name
	Version     javaver.Version // parsed form of RawVersion
	URL         string          // installer download URL
	ChecksumURL string          // companion .sha256.txt URL
	Tag         string          // release tag, for log lines
}

const defaultBaseURL = "https://api.github.com"

// Client queries the release feed. The zero value talks to the public
// GitHub API with http.DefaultClient.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	Logger     *logging.Logger
}

// Resolve returns the newest published installer for the given stream,
// package type and architecture. It performs at most one feed request;
// retrying on transport failure is the caller's business.
func (c *Client) Resolve(ctx context.Context, stream dist.Stream, pkgType dist.PackageType, arch dist.Arch) (*ReleaseAsset, error) {
	if !stream.Known() {
		return nil, fmt.Errorf("stream %q: %w", stream.String(), ErrUnknownStream)
	}

	rel, err := c.fetchLatest(ctx, stream)
	if err != nil {
		return nil, err
	}

	prefix := fmt.Sprintf("OpenJDK%sU-%s_%s_hotspot_", stream, pkgType.AssetToken(), arch.FeedToken())

	var matches []asset
	for _, a := range rel.Assets {
		name := strings.TrimSpace(a.Name)
		if strings.HasPrefix(name, prefix) && strings.HasSuffix(name, ".msi") {
			matches = append(matches, a)
		}
	}

	if len(matches) == 0 {
		return nil, fmt.Errorf("release %s: no %s %s installer for stream %s: %w",
			rel.TagName, pkgType.AssetToken(), arch, stream, ErrNoAsset)
	}
	if len(matches) > 1 {
		names := make([]string, len(matches))
		for i, m := range matches {
			names[i] = strings.TrimSpace(m.Name)
		}
		return nil, &AmbiguousAssetError{Stream: stream, Names: names}
	}

	chosen := matches[0]
	name := strings.TrimSpace(chosen.Name)
	url := strings.TrimSpace(chosen.BrowserDownloadURL)
	if url == "" {
		return nil, fmt.Errorf("asset %s has no download URL: %w", name, ErrNoAsset)
	}

	raw := strings.TrimSuffix(name[len(prefix):], ".msi")
	ver, err := javaver.Parse(raw, stream)
	if err != nil {
		return nil, fmt.Errorf("asset %s: %w", name, err)
	}

	checksumName := name + ".sha256.txt"
	var checksumURL string
	for _, a := range rel.Assets {
		if strings.TrimSpace(a.Name) == checksumName {
			checksumURL = strings.TrimSpace(a.BrowserDownloadURL)
			break
		}
	}
	if checksumURL == "" {
		return nil, fmt.Errorf("asset %s: %w", name, ErrNoChecksum)
	}

	c.Logger.Debugf("stream %s: release %s offers %s", stream, rel.TagName, name)

	return &ReleaseAsset{
		Stream:      stream,
		Type:        pkgType,
		Arch:        arch,
		Name:        name,
		RawVersion:  raw,
		Version:     ver,
		URL:         url,
		ChecksumURL: checksumURL,
		Tag:         strings.TrimSpace(rel.TagName),
	}, nil
}

// FeedURL returns the latest-release endpoint for a stream.
func (c *Client) FeedURL(stream dist.Stream) string {
	base := strings.TrimRight(c.BaseURL, "/")
	if base == "" {
		base = defaultBaseURL
	}
	return fmt.Sprintf("%s/repos/adoptium/temurin%s-binaries/releases/latest", base, stream)
}

func (c *Client) fetchLatest(ctx context.Context, stream dist.Stream) (*release, error) {
	url := c.FeedURL(stream)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("building feed request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")

	client := c.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, &TransportError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &TransportError{URL: url, Status: resp.StatusCode}
	}

	var rel release
	if err := json.NewDecoder(resp.Body).Decode(&rel); err != nil {
		return nil, &TransportError{URL: url, Err: fmt.Errorf("decoding release: %w", err)}
	}
	return &rel, nil
}
