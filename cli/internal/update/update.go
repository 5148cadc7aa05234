// Package update checks whether a newer phpattr release is available.
package update

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/hashicorp/go-version"
)

// ReleasesURL is the GitHub API endpoint describing the latest release.
const ReleasesURL = "https://api.github.com/repos/satishbabariya/phpattr/releases/latest"

// Status is the outcome of an update check.
type Status struct {
	Current *version.Version
	Latest  *version.Version
}

// Available reports whether Latest is newer than Current.
func (s Status) Available() bool {
	return s.Current.LessThan(s.Latest)
}

// Compare parses both versions. A leading "v" is accepted.
func Compare(current, latest string) (Status, error) {
	cur, err := version.NewVersion(current)
	if err != nil {
		return Status{}, fmt.Errorf("invalid version format: %w", err)
	}
	lat, err := version.NewVersion(latest)
	if err != nil {
		return Status{}, fmt.Errorf("invalid latest version format: %w", err)
	}
	return Status{Current: cur, Latest: lat}, nil
}

// Latest fetches the tag of the latest release from url.
func Latest(ctx context.Context, client *http.Client, url string) (string, error) {
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Second}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch latest release: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("failed to fetch latest release: %s", resp.Status)
	}

	var release struct {
		TagName string `json:"tag_name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&release); err != nil {
		return "", fmt.Errorf("failed to decode release: %w", err)
	}
	if release.TagName == "" {
		return "", fmt.Errorf("release has no tag")
	}
	return release.TagName, nil
}

// Check fetches the latest release and compares it with current.
func Check(ctx context.Context, client *http.Client, url, current string) (Status, error) {
	latest, err := Latest(ctx, client, url)
	if err != nil {
		return Status{}, err
	}
	return Compare(current, latest)
}

// DownloadURL returns the release asset for the current platform
func DownloadURL(v *version.Version) string {
	return fmt.Sprintf("https://github.com/satishbabariya/phpattr/releases/download/v%s/phpattr-%s-%s",
		v.String(), runtime.GOOS, runtime.GOARCH)
}
