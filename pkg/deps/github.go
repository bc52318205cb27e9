package deps

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

const githubAPIBase = "https://api.github.com"

// Asset is one downloadable file attached to a GitHub release.
type Asset struct {
	Name               string `json:"name"`
	BrowserDownloadURL string `json:"browser_download_url"`
}

// Release is the subset of the GitHub release payload we consume.
type Release struct {
	TagName string  `json:"tag_name"`
	Assets  []Asset `json:"assets"`
}

// FindAsset returns the first asset whose name contains pattern.
func (r *Release) FindAsset(pattern string) (Asset, bool) {
	for _, a := range r.Assets {
		if strings.Contains(a.Name, pattern) {
			return a, true
		}
	}
	return Asset{}, false
}

// LatestRelease fetches the latest release metadata for a repository.
func (c *Client) LatestRelease(ctx context.Context, owner, repo string) (*Release, error) {
	url := fmt.Sprintf("%s/repos/%s/%s/releases/latest", githubAPIBase, owner, repo)
	slog.Info("github_release_lookup", "repo", owner+"/"+repo)

	var release Release
	if err := c.GetJSON(ctx, url, &release); err != nil {
		return nil, err
	}
	if release.TagName == "" {
		return nil, fmt.Errorf("release for %s/%s has no tag name", owner, repo)
	}

	slog.Info("github_release_found", "repo", owner+"/"+repo,
		"tag", release.TagName, "assets", len(release.Assets))
	return &release, nil
}
