package schema

import (
	"path/filepath"
	"strings"
)

// Platforms recognized by ExtractRepoInfo.
const (
	GitHubPlatform = "github"
	GitLabPlatform = "gitlab"
	LocalPlatform  = "local"
)

// RepoInfo is what can be inferred about a repository from its location.
type RepoInfo struct {
	Owner    string `json:"owner,omitempty"`
	Name     string `json:"name"`
	Platform string `json:"platform"`
}

// ExtractRepoInfo derives owner, name and hosting platform from a clone URL or local path.
// URLs like https://github.com/owner/repo.git and git@gitlab.com:owner/repo.git are understood.
func ExtractRepoInfo(location string) RepoInfo {
	trimmed := strings.TrimSuffix(strings.TrimRight(strings.TrimSpace(location), "/"), ".git")

	var platform string
	switch {
	case strings.Contains(trimmed, "github.com"):
		platform = GitHubPlatform
	case strings.Contains(trimmed, "gitlab.com"):
		platform = GitLabPlatform
	default:
		return RepoInfo{Name: filepath.Base(filepath.Clean(trimmed)), Platform: LocalPlatform}
	}

	// Treat the scp-like "host:owner/repo" form the same as a URL path.
	trimmed = strings.ReplaceAll(trimmed, ":", "/")
	parts := strings.Split(trimmed, "/")
	info := RepoInfo{Platform: platform}
	if len(parts) >= 2 {
		info.Owner = parts[len(parts)-2]
		info.Name = parts[len(parts)-1]
	}
	return info
}

// IsRemoteLocation reports whether the location must be cloned rather than copied.
func IsRemoteLocation(location string) bool {
	for _, prefix := range []string{"http://", "https://", "ssh://", "git://", "git@", "file://"} {
		if strings.HasPrefix(location, prefix) {
			return true
		}
	}
	return false
}

// GetPlainLabel returns a plain text label for a score where higher is better.
func GetPlainLabel(score float64) string {
	switch {
	case score >= 80:
		return "Excellent"
	case score >= 60:
		return "Good"
	case score >= 40:
		return "Fair"
	default:
		return "Poor"
	}
}
