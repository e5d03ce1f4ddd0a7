package gitws

import (
	"fmt"
	"strings"
)

// ParseRemote extracts the owner and repository name from a git remote
// URL. Both SSH (git@host:owner/repo.git) and HTTPS
// (https://host/owner/repo.git) forms are handled.
func ParseRemote(url string) (owner, repo string, err error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return "", "", fmt.Errorf("empty remote url")
	}

	path := url
	if _, after, ok := strings.Cut(url, "://"); ok {
		// https://host/owner/repo(.git)
		if _, p, ok := strings.Cut(after, "/"); ok {
			path = p
		} else {
			return "", "", fmt.Errorf("no path in remote url %q", url)
		}
	} else if _, after, ok := strings.Cut(url, ":"); ok {
		// git@host:owner/repo(.git)
		path = after
	}

	path = strings.TrimSuffix(path, ".git")
	path = strings.Trim(path, "/")

	parts := strings.Split(path, "/")
	if len(parts) < 2 {
		return "", "", fmt.Errorf("cannot parse owner/repo from remote url %q", url)
	}

	owner = parts[len(parts)-2]
	repo = parts[len(parts)-1]
	if owner == "" || repo == "" {
		return "", "", fmt.Errorf("cannot parse owner/repo from remote url %q", url)
	}
	return owner, repo, nil
}
