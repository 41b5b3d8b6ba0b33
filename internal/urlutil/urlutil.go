// Package urlutil parses repository and issue references given on the
// command line.
package urlutil

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// ParseRepo accepts "owner/name" or a github.com repository URL and returns
// the "owner/name" form.
func ParseRepo(s string) (string, error) {
	ref := strings.TrimSpace(s)
	if strings.Contains(ref, "://") {
		u, err := url.Parse(ref)
		if err != nil {
			return "", fmt.Errorf("invalid repository URL %q: %w", s, err)
		}
		ref = strings.Trim(u.Path, "/")
		parts := strings.Split(ref, "/")
		if len(parts) < 2 {
			return "", fmt.Errorf("invalid repository URL %q: want https://github.com/owner/name", s)
		}
		ref = parts[0] + "/" + parts[1]
	}
	ref = strings.TrimSuffix(ref, ".git")

	owner, name, ok := strings.Cut(ref, "/")
	if !ok || owner == "" || name == "" || strings.Contains(name, "/") {
		return "", fmt.Errorf("invalid repository %q: want owner/name", s)
	}
	return owner + "/" + name, nil
}

// ParseIssueRef accepts "owner/name#123", "owner/name 123" split across two
// arguments, or an issue URL, and returns the repository and issue number.
func ParseIssueRef(args ...string) (string, int, error) {
	switch len(args) {
	case 1:
		if strings.Contains(args[0], "://") {
			repo, err := ParseRepo(args[0])
			if err != nil {
				return "", 0, err
			}
			n, err := ExtractIssueNumber(args[0])
			if err != nil {
				return "", 0, err
			}
			return repo, n, nil
		}
		ref, num, ok := strings.Cut(args[0], "#")
		if !ok {
			return "", 0, fmt.Errorf("invalid issue reference %q: want owner/name#number", args[0])
		}
		return parseRepoAndNumber(ref, num)
	case 2:
		return parseRepoAndNumber(args[0], strings.TrimPrefix(args[1], "#"))
	}
	return "", 0, fmt.Errorf("want an issue reference: owner/name#number or owner/name number")
}

func parseRepoAndNumber(ref, num string) (string, int, error) {
	repo, err := ParseRepo(ref)
	if err != nil {
		return "", 0, err
	}
	n, err := strconv.Atoi(num)
	if err != nil || n <= 0 {
		return "", 0, fmt.Errorf("invalid issue number %q", num)
	}
	return repo, n, nil
}

// ExtractIssueNumber extracts the issue number from an issue URL.
func ExtractIssueNumber(issueURL string) (int, error) {
	// URL format: https://github.com/owner/repo/issues/123
	// or: https://api.github.com/repos/owner/repo/issues/123
	parts := strings.Split(strings.TrimRight(issueURL, "/"), "/")
	if len(parts) < 2 || parts[len(parts)-2] != "issues" {
		return 0, fmt.Errorf("invalid issue URL format: %s", issueURL)
	}

	numStr := parts[len(parts)-1]
	num, err := strconv.Atoi(numStr)
	if err != nil {
		return 0, fmt.Errorf("failed to parse issue number from URL %s: %w", issueURL, err)
	}

	return num, nil
}
