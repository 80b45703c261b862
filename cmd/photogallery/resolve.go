package main

import (
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// resolvePattern turns the user supplied glob into an absolute pattern
func resolvePattern(raw string) (string, error) {
	pattern := stripQuotes(strings.TrimSpace(raw))

	expanded, err := expandHome(pattern)
	if err != nil {
		return "", err
	}

	if !filepath.IsAbs(expanded) {
		wd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("failed to get working directory: %w", err)
		}
		expanded = filepath.Join(wd, expanded)
	}

	if !utf8.ValidString(expanded) {
		return "", fmt.Errorf("could not parse provided path %q", expanded)
	}

	return expanded, nil
}

// stripQuotes removes one layer of surrounding double quotes
func stripQuotes(s string) string {
	if len(s) >= 2 && strings.HasPrefix(s, `"`) && strings.HasSuffix(s, `"`) {
		return s[1 : len(s)-1]
	}
	return s
}

// expandHome replaces a leading ~ or ~name with the matching home directory
func expandHome(path string) (string, error) {
	if !strings.HasPrefix(path, "~") {
		return path, nil
	}

	name, rest, _ := strings.Cut(path[1:], string(filepath.Separator))

	var home string
	if name == "" {
		dir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get user home directory: %w", err)
		}
		home = dir
	} else {
		u, err := user.Lookup(name)
		if err != nil {
			return "", fmt.Errorf("failed to get home directory of %s: %w", name, err)
		}
		home = u.HomeDir
	}

	if rest == "" {
		return home, nil
	}
	return filepath.Join(home, rest), nil
}
