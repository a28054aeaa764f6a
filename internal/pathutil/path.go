// Package pathutil resolves user supplied file paths.
package pathutil

import (
	"os"
	"path/filepath"
	"strings"
)

// Expand expands environment variables and a leading "~/" (or "~\") in p
// and returns the absolute result. An empty p yields an empty path.
func Expand(p string) (string, error) {
	p = strings.TrimSpace(p)
	if p == "" {
		return "", nil
	}
	p = os.ExpandEnv(p)
	if strings.HasPrefix(p, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		switch {
		case len(p) == 1:
			p = home
		case p[1] == '/' || p[1] == '\\':
			p = filepath.Join(home, p[2:])
		}
	}
	return filepath.Abs(p)
}
