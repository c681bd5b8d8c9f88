package source

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

var unsafeNameRegex = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// PageOutput keeps a copy of every fetched page so a run can be repeated offline with
// `extract <file>`.
type PageOutput struct {
	directory string
}

func NewPageOutput(dir string) (PageOutput, error) {
	err := os.MkdirAll(dir, 0777)
	if err != nil {
		return PageOutput{}, err
	}
	return PageOutput{directory: dir}, nil
}

// Name derives the file name a page is stored under from its url.
func (o PageOutput) Name(rawUrl string) string {
	name := rawUrl
	if u, err := url.Parse(rawUrl); err == nil && u.Host != "" {
		name = u.Host + u.Path
		if u.RawQuery != "" {
			name += "_" + u.RawQuery
		}
	}
	name = strings.Trim(unsafeNameRegex.ReplaceAllString(name, "_"), "_")
	if name == "" {
		name = "page"
	}
	if !strings.HasSuffix(name, ".html") {
		name += ".html"
	}
	return name
}

// Write stores the page and returns its path.
func (o PageOutput) Write(rawUrl string, contents []byte) (string, error) {
	path := filepath.Join(o.directory, o.Name(rawUrl))
	err := os.WriteFile(path, contents, 0600)
	if err != nil {
		return "", fmt.Errorf("write page %s: %w", path, err)
	}
	return path, nil
}
