package render

import (
	"context"
	"os"
	"os/user"
	"path/filepath"
	"strings"

	"github.com/restpilot/restpilot/internal/collection"
	"github.com/restpilot/restpilot/internal/contenttype"
)

// resolveFileSource renders the path template, expands a leading "~", and
// reads the file's entire contents, guessing a content type from its
// extension (spec.md §4.3).
func resolveFileSource(ctx context.Context, source collection.ChainSource, rc *Context, stack keyStack) (sourceResult, error) {
	rendered, err := renderChainConfig(ctx, "path", source.Path, rc, stack)
	if err != nil {
		return sourceResult{}, err
	}
	path := expandHome(rendered)

	contents, err := os.ReadFile(path)
	if err != nil {
		return sourceResult{}, &ChainError{Kind: ErrFile, Path: path, Inner: err}
	}
	ct, hasType := contenttype.FromExtension(path)
	return sourceResult{value: contents, contentType: ct, hasType: hasType}, nil
}

// expandHome expands a leading "~" or "~/" to the current user's home
// directory, mirroring shell tilde expansion.
func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	u, err := user.Current()
	if err != nil || u.HomeDir == "" {
		return path
	}
	if path == "~" {
		return u.HomeDir
	}
	return filepath.Join(u.HomeDir, path[2:])
}
