package page

import (
	"context"
	"io"
	"os"
	"strings"

	"sjsage522/bestpick/helpers"
	apperrors "sjsage522/bestpick/pkg/errors"
)

// FileSource reads a saved search results page from disk
type FileSource struct{}

// NewFileSource creates a new file page source
func NewFileSource() *FileSource {
	return &FileSource{}
}

// Name returns the source name
func (s *FileSource) Name() string {
	return "file"
}

// Load reads the file at target, which may carry a file:// prefix
func (s *FileSource) Load(ctx context.Context, target string) (io.Reader, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path := strings.TrimPrefix(strings.TrimSpace(target), "file://")
	if path == "" {
		return nil, apperrors.NewValidation(target, "file path is empty")
	}

	body, err := os.ReadFile(path)
	if err != nil {
		return nil, apperrors.NewStructure(target, "failed to read saved page", err)
	}

	return helpers.DecodeToUTF8(body, "text/html")
}
