package source

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/okian/userboard/internal/domain/model"
	"github.com/okian/userboard/pkg/logger"
)

// FileSource reads users from a JSON or YAML file chosen by extension.
// The file is re-read on every Fetch.
type FileSource struct {
	path string
}

// NewFileSource creates a source reading path.
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

// Name implements Source.
func (s *FileSource) Name() string { return "file" }

// Fetch implements Source.
func (s *FileSource) Fetch(ctx context.Context) (users []model.UserRecord, err error) {
	start := time.Now()
	defer func() { observe(s.Name(), start, err) }()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetch, err)
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetch, err)
	}

	var issues []rowIssue
	switch ext := strings.ToLower(filepath.Ext(s.path)); ext {
	case ".json":
		users, issues, err = decodeJSON(data)
	case ".yaml", ".yml":
		users, issues, err = decodeYAML(data)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	if err != nil {
		return nil, err
	}
	if len(issues) > 0 {
		reportIssues(ctx, logger.Get().Named("source.file"), issues)
	}
	return users, nil
}

// decodeYAML accepts a sequence of users or a mapping with a users key.
func decodeYAML(data []byte) ([]model.UserRecord, []rowIssue, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	if len(doc.Content) == 0 {
		return nil, nil, fmt.Errorf("%w: empty document", ErrDecode)
	}

	var rows []any
	root := doc.Content[0]
	switch root.Kind {
	case yaml.SequenceNode:
		if err := root.Decode(&rows); err != nil {
			return nil, nil, fmt.Errorf("%w: %w", ErrDecode, err)
		}
	case yaml.MappingNode:
		var env struct {
			Users *[]any `yaml:"users"`
		}
		if err := root.Decode(&env); err != nil {
			return nil, nil, fmt.Errorf("%w: %w", ErrDecode, err)
		}
		if env.Users == nil {
			return nil, nil, fmt.Errorf("%w: mapping has no users key", ErrDecode)
		}
		rows = *env.Users
	default:
		return nil, nil, fmt.Errorf("%w: document is neither a sequence nor a mapping", ErrDecode)
	}

	users, issues := recordsFromRows(rows)
	return users, issues, nil
}
