package testusers

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/okian/userboard/internal/adapters/source"
	"github.com/okian/userboard/internal/domain/model"
)

const outputFilePermission = 0o600

// Write stores users at path in a format chosen by extension: .json, .yaml,
// .yml, or .db/.sqlite for a SQLite users table.
func Write(ctx context.Context, path string, users []model.UserRecord) error {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		data, err := json.MarshalIndent(users, "", "  ")
		if err != nil {
			return fmt.Errorf("encode users: %w", err)
		}
		return os.WriteFile(path, data, outputFilePermission)
	case ".yaml", ".yml":
		data, err := yaml.Marshal(users)
		if err != nil {
			return fmt.Errorf("encode users: %w", err)
		}
		return os.WriteFile(path, data, outputFilePermission)
	case ".db", ".sqlite":
		db, err := source.OpenSQLite(path)
		if err != nil {
			return err
		}
		defer func() { _ = db.Close() }()
		return db.Seed(ctx, users)
	default:
		return fmt.Errorf("%w: %q", source.ErrUnsupportedFormat, ext)
	}
}
