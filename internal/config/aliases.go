package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"gopkg.in/yaml.v2"

	apperrors "finsight/internal/errors"
	"finsight/pkg/contracts/domain"
)

// LoadAliasTable reads the logical name -> file mapping.
// An empty path or a missing file yields an empty table; malformed YAML is a CONFIG error.
func LoadAliasTable(path string, logger *slog.Logger) (domain.AliasTable, error) {
	if logger == nil {
		logger = slog.Default()
	}

	table := domain.AliasTable{}
	if path == "" {
		return table, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			logger.Warn("alias table not found, continuing without aliases",
				slog.String("path", path))
			return table, nil
		}
		return nil, apperrors.NewConfigError(fmt.Sprintf("failed to read alias table %s", path), err)
	}

	var raw map[string]domain.AliasEntry
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, apperrors.NewConfigError(fmt.Sprintf("failed to parse alias table %s", path), err)
	}

	for name, entry := range raw {
		if entry.ActualFile == "" {
			return nil, apperrors.NewConfigError(
				fmt.Sprintf("alias %q has no actual_file", name), nil)
		}
		entry.LogicalName = name
		table[name] = entry
	}

	logger.Info("alias table loaded",
		slog.String("path", path),
		slog.Int("entries", len(table)))

	return table, nil
}
