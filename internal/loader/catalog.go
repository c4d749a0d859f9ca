package loader

import (
	"context"
	"fmt"

	apperrors "finsight/internal/errors"
	"finsight/internal/files"
	"finsight/pkg/contracts/domain"
)

// Info loads a dataset and describes its shape, column kinds and null counts
func (l *Loader) Info(ctx context.Context, name string) (domain.DatasetInfo, error) {
	table, err := l.Load(ctx, name, Options{})
	if err != nil {
		return domain.DatasetInfo{}, err
	}

	info := domain.DatasetInfo{
		Name:       name,
		File:       l.resolver.Resolve(name),
		Rows:       table.Rows(),
		Columns:    table.Width(),
		Names:      table.ColumnNames(),
		Kinds:      make(map[string]domain.ColumnKind, table.Width()),
		NullCounts: make(map[string]int, table.Width()),
	}
	for _, col := range table.Columns() {
		info.Kinds[col.Name] = col.Kind
		info.NullCounts[col.Name] = col.NullCount()
	}
	return info, nil
}

// Catalog lists the data files present in the root and every alias with
// whether its file exists.
func (l *Loader) Catalog() (domain.Catalog, error) {
	listing, err := l.discovery.ListDataFiles()
	if err != nil {
		return domain.Catalog{}, apperrors.NewIOError(
			fmt.Sprintf("failed to list data root %s", l.discovery.BasePath()), err)
	}

	catalog := domain.Catalog{
		Files:  files.Names(listing),
		Mapped: make([]domain.CatalogEntry, 0, len(l.aliases)),
	}
	for _, name := range l.aliases.Names() {
		entry, _ := l.aliases.Lookup(name)
		_, exists := l.discovery.Stat(entry.ActualFile)
		catalog.Mapped = append(catalog.Mapped, domain.CatalogEntry{AliasEntry: entry, Exists: exists})
	}
	return catalog, nil
}
