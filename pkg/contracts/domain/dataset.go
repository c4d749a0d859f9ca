package domain

import "sort"

// AliasEntry maps a logical dataset name to an actual file in the data root
type AliasEntry struct {
	LogicalName string `yaml:"-" json:"logical_name"`
	ActualFile  string `yaml:"actual_file" json:"actual_file"`
	Description string `yaml:"description" json:"description"`
}

// AliasTable is the immutable logical name -> entry configuration
type AliasTable map[string]AliasEntry

// Lookup returns the entry for an exact logical name
func (a AliasTable) Lookup(name string) (AliasEntry, bool) {
	e, ok := a[name]
	return e, ok
}

// Names returns the logical names in lexical order
func (a AliasTable) Names() []string {
	names := make([]string, 0, len(a))
	for name := range a {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DatasetInfo describes the shape of a loaded dataset
type DatasetInfo struct {
	Name       string                `json:"name"`
	File       string                `json:"file"`
	Rows       int                   `json:"rows"`
	Columns    int                   `json:"columns"`
	Names      []string              `json:"column_names"`
	Kinds      map[string]ColumnKind `json:"kinds"`
	NullCounts map[string]int        `json:"null_counts"`
}

// CatalogEntry is one aliased dataset and whether its file is present
type CatalogEntry struct {
	AliasEntry
	Exists bool `json:"exists"`
}

// Catalog lists the data files in the data root and the configured aliases
type Catalog struct {
	Files  []string       `json:"files"`
	Mapped []CatalogEntry `json:"mapped"`
}
