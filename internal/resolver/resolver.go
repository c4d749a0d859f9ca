// Package resolver maps logical dataset names onto files in the data root.
//
// Resolution order, first match wins:
//
//	1. exact key in the alias table
//	2. the name itself is a file in the data root
//	3. case-insensitive substring match against data file names
//	4. the name unchanged
//
// Step 3 breaks ties lexically and flags the resolution as ambiguous when
// several files match. Resolution never fails; a name that matches nothing is
// returned as-is and the loader reports it as not found.
package resolver

import (
	"log/slog"
	"strings"
	"sync"

	"finsight/internal/files"
	"finsight/pkg/contracts/domain"
)

// Source records which resolution step produced a Resolution
type Source string

const (
	SourceAlias      Source = "alias"
	SourceExact      Source = "exact"
	SourceFuzzy      Source = "fuzzy"
	SourceUnresolved Source = "unresolved"
)

// Resolution is the outcome of resolving one logical name
type Resolution struct {
	Logical    string   `json:"logical_name"`
	Actual     string   `json:"actual_file"`
	Source     Source   `json:"source"`
	Candidates []string `json:"candidates,omitempty"`
	Ambiguous  bool     `json:"ambiguous"`
}

// Resolver resolves logical names against an alias table and a data root
type Resolver struct {
	aliases   domain.AliasTable
	discovery *files.Discovery
	logger    *slog.Logger

	mu   sync.RWMutex
	memo map[string]Resolution
}

// New creates a resolver. The alias table is read once and never reloaded.
func New(discovery *files.Discovery, aliases domain.AliasTable, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	if aliases == nil {
		aliases = domain.AliasTable{}
	}
	return &Resolver{
		aliases:   aliases,
		discovery: discovery,
		logger:    logger.With(slog.String("component", "resolver")),
		memo:      make(map[string]Resolution),
	}
}

// Resolve returns the actual file name for a logical name
func (r *Resolver) Resolve(name string) string {
	return r.Lookup(name).Actual
}

// Lookup resolves a logical name and reports how it was resolved
func (r *Resolver) Lookup(name string) Resolution {
	r.mu.RLock()
	res, ok := r.memo[name]
	r.mu.RUnlock()
	if ok {
		return res
	}

	res = r.resolve(name)
	if res.Source != SourceUnresolved {
		r.mu.Lock()
		r.memo[name] = res
		r.mu.Unlock()
	}
	return res
}

func (r *Resolver) resolve(name string) Resolution {
	if entry, ok := r.aliases.Lookup(name); ok {
		return Resolution{Logical: name, Actual: entry.ActualFile, Source: SourceAlias}
	}

	if _, ok := r.discovery.Stat(name); ok {
		return Resolution{Logical: name, Actual: name, Source: SourceExact}
	}

	needle := strings.ToLower(name)
	if needle != "" {
		if candidates := r.fuzzyCandidates(needle); len(candidates) > 0 {
			res := Resolution{
				Logical:    name,
				Actual:     candidates[0],
				Source:     SourceFuzzy,
				Candidates: candidates,
				Ambiguous:  len(candidates) > 1,
			}
			if res.Ambiguous {
				r.logger.Warn("ambiguous dataset name, using first lexical match",
					slog.String("logical_name", name),
					slog.String("chosen", res.Actual),
					slog.Any("candidates", candidates))
			} else {
				r.logger.Debug("dataset resolved by substring match",
					slog.String("logical_name", name),
					slog.String("file", res.Actual))
			}
			return res
		}
	}

	return Resolution{Logical: name, Actual: name, Source: SourceUnresolved}
}

// fuzzyCandidates returns data files whose lower-cased name contains needle, lexically ordered
func (r *Resolver) fuzzyCandidates(needle string) []string {
	listing, err := r.discovery.ListDataFiles()
	if err != nil {
		r.logger.Warn("failed to scan data root", slog.String("error", err.Error()))
		return nil
	}

	var candidates []string
	for _, f := range listing {
		if strings.Contains(strings.ToLower(f.Name), needle) {
			candidates = append(candidates, f.Name)
		}
	}
	return candidates
}
