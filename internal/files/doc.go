// Package files lists and inspects dataset files under a data root.
//
// Discovery never walks subdirectories: datasets live directly in the root.
// Listings are returned in lexical filename order so that callers relying on
// "first match" semantics are deterministic across platforms.
//
//	discovery := files.NewDiscovery("/srv/data")
//	all, err := discovery.ListDataFiles()
//	info, ok := discovery.Stat("revenue_2024.csv")
package files
