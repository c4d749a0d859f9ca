// Package services implements the request surface of finsight. It sits
// between callers (the CLI, or any embedding program) and the loader, query
// and analysis packages.
//
// # Request flow
//
// Every AnalysisService method follows the same path:
//
//  1. Validate the request contract from pkg/contracts/api/v1
//  2. Load the dataset by logical name through the loader cache
//  3. Run the query or analysis function on the loaded table
//  4. Wrap the outcome in a domain.Result
//
// Methods never return errors or panic. A failure becomes a Result with
// status "error" whose kind is the AppError type of the cause, so callers
// can switch on NOT_FOUND, INVALID_PARAMETER, INSUFFICIENT_DATA and the
// other kinds without unwrapping.
//
// # Observability
//
// Each call runs inside a span named finsight.<operation> carrying a trace
// id, and records finsight_requests_total and
// finsight_request_duration_seconds labelled by operation and status. The
// loader's cache counters are published as observable instruments.
//
// # Batches
//
// RunBatch executes independent AnalysisRequests concurrently, bounded by
// the configured batch concurrency. Results keep request order and a
// failing request only fails its own slot.
package services
