// Package analysis is the statistics engine.
//
// Every operation is a pure function of a loaded table and explicit
// parameters: Trend, Seasonality, ComparePeriods, Distribution,
// Correlation, Outliers and Summarize. Run dispatches an
// api.AnalysisRequest to the matching function.
//
// Data-shape problems (missing columns, empty ranges, too few points) are
// returned as INVALID_PARAMETER or INSUFFICIENT_DATA AppErrors so a caller
// can turn them into failure results. Reports never contain NaN or Inf;
// undefined statistics are reported as null.
//
// Conventions:
//
//   - standard deviations are sample (n-1) deviations
//   - skewness and kurtosis are population moment ratios, kurtosis in excess form
//   - quantiles interpolate linearly between closest ranks
//   - the input table is never modified
package analysis
