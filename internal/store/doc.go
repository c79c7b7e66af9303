// Package store reads and writes the CSV files of an analysis.
//
// Per experiment, the step records stream into droplets_<experiment>.csv
// while the sequence runs. Aggregated tables are written as
// evaluation_<experiment>.csv and, for a whole folder,
// overall_evaluation_<folder>.csv. All files live in the analysis root.
package store
