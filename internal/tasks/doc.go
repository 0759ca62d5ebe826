// Package tasks runs long catalog operations with real-time progress reporting.
//
// # Library Backup
//
// [Exporter.Backup] walks every category of the catalog and writes one file per category, and optionally one file
// per artist, album, playlist or mix holding its tracks. Work is spread over a bounded worker pool sharing a
// [rate.Limiter], so a large library does not exceed the remote rate limit.
//
// Pages are requested until an empty page or one holding only items already seen, which also covers the
// categories the remote does not page.
//
// # Progress Reporting
//
// Operations send [ProgressUpdate] values on a caller-supplied channel. Sends use select with default so a slow
// reader never stalls the pool.
package tasks
