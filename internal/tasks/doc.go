// Package tasks runs long playlist operations with non-blocking progress reporting.
//
// # Bulk export
//
// [Exporter.BulkExport] writes every playlist of one user (or a chosen subset) to disk:
//
//   - Playlists are loaded once through a [Lister] scoped to the user
//   - A worker pool renders each playlist with the formatter package
//   - Cover downloads for Markdown exports share one [rate.Limiter]
//   - A manifest (export_manifest.json) summarizes successes and failures
//
// # Progress Reporting
//
// Operations send [ProgressUpdate] values on an optional channel. Sends use select with default, so a slow or
// absent reader never blocks an export.
package tasks
