// Package tasks orchestrates the daily sync pipeline with real-time progress reporting.
//
// # Pipeline
//
// [SyncEngine.Run] executes a strictly linear sequence for one calendar day:
//
//  1. Token check : a valid access token is obtained before anything else
//  2. Fetch log : the station's air log for the day, in broadcast order
//  3. Resolve : each unique play is matched to a catalog URI via search,
//     consulting the local match cache first; misses are collected, never fatal
//  4. Replace : the daily playlist is cleared and repopulated
//  5. Cumulative : new URIs are appended to the cumulative playlist, if configured
//  6. Record : the run summary is persisted (best effort)
//
// Any step's failure aborts the run immediately; in particular no playlist
// write happens before the feed fetch and resolution have succeeded.
//
// # Progress Reporting
//
// Operations emit [ProgressUpdate] values on an optional channel. Sends use
// select with default so reporting never blocks the pipeline.
//
// # Persistence
//
// The optional [TrackCacher] and [RunRecorder] interfaces decouple the
// engine from the SQLite layer (repositories package). Cache and history
// write failures are logged and ignored.
package tasks
