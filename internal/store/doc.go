// Package store provides SQLite-backed durable storage for checked
// documents.
//
// The store is an append-only transcript:
//   - Documents: one row per checked report, with its source and script
//   - Chunks: the classified spans of each report
//   - Tactics: the sources of tactics that produced chunks
//
// Ordering uses the report seq (logical clock), never timestamps, and
// every query orders by seq ASC, id ASC COLLATE BINARY so results are
// identical across runs.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// Chunk IDs are content-addressed via ir.ChunkID; captured values are
// stored as RFC 8785 canonical JSON.
package store
