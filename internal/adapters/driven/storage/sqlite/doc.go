// Package sqlite provides the persisted chunk metadata table: one row
// per chunk with text, provenance, and the stored embedding. Rows are
// written once per corpus build and read-only during serving.
package sqlite
