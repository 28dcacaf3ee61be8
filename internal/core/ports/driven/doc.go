// Package driven provides interfaces for infrastructure adapters
// (secondary/outbound ports): the embedding service, the two retrieval
// indices, and the chunk metadata store.
package driven
