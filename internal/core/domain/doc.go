// Package domain contains the core business entities of the retrieval
// engine: chunks, categories, search results, and the candidate sets
// produced by the individual retrieval paths.
package domain
