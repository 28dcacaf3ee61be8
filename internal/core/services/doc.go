// Package services implements the driving port interfaces.
// The search facade orchestrates the two retrieval paths through the
// driven ports and the combiner merges their candidates.
//
// Services are pure Go with no CGO or external dependencies.
package services
