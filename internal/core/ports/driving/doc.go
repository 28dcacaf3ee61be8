// Package driving provides interfaces for the primary/inbound ports
// consumed by the CLI layer and the chat orchestration layer.
package driving
