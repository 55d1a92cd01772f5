// Package driven provides interfaces for infrastructure adapters
// (secondary/outbound ports): embedding backends, chat models, the
// durable vector index, normalisers, and the chunking pipeline.
package driven
