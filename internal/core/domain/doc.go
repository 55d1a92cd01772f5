// Package domain contains the core business entities and rules for the
// becabot answering pipeline: documents, fragments, provenance,
// conversation state, retrieval results, and source attribution.
//
// The domain has no dependencies on adapters or external services.
package domain
