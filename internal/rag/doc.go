// Package rag implements the retrieval-augmented test-case generation
// pipeline: projecting stored test cases into bounded retrievable
// documents, embedding them in size-aware batches, retrieving similar
// cases for new documentation, generating candidate test cases through a
// generative model, and parsing the unreliable model output back into
// structured records.
//
// The pipeline is deliberately defensive about sizes. The remote embedding
// service enforces a payload ceiling and the model a prompt window, so
// every path through the package is bounded by the named constants in
// constants.go.
package rag
