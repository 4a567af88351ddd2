package model

import "github.com/perfgo/teststability/ringbuffer"

// DocumentVersion is the current layout of history.json.
const DocumentVersion = 1

// Document is the persisted form of all test case histories of a repository.
type Document struct {
	// Layout version of this document
	Version int `json:"version"`
	// Window length used for newly seen test cases
	Capacity int `json:"capacity"`
	// Most recent builds, oldest first
	Builds []Build `json:"builds,omitempty"`
	// Encoded history per test case key
	Cases map[string]ringbuffer.Encoded `json:"cases"`
}

// NewDocument returns an empty document for the given window length.
func NewDocument(capacity int) *Document {
	return &Document{
		Version:  DocumentVersion,
		Capacity: capacity,
		Cases:    make(map[string]ringbuffer.Encoded),
	}
}
