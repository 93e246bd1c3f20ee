// Package service contains infrastructure-side implementations of the small
// ports the application layer depends on: identifier generation and the
// notification dispatcher.
package service

import "github.com/google/uuid"

// UUIDGenerator implements command.IDGenerator with random UUIDs.
type UUIDGenerator struct{}

// NewUUIDGenerator creates a new UUIDGenerator.
func NewUUIDGenerator() UUIDGenerator {
	return UUIDGenerator{}
}

// NewID returns a new UUID string.
func (UUIDGenerator) NewID() string {
	return uuid.NewString()
}
