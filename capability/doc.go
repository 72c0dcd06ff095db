// Package capability declares the capability groups both backends implement:
// their versioned symbol lists, the Go signature of every symbol, and
// decoders that turn a router.Namespace into typed operations.
//
// Signatures are type aliases so a backend can register plain functions and
// have them decoded without conversion.
package capability
