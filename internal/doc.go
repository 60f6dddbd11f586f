// Package internal holds small security primitives shared by the root
// accountlink package: linking-session identifier generation and parsing.
//
// # Architecture boundaries
//
// This package must stay dependency-free (crypto/rand and encoding only) and
// must never import accountlink or any of its subpackages.
package internal
