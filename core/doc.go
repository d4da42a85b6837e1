// Package core defines the domain model for the Vigil content catalog.
//
// The core package provides:
//   - Name, the hierarchical identifier for catalog content
//   - Type, the closed taxonomy of content categories
//   - Format, the serializations accepted at the system boundary
//   - Resource, a Name paired with a Format and its derived Type
//   - Document, the structured in-memory representation of content
//
// All types are value objects: they carry no references to storage or
// transport and are safe to copy and share between goroutines.
package core
