// Package catalog implements the content registry of the Vigil engine:
// the authoritative store for declarative security content (decoders,
// rules, filters, outputs, integrations, policies and schemas), addressed
// by hierarchical name and admitted only after schema and referential
// validation.
//
// The Catalog is a stateless orchestrator over its Store and Validator
// collaborators. A single instance is safe for concurrent use as long as
// the injected Store and Validator are.
package catalog
