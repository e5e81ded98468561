// Package contract describes the answers a screen submits as an OpenAPI 3
// schema, so host APIs receiving wizard payloads can validate their shape
// with the same document the wizard was built from.
//
// The schema covers shape only: types, option membership, patterns and the
// fields that are always required. Gated and cross-field rules stay with the
// validation package.
package contract
