// Package visibility decides which fields of a screen are live for a snapshot
// of answers.
//
// A field carries at most one gate. Ungated fields are always live. A
// progressive gate requires its depends_on field to be answered (not absent,
// "" or an empty list) and, when present, its extra condition to hold. A
// conditional gate requires its expression to hold. Children of a group are
// judged by their own gates alone.
//
// Expressions that fail to parse make the gate fail open and are reported once
// through the configured logger when the Resolver is built.
package visibility
