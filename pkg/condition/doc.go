// Package condition parses and evaluates the small visibility expression
// language used by conditional gates, for example
//
//	state == "CA"
//	symptoms contains "nausea" OR pain_level == high
//	consent != false AND demographics.dob != ""
//
// An expression is either one comparison or a flat list of comparisons joined
// by a single combinator. Mixing AND with OR and grouping with parentheses are
// deliberately unsupported; both are reported as syntax errors.
package condition
