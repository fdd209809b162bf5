// Package script parses and runs layout scripts.
//
// A script is a line-oriented list of engine calls:
//
//	# comments and blank lines are skipped
//	add <id> <x> <y> <w> <h>
//	mv  <id> <x> <y>
//	rm  <id>
//
// Tokens after the last argument an instruction needs are ignored. Numbers
// must be non-negative integers. Parse errors carry the INVALID_SCRIPT code
// and the offending line number.
//
// The same syntax is accepted one line at a time by the interactive editor
// (see [ParseLine]).
package script
