// Package layout computes Canonical ABI sizes, alignments, and record
// field offsets for WIT types as they are laid out in linear memory. The
// schema compiler uses these figures to place free-schema nodes at the
// offsets a canonical lowering produced.
package layout
