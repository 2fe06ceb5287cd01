// Package witschema derives free schemas for WIT types lowered into
// linear memory per the Canonical ABI.
//
// A guest that lowers a value leaves behind a tree of allocations: list
// and string bodies, and recursively the bodies inside their elements.
// Compile maps a wit.Type to the schema.Node describing exactly those
// ownership edges, so schemafree.Free can reclaim a lowered value without
// hand-written cleanup.
//
// Variants, options, and results are supported only when every payload is
// pure (owns no memory): releasing an impure payload would require reading
// the discriminant to pick a branch, which the node set deliberately does
// not model.
package witschema
