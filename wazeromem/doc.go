// Package wazeromem adapts wazero guest memory and guest deallocation
// functions to the schemafree interfaces, so structures a guest-side
// loader built in its linear memory can be released from the host.
package wazeromem
