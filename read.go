package schemafree

import (
	"math"

	"github.com/memwalk/schemafree/errors"
)

// readUint decodes an unsigned little-endian integer of the given byte
// width. Widths other than 1, 2, 4 and 8 fail cleanly; the engine treats
// that failure as "nothing to release here".
func readUint(mem Memory, width, offset uint32) (uint64, error) {
	switch width {
	case 1:
		v, err := mem.ReadU8(offset)
		return uint64(v), err
	case 2:
		v, err := mem.ReadU16(offset)
		return uint64(v), err
	case 4:
		v, err := mem.ReadU32(offset)
		return uint64(v), err
	case 8:
		return mem.ReadU64(offset)
	default:
		return 0, errors.UnsupportedWidth(errors.PhaseFree, width)
	}
}

func safeAddU32(a, b uint32) (uint32, bool) {
	if a > math.MaxUint32-b {
		return 0, false
	}
	return a + b, true
}
