package dton

import "encoding/binary"

// pickWidth returns the narrowest offset width able to address a buffer
// of fixed bytes plus slots offset fields.
func pickWidth(fixed, slots int) int {
	if fixed+slots < 1<<8 {
		return 1
	} else if fixed+2*slots < 1<<16 {
		return 2
	}
	return 4
}

// getUint reads an unsigned little-endian integer of width w at off.
// Out-of-bounds reads and unsupported widths return 0.
func getUint(b []byte, off, w int) int {
	if off < 0 || off+w > len(b) {
		return 0
	}

	switch w {
	case 1:
		return int(b[off])
	case 2:
		return int(binary.LittleEndian.Uint16(b[off:]))
	case 4:
		return int(binary.LittleEndian.Uint32(b[off:]))
	}
	return 0
}
