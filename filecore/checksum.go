package filecore

import "math/bits"

// Sum8 computes the 8-bit rolling sum that seals a FileCore boot block.
// Whenever the running total exceeds 255 it is reduced by 255, not
// truncated to 8 bits.
func Sum8(data []byte) byte {
	sum := 0
	for _, b := range data {
		sum += int(b)
		if sum > 255 {
			sum -= 255
		}
	}
	return byte(sum)
}

// DefectChecksum computes the checksum carried in the low byte of a defect
// list's end marker. Each word rotates the accumulator right by 13 bits
// (ARM ROR) and is XORed in; the 32-bit result is folded down to one byte.
func DefectChecksum(defects []uint32) byte {
	var sum uint32
	for _, d := range defects {
		sum = bits.RotateLeft32(sum, -13)
		sum ^= d
	}
	sum ^= sum >> 16
	sum ^= sum >> 8
	return byte(sum)
}
