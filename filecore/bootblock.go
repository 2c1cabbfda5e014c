package filecore

import (
	"bytes"
	"encoding/binary"

	"github.com/pkg/errors"
)

const (
	// BootBlockOffset is the byte offset of the boot block within a
	// FileCore partition.
	BootBlockOffset = 0xC00
	// BootBlockSize is the size of the boot block sector.
	BootBlockSize = 512

	// The disc record occupies [discRecordStart, riscixFlagOffset); the
	// defect list and hardware parameters share everything below it.
	discRecordStart  = 0x1C0
	riscixFlagOffset = 0x1FC
	checksumOffset   = 0x1FF

	// A defect list ends at the first word whose top 24 bits match the
	// marker; the low byte carries the defect checksum.
	defectEndMarker = 0x20000000
	defectEndMask   = 0xFFFFFF00
)

// BootBlock is the 512-byte structure at offset 0xC00 of every FileCore
// partition: a checksummed defect list, a hardware-specific parameter
// block, a disc record, and the "non-ADFS partition descriptor" which in
// practice only ever pointed at a RISC iX partition table.
type BootBlock struct {
	// Defects lists flagged-bad sector addresses in scan order. Order is
	// significant: the terminator's checksum covers the entries as
	// stored.
	Defects    []uint32
	HWParams   HWParams
	DiscRecord DiscRecord

	// RiscixCylinder is the start of the linked RISC iX partition table,
	// counted in cylinders of 256-byte sectors. nil means no table is
	// linked; 0 is a legitimate cylinder number.
	RiscixCylinder *uint16
}

// States of the defect-list scan. The scan either finds the checksummed
// terminator or runs into the disc record.
type defectScanState int

const (
	defectScanning defectScanState = iota
	defectTerminated
	defectOverrun
)

// ParseBootBlock decodes a boot block from one 512-byte sector.
func ParseBootBlock(sector []byte) (*BootBlock, error) {
	if len(sector) != BootBlockSize {
		return nil, errors.Errorf("boot block must be %d bytes, got %d",
			BootBlockSize, len(sector))
	}
	if sum := Sum8(sector[:checksumOffset]); sum != sector[checksumOffset] {
		return nil, errors.Wrapf(ErrBadChecksum, "calculated %#02x, stored %#02x",
			sum, sector[checksumOffset])
	}

	var defects []uint32
	state := defectScanning
	offset := 0
	for state == defectScanning {
		word := binary.LittleEndian.Uint32(sector[offset:])
		offset += 4
		switch {
		case offset > discRecordStart:
			state = defectOverrun
		case word&defectEndMask == defectEndMarker:
			if sum := DefectChecksum(defects); byte(word) != sum {
				return nil, errors.Wrapf(ErrBadDefectChecksum,
					"calculated %#02x, stored %#02x", sum, byte(word))
			}
			state = defectTerminated
		default:
			defects = append(defects, word)
		}
	}
	if state == defectOverrun {
		// The scan consumed past the start of the disc record without
		// finding a terminator, so this was never a defect list.
		return nil, errors.Wrap(ErrBadDefectList, "no terminator before disc record")
	}

	hwparams, err := ParseHWParams(sector[offset:discRecordStart])
	if err != nil {
		return nil, err
	}

	// Strictly the boot block copy of the disc record is only meant to
	// locate the map, whose own copy is authoritative. In practice the
	// boot block copy is good enough.
	discrec, err := ParseDiscRecord(sector[discRecordStart:riscixFlagOffset])
	if err != nil {
		return nil, err
	}

	b := &BootBlock{
		Defects:    defects,
		HWParams:   hwparams,
		DiscRecord: *discrec,
	}
	if sector[riscixFlagOffset] != 0 {
		cylinder := binary.LittleEndian.Uint16(sector[riscixFlagOffset+1 : checksumOffset])
		b.RiscixCylinder = &cylinder
	}
	return b, nil
}

// Encode produces the 512-byte on-disk form, recomputing the defect-list
// terminator and the whole-sector checksum.
func (b *BootBlock) Encode() ([]byte, error) {
	buf := bytes.NewBuffer(make([]byte, 0, BootBlockSize))
	for _, d := range b.Defects {
		binary.Write(buf, binary.LittleEndian, d)
	}
	terminator := uint32(defectEndMarker) | uint32(DefectChecksum(b.Defects))
	binary.Write(buf, binary.LittleEndian, terminator)

	hwparams := b.HWParams.Encode()
	if buf.Len()+len(hwparams) > discRecordStart {
		return nil, errors.Wrapf(ErrBadDefectList,
			"%d defect entries leave no room for hardware parameters", len(b.Defects))
	}
	// Left-pad the hardware parameters to fill unused defect list space.
	buf.Write(make([]byte, discRecordStart-buf.Len()-len(hwparams)))
	buf.Write(hwparams)

	discrec, err := b.DiscRecord.Encode()
	if err != nil {
		return nil, err
	}
	buf.Write(discrec)

	if b.RiscixCylinder != nil {
		buf.WriteByte(1)
		binary.Write(buf, binary.LittleEndian, *b.RiscixCylinder)
	} else {
		buf.Write([]byte{0, 0, 0})
	}

	buf.WriteByte(Sum8(buf.Bytes()))
	return buf.Bytes(), nil
}
