package filecore

import (
	"bytes"
	"encoding/binary"
	"math/bits"

	"github.com/pkg/errors"
)

// DiscRecordSize is the length of an encoded disc record, which occupies
// [0x1C0, 0x1FC) of the boot block.
const DiscRecordSize = 60

// discRecordRaw is the on-disk layout of a FileCore disc record. Sector
// size and bytes-per-map-bit are stored as the log2 of the actual value.
type discRecordRaw struct {
	Log2SectorSize uint8
	SecsPerTrack   uint8
	Heads          uint8
	Density        uint8
	IDLen          uint8
	Log2BPMB       uint8
	Skew           uint8
	BootOpt        uint8
	LowSector      uint8
	NZones         uint8
	ZoneSpare      uint16
	Root           uint32
	Size           uint32
	Cycle          uint16
	Name           [10]byte
	FileType       uint32
	Reserved       [24]byte
}

// DiscRecord describes the geometry and size of a FileCore volume. See the
// RISC OS PRM for field details. SectorSize and BPMB hold the actual byte
// values; both must be powers of two to encode.
type DiscRecord struct {
	SectorSize   uint32
	SecsPerTrack uint8
	Heads        uint8
	Density      uint8
	IDLen        uint8
	BPMB         uint32
	Skew         uint8
	BootOpt      uint8
	LowSector    uint8
	NZones       uint8
	ZoneSpare    uint16
	Root         uint32
	Size         uint32
	Cycle        uint16
	RawName      [10]byte
	FileType     uint32
	Reserved     [24]byte
}

// ParseDiscRecord decodes a disc record, expanding the log2-stored fields.
func ParseDiscRecord(data []byte) (*DiscRecord, error) {
	if len(data) < DiscRecordSize {
		return nil, errors.Errorf("disc record must be %d bytes, got %d",
			DiscRecordSize, len(data))
	}
	var raw discRecordRaw
	if err := binary.Read(bytes.NewReader(data), binary.LittleEndian, &raw); err != nil {
		return nil, err
	}
	return &DiscRecord{
		SectorSize:   1 << raw.Log2SectorSize,
		SecsPerTrack: raw.SecsPerTrack,
		Heads:        raw.Heads,
		Density:      raw.Density,
		IDLen:        raw.IDLen,
		BPMB:         1 << raw.Log2BPMB,
		Skew:         raw.Skew,
		BootOpt:      raw.BootOpt,
		LowSector:    raw.LowSector,
		NZones:       raw.NZones,
		ZoneSpare:    raw.ZoneSpare,
		Root:         raw.Root,
		Size:         raw.Size,
		Cycle:        raw.Cycle,
		RawName:      raw.Name,
		FileType:     raw.FileType,
		Reserved:     raw.Reserved,
	}, nil
}

// Encode produces the 60-byte on-disk form. Fails with ErrNotPowerOfTwo if
// SectorSize or BPMB cannot be stored in their log2 form.
func (d *DiscRecord) Encode() ([]byte, error) {
	log2SectorSize, err := log2(d.SectorSize)
	if err != nil {
		return nil, errors.Wrapf(err, "sector size %d", d.SectorSize)
	}
	log2BPMB, err := log2(d.BPMB)
	if err != nil {
		return nil, errors.Wrapf(err, "bytes per map bit %d", d.BPMB)
	}
	raw := discRecordRaw{
		Log2SectorSize: log2SectorSize,
		SecsPerTrack:   d.SecsPerTrack,
		Heads:          d.Heads,
		Density:        d.Density,
		IDLen:          d.IDLen,
		Log2BPMB:       log2BPMB,
		Skew:           d.Skew,
		BootOpt:        d.BootOpt,
		LowSector:      d.LowSector,
		NZones:         d.NZones,
		ZoneSpare:      d.ZoneSpare,
		Root:           d.Root,
		Size:           d.Size,
		Cycle:          d.Cycle,
		Name:           d.RawName,
		FileType:       d.FileType,
		Reserved:       d.Reserved,
	}
	buf := &bytes.Buffer{}
	if err := binary.Write(buf, binary.LittleEndian, &raw); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Name returns the volume name with NUL padding stripped.
func (d *DiscRecord) Name() string {
	return string(bytes.Trim(d.RawName[:], "\x00"))
}

// SetName replaces the volume name. The name must be ASCII and fit the
// 10-byte field; shorter names are NUL padded.
func (d *DiscRecord) SetName(name string) error {
	if !isASCII(name) {
		return errors.Wrapf(ErrNonASCII, "%q", name)
	}
	if len(name) > len(d.RawName) {
		return errors.Wrapf(ErrNameTooLong, "%q (max %d bytes)", name, len(d.RawName))
	}
	d.RawName = [10]byte{}
	copy(d.RawName[:], name)
	return nil
}

// CylinderSize is the size in bytes of one cylinder: a full revolution's
// worth of sectors across all heads. All RISC iX placement is aligned to
// this.
func (d *DiscRecord) CylinderSize() int64 {
	return int64(d.SectorSize) * int64(d.SecsPerTrack) * int64(d.Heads)
}

func log2(v uint32) (uint8, error) {
	if bits.OnesCount32(v) != 1 {
		return 0, ErrNotPowerOfTwo
	}
	return uint8(bits.TrailingZeros32(v)), nil
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] > 0x7F {
			return false
		}
	}
	return true
}
