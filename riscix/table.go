// Package riscix implements the RISC iX partition table, the secondary
// partition table linked from a FileCore boot block's non-ADFS partition
// descriptor.
//
// The table format assumes 256-byte sectors, so all cylinder values here
// are double the cylinder numbers used by the enclosing FileCore geometry.
package riscix

import (
	"bytes"
	"encoding/binary"

	"github.com/pkg/errors"
)

const (
	// TableMagic tags the partition table sector ('part').
	TableMagic = 0x70617274
	// BadBlockMagic tags the bad-block table sector ('Bad!').
	BadBlockMagic = 0x42616421

	// TableSize covers the partition table sector plus the bad-block
	// table sector that always follows it.
	TableSize = 1024

	// MaxPartitions is the number of 28-byte entry slots in the table.
	MaxPartitions = 16

	sectorSize = 512
	entrySize  = 28
	nameSize   = 16
)

var (
	ErrBadMagic          = errors.New("invalid magic number in RISC iX partition table")
	ErrTooManyPartitions = errors.New("too many RISC iX partitions")
	ErrBadName           = errors.New("RISC iX partition name must be ASCII")
	ErrNameTooLong       = errors.New("RISC iX partition name too long")
)

// Partition is one partition table entry. Cylinder values are in cylinders
// of 256-byte sectors.
type Partition struct {
	Name          string
	StartCylinder uint32
	NumCylinders  uint32
}

// partitionRaw is the on-disk entry layout. Valid is always written as 1;
// an entry whose start or length is zero terminates the table.
type partitionRaw struct {
	StartCylinder uint32
	NumCylinders  uint32
	Valid         uint32
	Name          [nameSize]byte
}

// Table is a RISC iX partition table. Entry order is preserved: it is the
// order the RISC iX kernel numbers the partitions in.
type Table struct {
	Partitions []Partition
}

// ParseTable decodes a partition table from the two sectors at its on-disk
// location. The trailing bad-block table sector is never meaningfully
// populated (the IDE driver ignores it) and is not parsed.
func ParseTable(data []byte) (*Table, error) {
	if len(data) < TableSize {
		return nil, errors.Errorf("RISC iX partition table must be %d bytes, got %d",
			TableSize, len(data))
	}
	if magic := binary.LittleEndian.Uint32(data[:4]); magic != TableMagic {
		return nil, errors.Wrapf(ErrBadMagic, "%#08x (should be %#08x)",
			magic, uint32(TableMagic))
	}

	t := &Table{}
	for i := 0; i < MaxPartitions; i++ {
		var raw partitionRaw
		entry := data[4+i*entrySize : 4+(i+1)*entrySize]
		if err := binary.Read(bytes.NewReader(entry), binary.LittleEndian, &raw); err != nil {
			return nil, err
		}
		if raw.StartCylinder == 0 || raw.NumCylinders == 0 {
			break
		}
		t.Partitions = append(t.Partitions, Partition{
			Name:          string(bytes.Trim(raw.Name[:], "\x00")),
			StartCylinder: raw.StartCylinder,
			NumCylinders:  raw.NumCylinders,
		})
	}
	return t, nil
}

// Encode produces the 1024-byte on-disk form: the tagged partition table
// sector followed by an empty bad-block table sector.
func (t *Table) Encode() ([]byte, error) {
	if len(t.Partitions) > MaxPartitions {
		return nil, errors.Wrapf(ErrTooManyPartitions, "%d (max %d)",
			len(t.Partitions), MaxPartitions)
	}

	buf := bytes.NewBuffer(make([]byte, 0, TableSize))
	binary.Write(buf, binary.LittleEndian, uint32(TableMagic))
	for _, p := range t.Partitions {
		raw := partitionRaw{
			StartCylinder: p.StartCylinder,
			NumCylinders:  p.NumCylinders,
			Valid:         1,
		}
		if !isASCII(p.Name) {
			return nil, errors.Wrapf(ErrBadName, "%q", p.Name)
		}
		if len(p.Name) > nameSize {
			return nil, errors.Wrapf(ErrNameTooLong, "%q (max %d bytes)",
				p.Name, nameSize)
		}
		copy(raw.Name[:], p.Name)
		binary.Write(buf, binary.LittleEndian, &raw)
	}
	buf.Write(make([]byte, sectorSize-buf.Len()))

	binary.Write(buf, binary.LittleEndian, uint32(BadBlockMagic))
	buf.Write(make([]byte, TableSize-buf.Len()))
	return buf.Bytes(), nil
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] > 0x7F {
			return false
		}
	}
	return true
}
