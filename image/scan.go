// Package image discovers RISC OS partitions in an Armstrong-Walker IDEFS
// disc image, plans a RISC iX partition layout in the space after (or
// reclaimed from) them, and commits the result back to the image.
package image

import (
	"io"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/rhalkyard/riscix-hccs/filecore"
	"github.com/rhalkyard/riscix-hccs/riscix"
)

// Partition is a discovered RISC OS partition: its byte offset within the
// image, its boot block, and the RISC iX partition table linked from that
// boot block, if any.
type Partition struct {
	Offset    int64
	BootBlock *filecore.BootBlock
	RiscixPT  *riscix.Table
}

// Scan finds all RISC OS partitions in an image. Starting at offset 0 it
// reads the boot block at each candidate offset and chains to the next via
// the disc record's declared size. Running out of image, or a boot block
// that fails to parse, ends the scan: both are the normal "no more
// partitions" condition. A linked RISC iX partition table that fails to
// parse is different: the boot block says there is a table, so failing to
// read one indicates real corruption and is returned as an error.
func Scan(r io.ReadSeeker) ([]Partition, error) {
	var partitions []Partition
	var offset int64
	for {
		if _, err := r.Seek(offset+filecore.BootBlockOffset, io.SeekStart); err != nil {
			log.Debugf("scan: no boot block at %#x: %v", offset, err)
			break
		}
		sector := make([]byte, filecore.BootBlockSize)
		if _, err := io.ReadFull(r, sector); err != nil {
			// Short read: end of image.
			log.Debugf("scan: end of image at %#x", offset)
			break
		}

		bootblock, err := filecore.ParseBootBlock(sector)
		if err != nil {
			log.Infof("scan: rejected potential RISC OS partition at %#x: %v", offset, err)
			break
		}

		// The partition must fit within the image.
		size := int64(bootblock.DiscRecord.Size)
		if pos, err := r.Seek(offset+size, io.SeekStart); err != nil || pos != offset+size {
			log.Infof("scan: partition at %#x extends past end of image", offset)
			break
		}

		p := Partition{Offset: offset, BootBlock: bootblock}
		if bootblock.RiscixCylinder != nil {
			cylSize := bootblock.DiscRecord.CylinderSize()
			tableOffset := offset + int64(*bootblock.RiscixCylinder)/2*cylSize
			if _, err := r.Seek(tableOffset, io.SeekStart); err != nil {
				return partitions, errors.Wrapf(err,
					"partition at %#x: seeking RISC iX partition table", offset)
			}
			data := make([]byte, riscix.TableSize)
			if _, err := io.ReadFull(r, data); err != nil {
				return partitions, errors.Wrapf(err,
					"partition at %#x: reading RISC iX partition table", offset)
			}
			table, err := riscix.ParseTable(data)
			if err != nil {
				return partitions, errors.Wrapf(err,
					"partition at %#x", offset)
			}
			p.RiscixPT = table
		}

		log.Debugf("scan: RISC OS partition %q at %#x, %d bytes",
			bootblock.DiscRecord.Name(), offset, size)
		partitions = append(partitions, p)
		offset += size
	}
	return partitions, nil
}
