package image

import (
	"io"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/rhalkyard/riscix-hccs/filecore"
)

// Commit writes a planned layout back to the image.
//
// The partition table is written first and the boot block that points at
// it last, so that a crash mid-commit leaves a stale but consistent image.
// The residual window is the reverse case: an orphaned table with no
// descriptor referencing it, which is harmless.
func Commit(w io.WriteSeeker, plan *Plan) error {
	tableData, err := plan.Table.Encode()
	if err != nil {
		return errors.Wrap(err, "encoding RISC iX partition table")
	}
	bootData, err := plan.Target.BootBlock.Encode()
	if err != nil {
		return errors.Wrap(err, "encoding boot block")
	}

	target := plan.Target
	tableOffset := target.Offset + plan.StartCylinder*plan.CylinderSize
	log.Debugf("commit: RISC iX partition table at %#x", tableOffset)
	if err := writeAt(w, tableOffset, tableData); err != nil {
		return errors.Wrap(err, "writing RISC iX partition table")
	}

	if plan.NewTable {
		// Invalidate the boot block of the partition whose space is
		// being turned over to RISC iX.
		staleOffset := target.Offset + int64(target.BootBlock.DiscRecord.Size) +
			filecore.BootBlockOffset
		log.Debugf("commit: invalidating boot block at %#x", staleOffset)
		if err := writeAt(w, staleOffset, make([]byte, filecore.BootBlockSize)); err != nil {
			return errors.Wrap(err, "invalidating stale boot block")
		}
	}

	log.Debugf("commit: boot block at %#x", target.Offset+filecore.BootBlockOffset)
	if err := writeAt(w, target.Offset+filecore.BootBlockOffset, bootData); err != nil {
		return errors.Wrap(err, "writing boot block")
	}
	return nil
}

func writeAt(w io.WriteSeeker, offset int64, data []byte) error {
	if _, err := w.Seek(offset, io.SeekStart); err != nil {
		return err
	}
	_, err := w.Write(data)
	return err
}
