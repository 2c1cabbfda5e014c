package filecore

import (
	"bytes"

	"github.com/pkg/errors"
)

// HWParams is a hardware-specific parameter block. Parameter blocks sit at
// the high end of the defect-list region of the boot block, so a 16-byte
// block occupies 0x1B0-0x1BF. Each known variant is identified by the
// magic value at the start of its block.
type HWParams interface {
	// Size is the number of bytes the block occupies at the end of the
	// defect-list region.
	Size() int
	// Encode reproduces the block's on-disk bytes.
	Encode() []byte
}

// ParseHWParams decodes the hardware parameter block found at the tail of
// the defect-list region, dispatching on magic value. Returns
// ErrUnknownHWParams when no known variant matches.
func ParseHWParams(region []byte) (HWParams, error) {
	if len(region) >= awParamsSize &&
		bytes.Equal(region[len(region)-awParamsSize:][:len(awMagic)], awMagic) {
		return ParseAWParams(region)
	}
	return nil, errors.Wrapf(ErrUnknownHWParams, "%d byte region", len(region))
}

// AWParams is the parameter block written by the Armstrong-Walker IDEFS,
// as used on HCCS IDE cards: the magic string 'Andy' followed by 12 bytes
// of unknown purpose, preserved verbatim.
type AWParams struct {
	Params [12]byte
}

var awMagic = []byte("Andy")

const awParamsSize = 16

// ParseAWParams decodes an Armstrong-Walker parameter block from the last
// 16 bytes of the defect-list region.
func ParseAWParams(region []byte) (*AWParams, error) {
	if len(region) < awParamsSize {
		return nil, errors.Wrapf(ErrBadMagic,
			"hardware parameter region truncated to %d bytes", len(region))
	}
	block := region[len(region)-awParamsSize:]
	if !bytes.Equal(block[:len(awMagic)], awMagic) {
		return nil, errors.Wrapf(ErrBadMagic, "%q (should be %q)",
			block[:len(awMagic)], awMagic)
	}
	hw := &AWParams{}
	copy(hw.Params[:], block[len(awMagic):])
	return hw, nil
}

func (p *AWParams) Size() int {
	return awParamsSize
}

func (p *AWParams) Encode() []byte {
	out := make([]byte, 0, awParamsSize)
	out = append(out, awMagic...)
	return append(out, p.Params[:]...)
}
