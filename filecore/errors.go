package filecore

import "errors"

// Errors reported when an on-disk structure cannot be decoded or encoded.
// Malformed structures are never corrected silently; callers distinguish
// causes with errors.Is.
var (
	ErrBadChecksum       = errors.New("bad boot block checksum")
	ErrBadDefectChecksum = errors.New("bad defect list checksum")
	ErrBadDefectList     = errors.New("invalid defect list")
	ErrBadMagic          = errors.New("bad magic number in hardware parameters")
	ErrUnknownHWParams   = errors.New("unrecognised hardware parameter block")
	ErrNotPowerOfTwo     = errors.New("field value is not a power of two")
	ErrNonASCII          = errors.New("name is not ASCII")
	ErrNameTooLong       = errors.New("name too long")
)
