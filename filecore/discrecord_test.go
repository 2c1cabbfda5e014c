package filecore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDiscRecord(t *testing.T) *DiscRecord {
	t.Helper()
	rec := &DiscRecord{
		SectorSize:   512,
		SecsPerTrack: 63,
		Heads:        16,
		Density:      0,
		IDLen:        15,
		BPMB:         64,
		LowSector:    1,
		NZones:       4,
		ZoneSpare:    520,
		Root:         0x203,
		Size:         100000000,
		Cycle:        1,
		FileType:     0xFFFFFDC4,
	}
	require.NoError(t, rec.SetName("IDEDisc4"))
	return rec
}

func TestDiscRecordRoundTrip(t *testing.T) {
	rec := testDiscRecord(t)
	data, err := rec.Encode()
	require.NoError(t, err)
	require.Len(t, data, DiscRecordSize)

	parsed, err := ParseDiscRecord(data)
	require.NoError(t, err)
	assert.Equal(t, rec, parsed)
}

func TestDiscRecordLog2Fields(t *testing.T) {
	rec := testDiscRecord(t)
	data, err := rec.Encode()
	require.NoError(t, err)

	// Sector size and bytes-per-map-bit are stored as log2.
	assert.Equal(t, byte(9), data[0])
	assert.Equal(t, byte(6), data[5])

	parsed, err := ParseDiscRecord(data)
	require.NoError(t, err)
	assert.Equal(t, uint32(512), parsed.SectorSize)
	assert.Equal(t, uint32(64), parsed.BPMB)
}

func TestDiscRecordNotPowerOfTwo(t *testing.T) {
	rec := testDiscRecord(t)
	rec.SectorSize = 500
	_, err := rec.Encode()
	assert.ErrorIs(t, err, ErrNotPowerOfTwo)

	rec = testDiscRecord(t)
	rec.BPMB = 100
	_, err = rec.Encode()
	assert.ErrorIs(t, err, ErrNotPowerOfTwo)
}

func TestDiscRecordName(t *testing.T) {
	rec := testDiscRecord(t)
	assert.Equal(t, "IDEDisc4", rec.Name())

	require.NoError(t, rec.SetName("HardDisc"))
	assert.Equal(t, "HardDisc", rec.Name())

	assert.ErrorIs(t, rec.SetName("Frühstück"), ErrNonASCII)
	assert.ErrorIs(t, rec.SetName("MuchTooLongName"), ErrNameTooLong)

	// A failed SetName leaves the name untouched.
	assert.Equal(t, "HardDisc", rec.Name())
}

func TestDiscRecordCylinderSize(t *testing.T) {
	rec := testDiscRecord(t)
	assert.Equal(t, int64(512*63*16), rec.CylinderSize())
}
