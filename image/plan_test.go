package image

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rhalkyard/riscix-hccs/filecore"
	"github.com/rhalkyard/riscix-hccs/riscix"
)

// Planner tests use the classic 512x63x16 geometry: 516096-byte cylinders.
const testCylSize = 512 * 63 * 16

func riscosPartition(t *testing.T, name string, offset int64, size uint32) Partition {
	t.Helper()
	b := &filecore.BootBlock{
		HWParams: &filecore.AWParams{},
		DiscRecord: filecore.DiscRecord{
			SectorSize:   512,
			SecsPerTrack: 63,
			Heads:        16,
			BPMB:         64,
			Size:         size,
		},
	}
	require.NoError(t, b.DiscRecord.SetName(name))
	return Partition{Offset: offset, BootBlock: b}
}

func int64p(v int64) *int64 {
	return &v
}

func TestPlanNoPartitions(t *testing.T) {
	_, err := PlanLayout(nil, 200*mib, Request{SwapMB: 20})
	assert.ErrorIs(t, err, ErrNoPartitions)
}

func TestPlanAutoRootFillsSpace(t *testing.T) {
	// One 50MB RISC OS partition in a 200MB image: 150MB unused tail, so
	// a new table goes at cylinder 102 (the first boundary after 50MB)
	// and the root fills what swap and the table leave over.
	parts := []Partition{riscosPartition(t, "IDEDisc4", 0, 50*mib)}
	plan, err := PlanLayout(parts, 200*mib, Request{SwapMB: 20})
	require.NoError(t, err)

	assert.True(t, plan.NewTable)
	assert.Empty(t, plan.Erased)
	assert.Equal(t, int64(102), plan.StartCylinder)
	assert.Equal(t, int64(testCylSize), plan.CylinderSize)

	require.NotNil(t, parts[0].BootBlock.RiscixCylinder)
	assert.Equal(t, uint16(204), *parts[0].BootBlock.RiscixCylinder)

	require.Len(t, plan.Table.Partitions, 2)
	root, swap := plan.Table.Partitions[0], plan.Table.Partitions[1]
	assert.Equal(t, riscix.Partition{Name: "Root", StartCylinder: 206, NumCylinders: 526}, root)
	assert.Equal(t, riscix.Partition{Name: "Swap", StartCylinder: 732, NumCylinders: 80}, swap)

	// 304 cylinders fit between the table and the end of the image; the
	// remainder past root+swap stays unused.
	assert.Equal(t, int64(200*mib-406*testCylSize), plan.Unused)
}

func TestPlanExtraPartitions(t *testing.T) {
	parts := []Partition{riscosPartition(t, "IDEDisc4", 0, 50*mib)}
	plan, err := PlanLayout(parts, 200*mib, Request{
		SwapMB: 20,
		Extras: []ExtraRequest{{Name: "usr", SizeMB: 10}},
	})
	require.NoError(t, err)

	// 10MB rounds up to 21 cylinders, which come out of the auto-sized
	// root.
	require.Len(t, plan.Table.Partitions, 3)
	assert.Equal(t, riscix.Partition{Name: "Root", StartCylinder: 206, NumCylinders: 484}, plan.Table.Partitions[0])
	assert.Equal(t, riscix.Partition{Name: "Swap", StartCylinder: 690, NumCylinders: 80}, plan.Table.Partitions[1])
	assert.Equal(t, riscix.Partition{Name: "usr", StartCylinder: 770, NumCylinders: 42}, plan.Table.Partitions[2])
}

func TestPlanInsufficientSpace(t *testing.T) {
	// A single partition with less than 100MB behind it.
	parts := []Partition{riscosPartition(t, "IDEDisc4", 0, 50*mib)}
	_, err := PlanLayout(parts, 100*mib, Request{SwapMB: 20})
	assert.ErrorIs(t, err, ErrInsufficientSpace)
}

func TestPlanReclaimsLaterPartitions(t *testing.T) {
	// Two RISC OS partitions: the second is sacrificed, so planning
	// succeeds even though the tail after it is under 100MB.
	parts := []Partition{
		riscosPartition(t, "IDEDisc4", 0, 50*mib),
		riscosPartition(t, "Spare", 50*mib, 50*mib),
	}
	plan, err := PlanLayout(parts, 200*mib, Request{SwapMB: 20})
	require.NoError(t, err)

	assert.True(t, plan.NewTable)
	assert.Equal(t, []string{"Spare"}, plan.Erased)
	assert.Equal(t, int64(102), plan.StartCylinder)
}

func TestPlanReusesExistingTable(t *testing.T) {
	parts := []Partition{riscosPartition(t, "IDEDisc4", 0, 50*mib)}
	cylinder := uint16(204)
	parts[0].BootBlock.RiscixCylinder = &cylinder
	parts[0].RiscixPT = &riscix.Table{Partitions: []riscix.Partition{
		{Name: "Root", StartCylinder: 206, NumCylinders: 100},
	}}

	plan, err := PlanLayout(parts, 200*mib, Request{SwapMB: 20})
	require.NoError(t, err)

	assert.False(t, plan.NewTable)
	assert.Equal(t, int64(102), plan.StartCylinder)
	// The descriptor is left as it was.
	assert.Equal(t, uint16(204), *parts[0].BootBlock.RiscixCylinder)
	// The replacement table is built from scratch, not from the old one.
	assert.Equal(t, uint32(526), plan.Table.Partitions[0].NumCylinders)
}

func TestPlanRootTooSmall(t *testing.T) {
	parts := []Partition{riscosPartition(t, "IDEDisc4", 0, 50*mib)}
	_, err := PlanLayout(parts, 160*mib, Request{SwapMB: 20, RootMB: int64p(32)})
	assert.ErrorIs(t, err, ErrRootTooSmall)
}

func TestPlanRootExceeds512MBCeiling(t *testing.T) {
	// 480MB of root after a 50MB RISC OS partition crosses the 512MB
	// boot ceiling; the error reports the exact permissible maximum.
	parts := []Partition{riscosPartition(t, "IDEDisc4", 0, 50*mib)}
	_, err := PlanLayout(parts, 640*mib, Request{SwapMB: 20, RootMB: int64p(480)})

	var limitErr *RootExceedsLimitError
	require.ErrorAs(t, err, &limitErr)
	assert.Equal(t, int64(512*mib-50*mib), limitErr.MaxRootBytes)
}

func TestPlanAutoRootRespectsCeiling(t *testing.T) {
	// In a huge image the auto-sized root is capped by the 512MB
	// ceiling rather than filling all free space.
	parts := []Partition{riscosPartition(t, "IDEDisc4", 0, 50*mib)}
	plan, err := PlanLayout(parts, 2048*mib, Request{SwapMB: 20})
	require.NoError(t, err)

	maxRootCyls := int64(512*mib-50*mib) / testCylSize
	assert.Equal(t, uint32(maxRootCyls*2), plan.Table.Partitions[0].NumCylinders)
}

func TestPlanDoesNotFit(t *testing.T) {
	parts := []Partition{
		riscosPartition(t, "IDEDisc4", 0, 50*mib),
		riscosPartition(t, "Spare", 50*mib, 50*mib),
	}
	_, err := PlanLayout(parts, 120*mib, Request{SwapMB: 20, RootMB: int64p(100)})

	var fitErr *DoesNotFitError
	require.ErrorAs(t, err, &fitErr)
	assert.Equal(t, int64(120*mib)-102*testCylSize, fitErr.Available)
	assert.Greater(t, fitErr.Total, fitErr.Available)
}
