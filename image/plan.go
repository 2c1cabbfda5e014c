package image

import (
	"fmt"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/rhalkyard/riscix-hccs/riscix"
)

const (
	mib = 1024 * 1024

	// RISC iX cannot boot a root filesystem that ends more than 512MB
	// into the disc, so the root partition plus the RISC OS partition
	// ahead of it must fit under that ceiling.
	maxRiscosPlusRoot = 512 * mib

	// Smallest root filesystem that holds a viable installation.
	minRootBytes = 64 * mib

	// A lone RISC OS partition must leave this much unused space behind
	// it before carving a RISC iX area out of the tail is worthwhile.
	minUnusedForTable = 100 * mib
)

var (
	ErrNoPartitions = errors.New("no RISC OS partitions found")

	ErrInsufficientSpace = errors.New("to create a RISC iX partition, you must " +
		"either have >100MB unused space after a single RISC OS partition, or at " +
		"least 2 RISC OS partitions, the first of which will be preserved, and " +
		"the remainder turned over to RISC iX")

	ErrRootTooSmall = errors.New("root partition too small for a viable " +
		"installation (must be at least 64MB)")
)

// DoesNotFitError reports a planned layout that overruns the space
// available beyond the partition table's start cylinder.
type DoesNotFitError struct {
	// Total is the planned extent in bytes, table start to last cylinder.
	Total int64
	// Available is the image space in bytes beyond the table start.
	Available int64
}

func (e *DoesNotFitError) Error() string {
	return fmt.Sprintf("RISC iX partitions do not fit in available space "+
		"(total size: %.2fMB, available: %.2fMB)",
		float64(e.Total)/mib, float64(e.Available)/mib)
}

// RootExceedsLimitError reports a root partition that, together with the
// RISC OS partition ahead of it, breaks the 512MB ceiling.
type RootExceedsLimitError struct {
	// MaxRootBytes is the largest root size that would fit.
	MaxRootBytes int64
}

func (e *RootExceedsLimitError) Error() string {
	return fmt.Sprintf("root partition does not fit within 512MB of the last "+
		"RISC OS partition - must be smaller than %.2fMB",
		float64(e.MaxRootBytes)/mib)
}

// ExtraRequest names an additional partition to create after swap.
type ExtraRequest struct {
	Name   string
	SizeMB int64
}

// Request carries the user's partition sizing. RootMB nil means "as large
// as possible within the available space and the 512MB ceiling".
type Request struct {
	SwapMB int64
	RootMB *int64
	Extras []ExtraRequest
}

// Plan is a computed RISC iX layout. All cylinder values are FileCore
// cylinders relative to the start of the target partition; the table
// entries themselves use doubled (256-byte-sector) cylinder units.
type Plan struct {
	// Target is the RISC OS partition that carries the RISC iX
	// descriptor. Its boot block has the descriptor set by PlanLayout.
	Target *Partition
	// NewTable is true when no partition table existed before.
	NewTable bool
	// StartCylinder is where the partition table itself goes.
	StartCylinder int64
	CylinderSize  int64
	Table         *riscix.Table
	// Erased names the RISC OS partitions whose space is reclaimed.
	Erased []string
	// Unused is what remains at the end of the image, in bytes.
	Unused int64
}

// PlanLayout computes cylinder-aligned placements for a RISC iX partition
// table, root and swap partitions, and any extra partitions, in the space
// following (or reclaimed from all but the first of) the discovered RISC
// OS partitions. On success the first partition's boot block has its RISC
// iX descriptor pointed at the table.
func PlanLayout(partitions []Partition, imageSize int64, req Request) (*Plan, error) {
	if len(partitions) == 0 {
		return nil, ErrNoPartitions
	}

	// The first RISC OS partition must carry the RISC iX descriptor.
	target := &partitions[0]
	discrec := &target.BootBlock.DiscRecord
	cylSize := discrec.CylinderSize()

	plan := &Plan{Target: target, CylinderSize: cylSize}

	var startCyl int64
	if target.BootBlock.RiscixCylinder != nil {
		// Keep the recorded location; the existing table is replaced
		// wholesale.
		startCyl = int64(*target.BootBlock.RiscixCylinder) / 2
		log.Debugf("plan: reusing RISC iX partition table at cylinder %d", startCyl)
	} else {
		plan.NewTable = true
		unused := imageSize - target.Offset - int64(discrec.Size)
		switch {
		case len(partitions) == 1 && unused > minUnusedForTable:
			// Empty space following the RISC OS partition.
			log.Debugf("plan: using %d unused bytes at end of image", unused)
		case len(partitions) >= 2:
			// All partitions after the first are sacrificed.
			for _, p := range partitions[1:] {
				plan.Erased = append(plan.Erased, p.BootBlock.DiscRecord.Name())
			}
		default:
			return nil, ErrInsufficientSpace
		}

		// The table goes at the first cylinder boundary after the RISC
		// OS partition ends.
		startCyl = (int64(discrec.Size) + cylSize - 1) / cylSize
		cylinder := uint16(startCyl * 2)
		target.BootBlock.RiscixCylinder = &cylinder
	}
	plan.StartCylinder = startCyl

	maxRootBytes := int64(maxRiscosPlusRoot) - int64(discrec.Size)

	// Whole cylinders between the table start and the end of the image.
	totalCyls := (imageSize - startCyl*cylSize) / cylSize

	swapCyls := req.SwapMB * mib / cylSize

	extraCyls := make([]int64, len(req.Extras))
	var totalExtraCyls int64
	for i, extra := range req.Extras {
		extraCyls[i] = (extra.SizeMB*mib + cylSize - 1) / cylSize
		totalExtraCyls += extraCyls[i]
	}

	// Root starts at the next cylinder boundary after the table, which
	// occupies one cylinder of its own.
	rootStartCyl := startCyl + 1
	var rootCyls int64
	if req.RootMB == nil {
		rootCyls = totalCyls - swapCyls - totalExtraCyls - 1
		if maxCyls := maxRootBytes / cylSize; rootCyls > maxCyls {
			rootCyls = maxCyls
		}
	} else {
		rootCyls = *req.RootMB * mib / cylSize
	}

	// ... followed by swap, then the extras in request order.
	swapStartCyl := rootStartCyl + rootCyls
	nextCyl := swapStartCyl + swapCyls
	for _, cyls := range extraCyls {
		nextCyl += cyls
	}

	plan.Unused = imageSize - (target.Offset + nextCyl*cylSize)
	if plan.Unused < 0 {
		return nil, &DoesNotFitError{
			Total:     (nextCyl - startCyl) * cylSize,
			Available: imageSize - target.Offset - startCyl*cylSize,
		}
	}
	if rootCyls*cylSize < minRootBytes {
		return nil, ErrRootTooSmall
	}
	if rootCyls*cylSize+int64(discrec.Size) > maxRiscosPlusRoot {
		return nil, &RootExceedsLimitError{MaxRootBytes: maxRootBytes}
	}

	// Entry order is what the RISC iX kernel sees: root, swap, extras.
	table := &riscix.Table{Partitions: []riscix.Partition{
		{Name: "Root", StartCylinder: uint32(rootStartCyl * 2), NumCylinders: uint32(rootCyls * 2)},
		{Name: "Swap", StartCylinder: uint32(swapStartCyl * 2), NumCylinders: uint32(swapCyls * 2)},
	}}
	entryCyl := swapStartCyl + swapCyls
	for i, extra := range req.Extras {
		table.Partitions = append(table.Partitions, riscix.Partition{
			Name:          extra.Name,
			StartCylinder: uint32(entryCyl * 2),
			NumCylinders:  uint32(extraCyls[i] * 2),
		})
		entryCyl += extraCyls[i]
	}
	plan.Table = table
	return plan, nil
}
