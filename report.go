package main

import (
	"fmt"

	"github.com/rhalkyard/riscix-hccs/image"
	"github.com/rhalkyard/riscix-hccs/riscix"
)

// printRiscosPartitions reports the discovered RISC OS partitions, with a
// trailing row for the RISC iX area or unused tail of the image.
func printRiscosPartitions(partitions []image.Partition, imageSize int64) {
	fmt.Printf("    %-10s %-8s %-6s %-8s\n", "NAME", "OFFSET", "MB", "RISC IX CYL.")
	for _, p := range partitions {
		discrec := &p.BootBlock.DiscRecord
		riscixCyl := "-"
		if p.BootBlock.RiscixCylinder != nil {
			riscixCyl = fmt.Sprintf("%d", *p.BootBlock.RiscixCylinder/2)
		}
		fmt.Printf("    %-10s %-8x %-6.2f %-8s\n",
			discrec.Name(), p.Offset, float64(discrec.Size)/1024/1024, riscixCyl)
	}

	var unusedStart int64
	if len(partitions) > 0 {
		last := partitions[len(partitions)-1]
		unusedStart = last.Offset + int64(last.BootBlock.DiscRecord.Size)
	}

	unusedMB := float64(imageSize-unusedStart) / 1024 / 1024
	if len(partitions) > 0 && partitions[len(partitions)-1].BootBlock.RiscixCylinder != nil {
		fmt.Printf("    %-10s %-8x %-6.2f -\n", "[RISC iX]", unusedStart, unusedMB)
	} else if imageSize-unusedStart > 0 {
		fmt.Printf("    %-10s %-8x %-6.2f -\n", "[unused]", unusedStart, unusedMB)
	}
}

// printRiscixPartitions reports a RISC iX partition table. Cylinder values
// in the table are in 256-byte-sector units, double the FileCore cylinder
// numbers shown here.
func printRiscixPartitions(table *riscix.Table, cylSize int64) {
	fmt.Printf("    %-16s %-6s %-6s %-6s\n", "NAME", "START", "CYLS", "MB")
	for _, p := range table.Partitions {
		fmt.Printf("    %-16s %-6d %-6d %-6.2f\n",
			p.Name, p.StartCylinder/2, p.NumCylinders/2,
			float64(int64(p.NumCylinders/2)*cylSize)/1024/1024)
	}
}
