// riscix-hccs creates a RISC iX partition table on an Armstrong-Walker
// IDEFS (HCCS IDE) disc image, in the space after, or reclaimed from, the
// RISC OS partitions already on it. Use it only on an image that has been
// freshly partitioned and contains no data you care about.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/rhalkyard/riscix-hccs/image"
)

var (
	yes     bool
	verbose bool
)

func init() {
	flag.BoolVar(&yes, "y", false, "Write partition table without prompting for review.")
	flag.BoolVar(&yes, "yes", false, "Write partition table without prompting for review.")
	flag.BoolVar(&verbose, "v", false, "Enable debug logging.")
}

func usage() {
	fmt.Printf("USAGE: %s [options] IMAGE [SWAP-MB [ROOT-MB]] [NAME=SIZE-MB ...]\n\n",
		filepath.Base(os.Args[0]))
	fmt.Printf("  IMAGE       Armstrong-Walker IDEFS disc image (a file, or an Azure\n")
	fmt.Printf("              page blob SAS URL for read-only inspection)\n")
	fmt.Printf("  SWAP-MB     Size of swap partition in MB (default: 20)\n")
	fmt.Printf("  ROOT-MB     Size of root partition in MB (default: as large as possible)\n")
	fmt.Printf("  NAME=SIZE   Additional partitions to create\n\n")
	fmt.Printf("Options:\n")
	flag.PrintDefaults()
}

func main() {
	flag.Usage = usage
	flag.Parse()

	log.SetFormatter(&log.TextFormatter{DisableTimestamp: true})
	if verbose {
		log.SetLevel(log.DebugLevel)
	}

	args := flag.Args()
	if len(args) < 1 {
		usage()
		os.Exit(1)
	}
	imageArg := args[0]

	req, err := parseRequest(args[1:])
	if err != nil {
		fmt.Printf("%v\n", err)
		os.Exit(1)
	}

	remote := strings.HasPrefix(imageArg, "http://") || strings.HasPrefix(imageArg, "https://")

	var r io.ReadSeeker
	if remote {
		r = NewPageBlobReader(imageArg)
	} else {
		f, err := os.Open(imageArg)
		if err != nil {
			log.Fatalf("%v", err)
		}
		defer f.Close()
		r = f
	}

	imageSize, err := r.Seek(0, io.SeekEnd)
	if err != nil {
		log.Fatalf("%v", err)
	}

	partitions, err := image.Scan(r)
	if err != nil {
		log.Fatalf("%v", err)
	}

	fmt.Printf("Found %d RISC OS partitions:\n", len(partitions))
	printRiscosPartitions(partitions, imageSize)

	if len(partitions) == 0 {
		fmt.Printf("No RISC OS partitions recognised. Please partition the disc " +
			"with !IDEMgr first\n")
		os.Exit(1)
	}

	if remote {
		// Blob access is read-only; report what is there and stop.
		first := partitions[0]
		if first.RiscixPT != nil {
			fmt.Printf("Existing RISC iX partition table:\n")
			printRiscixPartitions(first.RiscixPT, first.BootBlock.DiscRecord.CylinderSize())
		}
		fmt.Printf("Remote images are inspected read-only; no changes made.\n")
		return
	}

	plan, err := image.PlanLayout(partitions, imageSize, req)
	if err != nil {
		fmt.Printf("ERROR: %v\n", err)
		os.Exit(1)
	}

	target := plan.Target
	discrec := &target.BootBlock.DiscRecord
	if plan.NewTable {
		fmt.Printf("No existing RISC iX partition table found.\n")
		if len(plan.Erased) > 0 {
			fmt.Printf("The following RISC OS partitions will be erased and used "+
				"for RISC iX: %s\n", strings.Join(plan.Erased, ", "))
		} else {
			fmt.Printf("Using unused space at end of image for RISC iX\n")
		}
	} else {
		fmt.Printf("Using existing RISC iX partition table (linked from '%s') at "+
			"cylinder %d (will be replaced):\n", discrec.Name(), plan.StartCylinder)
		printRiscixPartitions(target.RiscixPT, plan.CylinderSize)
	}

	fmt.Printf("RISC iX partition descriptor will be added to RISC OS partition '%s'\n",
		discrec.Name())
	fmt.Printf("RISC iX partition table will be at cylinder %d relative to RISC OS partition\n",
		plan.StartCylinder)
	fmt.Printf("RISC iX partition table:\n")
	printRiscixPartitions(plan.Table, plan.CylinderSize)

	if plan.Unused > 0 {
		fmt.Printf("%.2fMB unused at end of disc\n", float64(plan.Unused)/1024/1024)
	}

	if !yes && !confirm() {
		os.Exit(0)
	}

	f, err := os.OpenFile(imageArg, os.O_RDWR, 0)
	if err != nil {
		log.Fatalf("%v", err)
	}
	defer f.Close()
	if err := image.Commit(f, plan); err != nil {
		log.Fatalf("%v", err)
	}
}

// parseRequest interprets the positional size arguments: an optional swap
// size, an optional root size, then any number of name=size pairs.
func parseRequest(args []string) (image.Request, error) {
	req := image.Request{SwapMB: 20}

	if len(args) > 0 && !strings.Contains(args[0], "=") {
		swap, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return req, fmt.Errorf("invalid swap size %q", args[0])
		}
		req.SwapMB = swap
		args = args[1:]
	}
	if len(args) > 0 && !strings.Contains(args[0], "=") {
		root, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return req, fmt.Errorf("invalid root size %q", args[0])
		}
		req.RootMB = &root
		args = args[1:]
	}
	for _, arg := range args {
		name, sizeStr, found := strings.Cut(arg, "=")
		if !found || name == "" {
			return req, fmt.Errorf("invalid partition spec %q (want name=size-MB)", arg)
		}
		size, err := strconv.ParseInt(sizeStr, 10, 64)
		if err != nil {
			return req, fmt.Errorf("invalid size in partition spec %q", arg)
		}
		req.Extras = append(req.Extras, image.ExtraRequest{Name: name, SizeMB: size})
	}
	return req, nil
}

func confirm() bool {
	in := bufio.NewScanner(os.Stdin)
	for {
		fmt.Printf("OK to write to disc? y/n\n")
		if !in.Scan() {
			return false
		}
		switch strings.TrimSpace(in.Text()) {
		case "y":
			return true
		case "n":
			return false
		}
	}
}
