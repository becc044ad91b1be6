// Command ntfsrecon is the thin CLI surface over the core
// reconstructor: open an image, feed every sector to the scanner,
// enumerate the recovered partitions, print the rebuilt tree and
// optionally restore a subtree to disk. It exists only to exercise
// internal/ntfs end-to-end; none of the reconstruction logic lives
// here.
package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/shubham/ntfsrecon/internal/disk"
	"github.com/shubham/ntfsrecon/internal/ntfs"
)

func main() {
	var (
		image      = flag.String("image", "", "Path to the raw volume image or block device")
		verbose    = flag.Bool("v", false, "Enable debug logging")
		locate     = flag.String("locate", "", "List files whose name contains this substring")
		restoreID  = flag.String("restore", "", "File index (record number or record:stream) to restore")
		restoreTo  = flag.String("out", "./recovered", "Destination directory for -restore")
		partitionN = flag.Int("partition", 0, "Index into the discovered partition list (0-based) to operate on")
	)
	flag.Parse()

	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if *verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	if *image == "" {
		fmt.Println("Usage: ntfsrecon -image <path> [-locate <substring>] [-restore <index> -out <dir>] [-partition <n>] [-v]")
		os.Exit(1)
	}

	img, err := disk.Open(*image)
	if err != nil {
		log.Fatal().Err(err).Str("image", *image).Msg("could not open image")
	}
	defer img.Close()

	recon := ntfs.GetPartitions(img)
	if len(recon.Partitions) == 0 {
		fmt.Println("no NTFS partitions found")
		return
	}

	fmt.Printf("found %d partition(s)\n", len(recon.Partitions))
	for i, part := range recon.Partitions {
		fmt.Printf("[%d] offset=%d recoverable=%v sec_per_clus=%d size=%s files=%d\n",
			i, part.Offset, part.Recoverable, part.SectorsPerClus,
			humanize.Bytes(uint64(part.Size)), len(part.Files))
	}

	if *partitionN < 0 || *partitionN >= len(recon.Partitions) {
		log.Fatal().Int("partition", *partitionN).Msg("partition index out of range")
	}
	part := recon.Partitions[*partitionN]

	if *locate != "" {
		for _, f := range part.Locate(*locate) {
			fmt.Println(f.FullPath())
		}
		return
	}

	if *restoreID != "" {
		target := findByIndex(part, *restoreID)
		if target == nil {
			log.Fatal().Str("index", *restoreID).Msg("no such file index in this partition")
		}
		if err := ntfs.RestoreTree(img, part, target, *restoreTo); err != nil {
			log.Fatal().Err(err).Msg("restore failed")
		}
		fmt.Printf("restored %s to %s\n", target.FullPath(), *restoreTo)
		return
	}

	printTree(part, part.Root, "")
}

func findByIndex(part *ntfs.Partition, idx string) *ntfs.File {
	if f, ok := part.Files[ntfs.FileIndex(idx)]; ok {
		return f
	}
	if n, err := strconv.ParseUint(idx, 10, 64); err == nil {
		if f, ok := part.Files[ntfs.FileIndex(fmt.Sprintf("%d", n))]; ok {
			return f
		}
	}
	return nil
}

func printTree(part *ntfs.Partition, node *ntfs.File, prefix string) {
	if node == nil {
		return
	}
	for _, name := range node.SortedChildNames() {
		child := node.Children[name]
		marker := ""
		switch {
		case child.Ghost:
			marker = " (ghost)"
		case child.Orphan:
			marker = " (lost)"
		}
		if child.IsDeleted {
			marker += " (deleted)"
		}
		fmt.Printf("%s%s%s\n", prefix, name, marker)
		if child.IsDirectory {
			printTree(part, child, prefix+"  ")
		}
	}
}
