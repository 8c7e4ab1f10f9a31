package main

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"text/tabwriter"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/btrfsforensic/core/btrfs"
	"github.com/btrfsforensic/core/btrfsprim"
	"github.com/btrfsforensic/core/btrfstree"
	"github.com/btrfsforensic/core/logging"
)

// wellKnownTrees lists the trees ls-trees walks by default; a live
// filesystem may define more (subvolumes, relocation trees) but those
// require first reading ROOT_TREE, which is out of scope for this
// summary command.
var wellKnownTrees = []btrfsprim.ObjID{
	btrfsprim.RootTreeObjectID,
	btrfsprim.ExtentTreeObjectID,
	btrfsprim.ChunkTreeObjectID,
	btrfsprim.DevTreeObjectID,
	btrfsprim.FSTreeObjectID,
	btrfsprim.CSumTreeObjectID,
	btrfsprim.UUIDTreeObjectID,
	btrfsprim.FreeSpaceTreeObjectID,
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "btrfswalk: error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	levelFlag := logging.LevelFlag{Level: logrus.InfoLevel}

	root := &cobra.Command{
		Use:   "btrfswalk",
		Short: "Inspect an unmounted btrfs filesystem without modifying it",

		SilenceErrors: true,
		SilenceUsage:  true,
	}
	root.PersistentFlags().Var(&levelFlag, "verbosity", "log level: trace, debug, info, warn, error")

	root.AddCommand(newSuperCommand(&levelFlag))
	root.AddCommand(newLsTreesCommand(&levelFlag))
	root.AddCommand(newSearchCommand(&levelFlag))

	return root
}

func openFS(levelFlag *logging.LevelFlag, devices []string) (*btrfs.FS, *logrus.Logger, error) {
	logger := logging.New(os.Stderr, levelFlag.Level)
	if len(devices) == 0 {
		return nil, logger, fmt.Errorf("at least one --device is required")
	}
	fs, err := btrfs.Open(devices...)
	if err != nil {
		return nil, logger, err
	}
	return fs, logger, nil
}

func newSuperCommand(levelFlag *logging.LevelFlag) *cobra.Command {
	var devices []string
	cmd := &cobra.Command{
		Use:   "super",
		Short: "Print the chosen superblock's summary fields",
		RunE: func(cmd *cobra.Command, args []string) error {
			fs, logger, err := openFS(levelFlag, devices)
			if err != nil {
				return err
			}
			defer func() {
				if err := fs.Close(); err != nil {
					logger.WithError(err).Warn("close")
				}
			}()

			sb := fs.Superblock()
			table := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 8, 2, ' ', 0)
			fmt.Fprintf(table, "fsid\t%v\n", sb.FSUUID)
			fmt.Fprintf(table, "generation\t%d\n", sb.Generation)
			fmt.Fprintf(table, "nodesize\t%d\n", sb.NodeSize)
			fmt.Fprintf(table, "sectorsize\t%d\n", sb.SectorSize)
			fmt.Fprintf(table, "num_devices\t%d\n", sb.NumDevices)
			fmt.Fprintf(table, "total_bytes\t%d\n", sb.TotalBytes)
			fmt.Fprintf(table, "bytes_used\t%d\n", sb.BytesUsed)
			fmt.Fprintf(table, "root_tree\t%v\n", sb.RootTree)
			fmt.Fprintf(table, "chunk_tree\t%v\n", sb.ChunkTree)
			fmt.Fprintf(table, "csum_type\t%v\n", sb.ChecksumType)
			return table.Flush()
		},
	}
	cmd.Flags().StringArrayVar(&devices, "device", nil, "open `path` as a member device (repeatable)")
	return cmd
}

func newLsTreesCommand(levelFlag *logging.LevelFlag) *cobra.Command {
	var devices []string
	cmd := &cobra.Command{
		Use:   "ls-trees",
		Short: "Walk the well-known trees and print per-item-type counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			fs, logger, err := openFS(levelFlag, devices)
			if err != nil {
				return err
			}
			defer func() {
				if err := fs.Close(); err != nil {
					logger.WithError(err).Warn("close")
				}
			}()

			for _, treeID := range wellKnownTrees {
				results, err := fs.TreeSearchAll(treeID, btrfstree.SearchOption{
					MinKey: btrfsprim.MinKeyVal,
					MaxKey: btrfsprim.MaxKeyVal,
				})
				if err != nil {
					logger.WithError(err).WithField("tree", treeID).Warn("skipping tree")
					continue
				}

				counts := make(map[btrfsprim.ItemType]int)
				for _, r := range results {
					counts[r.Item.Key.ItemType]++
				}

				fmt.Fprintf(cmd.OutOrStdout(), "tree id=%v\n", treeID)
				table := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 8, 2, ' ', 0)
				var types []btrfsprim.ItemType
				for t := range counts {
					types = append(types, t)
				}
				sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
				for _, t := range types {
					fmt.Fprintf(table, "        %v items\t%s\n", t, strconv.Itoa(counts[t]))
				}
				fmt.Fprintf(table, "        total items\t%s\n", strconv.Itoa(len(results)))
				table.Flush()
			}
			return nil
		},
	}
	cmd.Flags().StringArrayVar(&devices, "device", nil, "open `path` as a member device (repeatable)")
	return cmd
}

func newSearchCommand(levelFlag *logging.LevelFlag) *cobra.Command {
	var devices []string
	var treeID uint64
	var objectID uint64
	cmd := &cobra.Command{
		Use:   "search",
		Short: "Print every item of a given object ID within one tree",
		RunE: func(cmd *cobra.Command, args []string) error {
			fs, logger, err := openFS(levelFlag, devices)
			if err != nil {
				return err
			}
			defer func() {
				if err := fs.Close(); err != nil {
					logger.WithError(err).Warn("close")
				}
			}()

			results, err := fs.TreeSearchAll(btrfsprim.ObjID(treeID), btrfstree.SearchOption{
				MinKey: btrfsprim.Key{ObjectID: btrfsprim.ObjID(objectID), ItemType: btrfsprim.MinKey, Offset: 0},
				MaxKey: btrfsprim.Key{ObjectID: btrfsprim.ObjID(objectID), ItemType: btrfsprim.MaxKey, Offset: ^uint64(0)},
			})
			if err != nil {
				return err
			}
			for _, r := range results {
				fmt.Fprintf(cmd.OutOrStdout(), "%v -> %T\n", r.Item.Key, r.Item.Body)
			}
			return nil
		},
	}
	cmd.Flags().StringArrayVar(&devices, "device", nil, "open `path` as a member device (repeatable)")
	cmd.Flags().Uint64Var(&treeID, "tree", uint64(btrfsprim.FSTreeObjectID), "tree object ID to search")
	cmd.Flags().Uint64Var(&objectID, "object", 0, "object ID to search for within the tree")
	return cmd
}
