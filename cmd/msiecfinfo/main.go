// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

// Command msiecfinfo is a thin front-end over the msiecf core: it opens an
// index.dat and prints a summary of the header, cache directories, and
// item counts. Output formatting, locale-aware string conversion, and
// cache-payload reconstruction are deliberately out of scope for the core
// this command wires into.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/libyal/libmsiecf-sub000"
)

var rootCmd = &cobra.Command{
	Use:   "msiecfinfo [index.dat]",
	Short: "Print information about an MSIE URL cache file",
	Args:  cobra.ExactArgs(1),
	RunE:  runInfo,
}

var recoveredFlag bool

func init() {
	rootCmd.Flags().BoolVar(&recoveredFlag, "recovered", false, "also list items recovered from unallocated space")
}

func runInfo(cmd *cobra.Command, args []string) error {
	f, err := msiecf.OpenFile(args[0], nil)
	if err != nil {
		return fmt.Errorf("opening %s: %w", args[0], err)
	}

	major, minor := f.FormatVersion()
	fmt.Printf("format version:\t%d.%d\n", major, minor)
	fmt.Printf("file size:\t%d\n", f.Size())
	fmt.Printf("cache directories:\t%d\n", f.NumCacheDirectories())
	for i := 0; i < f.NumCacheDirectories(); i++ {
		name, err := f.CacheDirectoryName(i)
		if err != nil {
			continue
		}
		fmt.Printf("  [%d] %s\n", i, trimNUL(name[:]))
	}

	fmt.Printf("unallocated ranges:\t%d\n", f.NumUnallocatedBlocks())
	fmt.Printf("items:\t%d\n", f.NumItems())

	for i := 0; i < f.NumItems(); i++ {
		item, err := f.Item(i)
		if err != nil {
			fmt.Fprintf(os.Stderr, "item %d: %v\n", i, err)
			continue
		}
		printItem(i, item)
	}

	if recoveredFlag {
		fmt.Printf("recovered items:\t%d\n", f.NumRecoveredItems())
		for i := 0; i < f.NumRecoveredItems(); i++ {
			item, err := f.RecoveredItem(i)
			if err != nil {
				fmt.Fprintf(os.Stderr, "recovered item %d: %v\n", i, err)
				continue
			}
			printItem(i, item)
		}
	}

	return nil
}

func printItem(i int, item *msiecf.Item) {
	fmt.Printf("  [%d] %s @ 0x%x (%d bytes)", i, item.Kind(), item.Offset(), item.Size())
	if item.Recovered() {
		fmt.Print(" recovered")
	}
	if item.Partial() {
		fmt.Print(" partial")
	}
	if item.Tainted() {
		fmt.Print(" tainted")
	}
	fmt.Println()

	switch {
	case item.URL != nil:
		if item.URL.Location != nil {
			if s, err := item.URL.Location.UTF8(); err == nil {
				fmt.Printf("      location: %s\n", s)
			}
		}
	case item.REDR != nil:
		if item.REDR.Location != nil {
			if s, err := item.REDR.Location.UTF8(); err == nil {
				fmt.Printf("      location: %s\n", s)
			}
		}
	case item.LEAK != nil:
		if item.LEAK.Filename != nil {
			if s, err := item.LEAK.Filename.UTF8(); err == nil {
				fmt.Printf("      filename: %s\n", s)
			}
		}
	}
}

func trimNUL(b []byte) string {
	for i, c := range b {
		if c == 0 {
			return string(b[:i])
		}
	}
	return string(b)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
