package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/arloliu/spanq/endian"
	"github.com/arloliu/spanq/frame"
)

func newInspectCmd() *cobra.Command {
	var maxRows int

	cmd := &cobra.Command{
		Use:   "inspect FILE",
		Short: "Decode an encoded frame and print its header and rows",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			f, header, err := frame.DecodeWithHeader(data)
			if err != nil {
				return err
			}

			byteOrder := "little-endian"
			if header.Flag.IsBigEndian() {
				byteOrder = "big-endian"
			}
			if endian.CompareNativeEndian(header.GetEndianEngine()) {
				byteOrder += " (native)"
			} else {
				byteOrder += " (swapped)"
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "file:        %s (%d bytes)\n", args[0], len(data))
			fmt.Fprintf(out, "compression: %s\n", header.Flag.GetCompression())
			fmt.Fprintf(out, "byte order:  %s\n", byteOrder)
			fmt.Fprintf(out, "payload:     %d bytes, checksum %016x\n", header.PayloadSize, header.Checksum)
			fmt.Fprintf(out, "window:      [%g, %g] s at %g s/px, bucket %d ps\n", f.Start, f.End, f.Resolution, f.BucketPs)
			fmt.Fprintf(out, "rows:        %d, strings: %d, fingerprint %016x\n", f.Len(), len(f.Strings), f.Fingerprint())

			n := f.Len()
			if maxRows >= 0 && n > maxRows {
				n = maxRows
			}
			for i := 0; i < n; i++ {
				flags := ""
				if f.IsInstant[i] == 1 {
					flags += " instant"
				}
				if f.IsIncomplete[i] == 1 {
					flags += " incomplete"
				}
				fmt.Fprintf(out, "%6d  id=%d [%g, %g) depth=%d %q %s%s\n",
					i, f.SliceIDs[i], f.Starts[i], f.Ends[i], f.Depths[i], f.Title(i), f.ColorKey(i), flags)
			}
			if n < f.Len() {
				fmt.Fprintf(out, "... %d more rows\n", f.Len()-n)
			}

			return nil
		},
	}
	cmd.Flags().IntVarP(&maxRows, "rows", "n", 20, "rows to print, -1 for all")

	return cmd
}
