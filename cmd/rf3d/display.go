package main

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/fatih/color"

	"github.com/wzqhbustb/radfield/radfield"
	"github.com/wzqhbustb/radfield/storage/dtype"
	"github.com/wzqhbustb/radfield/storage/format"
)

var (
	colorLabel     = color.New(color.FgYellow)
	colorHighlight = color.New(color.FgGreen)
)

func displayDType(w io.Writer, tag string) error {
	dt, err := dtype.Classify(tag)
	if err != nil {
		return err
	}
	canonical, _ := dtype.TypeName(dt)
	size := dtype.MustSizeOf(dt)

	fmt.Fprintf(w, "%-40q -> %s (%s, %d bytes)\n",
		tag, colorHighlight.Sprint(dt), canonical, size)
	return nil
}

func displayFileInfo(w io.Writer, path string, info *radfield.FileInfo) {
	h := info.Header
	version := format.VersionFromEncoded(h.Version)

	fmt.Fprintf(w, "%s %s\n", colorLabel.Sprint("file:"), path)
	fmt.Fprintf(w, "  %s %s\n", colorLabel.Sprint("id:      "), h.FieldID)
	fmt.Fprintf(w, "  %s %s (%s)\n", colorLabel.Sprint("version: "), version,
		strings.Join(format.FeaturesToStrings(version.FeatureFlags), ","))
	fmt.Fprintf(w, "  %s %v m, voxel %v m, %v voxels\n", colorLabel.Sprint("geometry:"),
		h.FieldDim, h.VoxelDim, h.VoxelCounts)
	fmt.Fprintf(w, "  %s %s\n", colorLabel.Sprint("channels:"), strings.Join(info.Channels, ", "))

	if len(info.Footer.Metadata) > 0 {
		fmt.Fprintf(w, "  %s\n", colorLabel.Sprint("metadata:"))
		keys := make([]string, 0, len(info.Footer.Metadata))
		for k := range info.Footer.Metadata {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(w, "    %s = %s\n", k, info.Footer.Metadata[k])
		}
	}

	paddingName := len("layer")
	for _, l := range info.Layers {
		if n := len(l.Channel) + 1 + len(l.Name); n > paddingName {
			paddingName = n
		}
	}

	fmt.Fprintf(w, "  %-*s  %-10s  %-6s  %-8s  %12s  %12s  %s\n",
		paddingName, "layer", "dtype", "bins", "encoding", "raw", "stored", "unit")
	for _, l := range info.Layers {
		fmt.Fprintf(w, "  %-*s  %s  %-6d  %-8s  %12d  %12d  %s\n",
			paddingName, l.Channel+"/"+l.Name,
			colorHighlight.Sprintf("%-10s", l.DType),
			l.Bins, l.Encoding, l.RawLen, l.PayloadLen, l.Unit)
	}
}
