package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/okian/delhihouse/internal/content"
	"github.com/okian/delhihouse/internal/domain/reveal"
)

var (
	revealInput    string
	revealOffset   float64
	revealViewport float64
	revealSections []string
	revealGeometry []string
)

var revealCmd = &cobra.Command{
	Use:   "reveal",
	Short: "Print the reveal frame for one scroll position",
	Long: `Computes the scroll reveal state of the configured content and prints it as
JSON. Handy for tuning breakpoint tables without a browser.

The request is read from --input (a JSON frame request, "-" for stdin) or built
from the flags. Geometry is given per section as id=top:height.

Example:
  delhihouse reveal --offset 3000 --viewport 1000 --section experience --geometry experience=-700:2000`,
	Args: cobra.NoArgs,
	RunE: runReveal,
}

func init() {
	f := revealCmd.Flags()
	f.StringVar(&revealInput, "input", "", `JSON frame request file, "-" for stdin`)
	f.Float64Var(&revealOffset, "offset", 0, "vertical scroll offset")
	f.Float64Var(&revealViewport, "viewport", 900, "viewport height")
	f.StringSliceVar(&revealSections, "section", nil, "limit the frame to these section ids")
	f.StringSliceVar(&revealGeometry, "geometry", nil, "section geometry as id=top:height")
}

func runReveal(cmd *cobra.Command, _ []string) error {
	c, err := content.Load(cfg.ContentFile)
	if err != nil {
		return err
	}
	bindings, err := c.Bindings()
	if err != nil {
		return err
	}

	req, err := revealRequest(cmd.InOrStdin())
	if err != nil {
		return err
	}
	selected, err := req.Select(bindings)
	if err != nil {
		return err
	}
	frame := reveal.Compute(req.Sample, selected, req.Geometry)

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(frame)
}

func revealRequest(stdin io.Reader) (reveal.Request, error) {
	var req reveal.Request
	if revealInput != "" {
		r := stdin
		if revealInput != "-" {
			f, err := os.Open(revealInput)
			if err != nil {
				return req, err
			}
			defer f.Close()
			r = f
		}
		if err := json.NewDecoder(r).Decode(&req); err != nil {
			return req, fmt.Errorf("decode frame request: %w", err)
		}
		return req, nil
	}

	req.Sample = reveal.Sample{OffsetY: revealOffset, ViewportHeight: revealViewport}
	req.Sections = revealSections
	req.Geometry = make(map[string]reveal.Rect, len(revealGeometry))
	for _, g := range revealGeometry {
		id, rect, err := parseGeometry(g)
		if err != nil {
			return req, err
		}
		req.Geometry[id] = rect
	}
	return req, nil
}

// parseGeometry parses id=top:height.
func parseGeometry(s string) (string, reveal.Rect, error) {
	id, dims, ok := strings.Cut(s, "=")
	if !ok || id == "" {
		return "", reveal.Rect{}, fmt.Errorf("geometry %q: want id=top:height", s)
	}
	top, height, ok := strings.Cut(dims, ":")
	if !ok {
		return "", reveal.Rect{}, fmt.Errorf("geometry %q: want id=top:height", s)
	}
	t, err := strconv.ParseFloat(top, 64)
	if err != nil {
		return "", reveal.Rect{}, fmt.Errorf("geometry %q: %w", s, err)
	}
	h, err := strconv.ParseFloat(height, 64)
	if err != nil {
		return "", reveal.Rect{}, fmt.Errorf("geometry %q: %w", s, err)
	}
	return id, reveal.Rect{Top: t, Height: h}, nil
}
