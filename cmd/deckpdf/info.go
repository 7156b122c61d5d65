package main

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/porticus-lab/go-deck-pdf/internal/pdf"
)

func newInfoCmd() *cobra.Command {
	var (
		pageRange string
		asJSON    bool
	)
	cmd := &cobra.Command{
		Use:   "info <file.pdf>",
		Short: "Show page sizes and embedded slide images of a PDF",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInfo(cmd, args[0], pageRange, asJSON)
		},
	}
	cmd.Flags().StringVarP(&pageRange, "pages", "p", "", `page range, e.g. "1", "1-5", "1,3,5" (default: all)`)
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of text")
	return cmd
}

type pageReport struct {
	Page     int             `json:"page"`
	Width    float64         `json:"width"`
	Height   float64         `json:"height"`
	Rotation int             `json:"rotation,omitempty"`
	Images   []pdf.ImageInfo `json:"images"`
}

type fileReport struct {
	File    string       `json:"file"`
	Version string       `json:"version"`
	Pages   int          `json:"pages"`
	Details []pageReport `json:"details"`
}

func runInfo(cmd *cobra.Command, inputFile, pageRange string, asJSON bool) error {
	doc, err := pdf.Open(inputFile)
	if err != nil {
		return fmt.Errorf("opening %s: %w", inputFile, err)
	}
	info, err := doc.Inspect()
	if err != nil {
		return fmt.Errorf("reading pages: %w", err)
	}
	indices, err := parsePageRange(pageRange, len(info.Pages))
	if err != nil {
		return fmt.Errorf("invalid page range %q: %w", pageRange, err)
	}

	report := fileReport{File: inputFile, Version: info.Version, Pages: len(info.Pages)}
	for _, i := range indices {
		p := info.Pages[i]
		images := p.Images
		if images == nil {
			images = []pdf.ImageInfo{}
		}
		report.Details = append(report.Details, pageReport{
			Page: i + 1, Width: p.Width, Height: p.Height, Rotation: p.Rotation, Images: images,
		})
	}

	out := cmd.OutOrStdout()
	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}

	fmt.Fprintf(out, "File:    %s\n", report.File)
	fmt.Fprintf(out, "Version: PDF-%s\n", report.Version)
	fmt.Fprintf(out, "Pages:   %d\n", report.Pages)
	if len(report.Details) == 0 {
		return nil
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Pages:")
	for _, i := range indices {
		p := info.Pages[i]
		fmt.Fprintf(out, "  Page %d: %s", i+1, p)
		if p.Rotation != 0 {
			fmt.Fprintf(out, " (rotated %d°)", p.Rotation)
		}
		fmt.Fprintln(out)
		for _, img := range p.Images {
			fmt.Fprintf(out, "    %s: %dx%d px", img.Name, img.Width, img.Height)
			if img.Filter != "" {
				fmt.Fprintf(out, " (%s)", img.Filter)
			}
			fmt.Fprintln(out)
		}
	}
	return nil
}

// parsePageRange converts a page range to 0-based page indices.
// Supported forms: "" (all), "3", "1-5" and "1,3,5".
func parsePageRange(pages string, total int) ([]int, error) {
	if pages == "" {
		indices := make([]int, total)
		for i := range indices {
			indices[i] = i
		}
		return indices, nil
	}

	var indices []int
	seen := make(map[int]bool)
	add := func(p int) {
		if !seen[p] {
			indices = append(indices, p-1)
			seen[p] = true
		}
	}

	for _, part := range strings.Split(pages, ",") {
		part = strings.TrimSpace(part)
		lo, hi, isRange := strings.Cut(part, "-")
		if !isRange {
			p, err := strconv.Atoi(part)
			if err != nil {
				return nil, fmt.Errorf("invalid page number: %s", part)
			}
			if p < 1 || p > total {
				return nil, fmt.Errorf("page %d out of bounds (1-%d)", p, total)
			}
			add(p)
			continue
		}
		start, err := strconv.Atoi(strings.TrimSpace(lo))
		if err != nil {
			return nil, fmt.Errorf("invalid page number: %s", lo)
		}
		end, err := strconv.Atoi(strings.TrimSpace(hi))
		if err != nil {
			return nil, fmt.Errorf("invalid page number: %s", hi)
		}
		if start < 1 || end > total || start > end {
			return nil, fmt.Errorf("page range %d-%d out of bounds (1-%d)", start, end, total)
		}
		for p := start; p <= end; p++ {
			add(p)
		}
	}
	return indices, nil
}
