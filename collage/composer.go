package collage

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"folklorovich/types"
)

var (
	// ErrInsufficientMedia means fewer images than the chosen layout needs
	ErrInsufficientMedia = errors.New("not enough images for collage")

	// ErrComposition means ffmpeg failed or produced an unusable collage
	ErrComposition = errors.New("collage composition failed")
)

// minCollageBytes rejects collages that are effectively blank
const minCollageBytes = 10 * 1024

// Composer arranges fetched images into one vertical visual
type Composer interface {
	Compose(ctx context.Context, assets []types.MediaAsset, layoutHint string) (types.VisualAsset, error)
}

// FFmpegComposer builds a 9:16 collage by cropping each image to its cell
// and stacking the cells with ffmpeg.
type FFmpegComposer struct {
	width     int
	height    int
	minImages int
	outDir    string
}

// NewFFmpegComposer returns a composer producing width x height collages
func NewFFmpegComposer(width, height, minImages int, outDir string) *FFmpegComposer {
	return &FFmpegComposer{width: width, height: height, minImages: minImages, outDir: outDir}
}

// Compose builds the collage. layoutHint selects a template; unknown hints
// fall back to a plain vertical stack.
func (c *FFmpegComposer) Compose(ctx context.Context, assets []types.MediaAsset, layoutHint string) (types.VisualAsset, error) {
	if len(assets) < c.minImages {
		return types.VisualAsset{}, fmt.Errorf("%w: have %d, need %d", ErrInsufficientMedia, len(assets), c.minImages)
	}
	if err := os.MkdirAll(c.outDir, 0755); err != nil {
		return types.VisualAsset{}, fmt.Errorf("create collage dir: %w", err)
	}

	layout := normalizeLayout(layoutHint)
	outFile := filepath.Join(c.outDir, "collage.png")

	log.Printf("[collage] composing %d images, layout %q", len(assets), layout)

	args, err := c.buildArgs(assets, layout, outFile)
	if err != nil {
		return types.VisualAsset{}, err
	}

	cmd := exec.CommandContext(ctx, "ffmpeg", args...)
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return types.VisualAsset{}, fmt.Errorf("%w: ffmpeg: %v", ErrComposition, err)
	}

	info, err := os.Stat(outFile)
	if err != nil {
		return types.VisualAsset{}, fmt.Errorf("%w: output missing: %v", ErrComposition, err)
	}
	if info.Size() < minCollageBytes {
		return types.VisualAsset{}, fmt.Errorf("%w: output too small (%d bytes)", ErrComposition, info.Size())
	}

	log.Printf("[collage] ✅ collage ready: %s (%d KB)", outFile, info.Size()/1024)
	return types.VisualAsset{
		Path:        outFile,
		SizeBytes:   info.Size(),
		Layout:      layout,
		SourceCount: len(assets),
	}, nil
}

func normalizeLayout(hint string) string {
	switch strings.TrimSpace(hint) {
	case "hero_top", "hero_bottom", "vertical_stack":
		return hint
	default:
		return "vertical_stack"
	}
}

// buildArgs produces the full ffmpeg invocation for the layout. Every cell
// is filled by scale-to-cover plus a center crop.
func (c *FFmpegComposer) buildArgs(assets []types.MediaAsset, layout, outFile string) ([]string, error) {
	args := []string{"-y"}
	for _, asset := range assets[:3] {
		args = append(args, "-i", asset.Path)
	}

	var filter string
	switch layout {
	case "hero_top":
		// Large image on top, two halves below
		heroH := c.height * 2 / 3
		cellH := c.height - heroH
		cellW := c.width / 2
		filter = fmt.Sprintf(
			"%s%s%s[s1][s2]hstack=inputs=2[row];[s0][row]vstack=inputs=2[out]",
			cell(0, c.width, heroH), cell(1, cellW, cellH), cell(2, cellW, cellH),
		)
	case "hero_bottom":
		heroH := c.height * 2 / 3
		cellH := c.height - heroH
		cellW := c.width / 2
		filter = fmt.Sprintf(
			"%s%s%s[s0][s1]hstack=inputs=2[row];[row][s2]vstack=inputs=2[out]",
			cell(0, cellW, cellH), cell(1, cellW, cellH), cell(2, c.width, heroH),
		)
	case "vertical_stack":
		cellH := c.height / 3
		filter = fmt.Sprintf(
			"%s%s%s[s0][s1][s2]vstack=inputs=3[out]",
			cell(0, c.width, cellH), cell(1, c.width, cellH), cell(2, c.width, cellH),
		)
	default:
		return nil, fmt.Errorf("%w: unknown layout %q", ErrComposition, layout)
	}

	args = append(args,
		"-filter_complex", filter,
		"-map", "[out]",
		"-frames:v", "1",
		outFile,
	)
	return args, nil
}

// cell scales input i to cover w x h and center-crops the overflow
func cell(i, w, h int) string {
	return fmt.Sprintf("[%d:v]scale=%d:%d:force_original_aspect_ratio=increase,crop=%d:%d[s%d];", i, w, h, w, h, i)
}
