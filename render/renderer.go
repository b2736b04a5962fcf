package render

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math"
	"os"
	"os/exec"
	"path/filepath"

	"folklorovich/types"
)

var (
	// ErrRender means ffmpeg failed to produce the video
	ErrRender = errors.New("video render failed")

	// ErrRenderValidation means the rendered artifact exists but is wrong:
	// duration drifted from the narration or the file is implausibly small.
	ErrRenderValidation = errors.New("rendered video failed validation")
)

// Renderer combines the composed visual and the narration audio into the
// final vertical video.
type Renderer interface {
	Render(ctx context.Context, visual types.VisualAsset, audio types.AudioAsset) (types.VideoAsset, error)
}

// FFmpegRenderer loops the collage under a slow zoom for the full narration
// length and muxes in the audio.
type FFmpegRenderer struct {
	fps          int
	toleranceSec float64
	minSizeBytes int64
	outDir       string
}

// NewFFmpegRenderer returns a renderer writing into outDir
func NewFFmpegRenderer(fps int, toleranceSec float64, minSizeBytes int64, outDir string) *FFmpegRenderer {
	return &FFmpegRenderer{fps: fps, toleranceSec: toleranceSec, minSizeBytes: minSizeBytes, outDir: outDir}
}

// Render produces the final MP4 and validates it against the narration
func (r *FFmpegRenderer) Render(ctx context.Context, visual types.VisualAsset, audio types.AudioAsset) (types.VideoAsset, error) {
	if err := os.MkdirAll(r.outDir, 0755); err != nil {
		return types.VideoAsset{}, fmt.Errorf("create video dir: %w", err)
	}
	outFile := filepath.Join(r.outDir, "final_video.mp4")

	log.Printf("[render] rendering %.1fs video from %s", audio.DurationSec, visual.Path)

	totalFrames := int(audio.DurationSec * float64(r.fps))
	if totalFrames <= 0 {
		return types.VideoAsset{}, fmt.Errorf("%w: narration duration %.2fs", ErrRender, audio.DurationSec)
	}

	// Slow zoom keeps a single collage from feeling static for 30 seconds
	zoomFilter := fmt.Sprintf(
		"scale=2160:3840,zoompan=z='min(zoom+0.0004,1.12)':x='iw/2-(iw/zoom/2)':y='ih/2-(ih/zoom/2)':d=%d:fps=%d,scale=1080:1920,setsar=1",
		totalFrames, r.fps,
	)

	cmd := exec.CommandContext(ctx, "ffmpeg", "-y",
		"-loop", "1",
		"-i", visual.Path,
		"-i", audio.Path,
		"-vf", zoomFilter,
		"-t", fmt.Sprintf("%.3f", audio.DurationSec),
		"-c:v", "libx264",
		"-preset", "fast",
		"-crf", "22",
		"-pix_fmt", "yuv420p",
		"-c:a", "aac",
		"-b:a", "192k",
		"-shortest",
		"-movflags", "+faststart",
		outFile,
	)
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return types.VideoAsset{}, fmt.Errorf("%w: ffmpeg: %v", ErrRender, err)
	}

	videoDur, sizeBytes, err := probeVideo(outFile)
	if err != nil {
		return types.VideoAsset{}, fmt.Errorf("%w: probe output: %v", ErrRender, err)
	}
	if err := validateArtifact(videoDur, audio.DurationSec, sizeBytes, r.toleranceSec, r.minSizeBytes); err != nil {
		return types.VideoAsset{}, err
	}

	log.Printf("[render] ✅ video ready: %s (%.1fs, %.1f MB)", outFile, videoDur, float64(sizeBytes)/(1024*1024))
	return types.VideoAsset{Path: outFile, DurationSec: videoDur, SizeBytes: sizeBytes}, nil
}

// validateArtifact checks the rendered duration against the narration within
// tolerance and rejects implausibly small files.
func validateArtifact(videoSec, audioSec float64, sizeBytes int64, toleranceSec float64, minSizeBytes int64) error {
	if sizeBytes < minSizeBytes {
		return fmt.Errorf("%w: file only %d bytes (minimum %d)", ErrRenderValidation, sizeBytes, minSizeBytes)
	}
	if drift := math.Abs(videoSec - audioSec); drift > toleranceSec {
		return fmt.Errorf("%w: duration %.1fs vs narration %.1fs (drift %.1fs, tolerance %.1fs)",
			ErrRenderValidation, videoSec, audioSec, drift, toleranceSec)
	}
	return nil
}

type probeOutput struct {
	Format struct {
		Duration string `json:"duration"`
		Size     string `json:"size"`
	} `json:"format"`
}

// probeVideo returns the container duration and byte size via ffprobe
func probeVideo(path string) (float64, int64, error) {
	out, err := exec.Command("ffprobe",
		"-v", "error",
		"-show_entries", "format=duration,size",
		"-of", "json",
		path,
	).Output()
	if err != nil {
		return 0, 0, err
	}

	var parsed probeOutput
	if err := json.Unmarshal(out, &parsed); err != nil {
		return 0, 0, err
	}

	var dur float64
	if _, err := fmt.Sscanf(parsed.Format.Duration, "%f", &dur); err != nil {
		return 0, 0, fmt.Errorf("parse duration %q: %w", parsed.Format.Duration, err)
	}
	var size int64
	if _, err := fmt.Sscanf(parsed.Format.Size, "%d", &size); err != nil {
		return 0, 0, fmt.Errorf("parse size %q: %w", parsed.Format.Size, err)
	}
	return dur, size, nil
}
