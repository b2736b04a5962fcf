package voice

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"folklorovich/retry"
	"folklorovich/types"
)

// ErrSynthesis means the speech engine is missing, unreachable, or produced
// unusable audio.
var ErrSynthesis = errors.New("speech synthesis failed")

// Synthesizer turns narration text into an audio asset
type Synthesizer interface {
	Synthesize(ctx context.Context, text, voiceProfile string, targetSec float64) (types.AudioAsset, error)
}

// EdgeTTS shells out to the edge-tts CLI (free Microsoft neural voices) and
// measures the result with ffprobe.
type EdgeTTS struct {
	outDir string
	minSec float64
	maxSec float64
	policy retry.Policy
}

// NewEdgeTTS builds a synthesizer writing into outDir. Audio outside the
// [minSec, maxSec] duration window fails validation.
func NewEdgeTTS(outDir string, minSec, maxSec float64, policy retry.Policy) *EdgeTTS {
	return &EdgeTTS{outDir: outDir, minSec: minSec, maxSec: maxSec, policy: policy}
}

// Synthesize generates narration audio for text using the given voice profile
func (e *EdgeTTS) Synthesize(ctx context.Context, text, voiceProfile string, targetSec float64) (types.AudioAsset, error) {
	if strings.TrimSpace(text) == "" {
		return types.AudioAsset{}, fmt.Errorf("%w: empty narration text", ErrSynthesis)
	}
	if _, err := exec.LookPath("edge-tts"); err != nil {
		return types.AudioAsset{}, fmt.Errorf("%w: edge-tts not installed (pip install edge-tts)", ErrSynthesis)
	}
	if err := os.MkdirAll(e.outDir, 0755); err != nil {
		return types.AudioAsset{}, fmt.Errorf("create audio dir: %w", err)
	}

	profile := Resolve(voiceProfile)
	outFile := filepath.Join(e.outDir, "narration.mp3")

	log.Printf("[voice] synthesizing %d chars with %s (profile %q)", len(text), profile.Voice, voiceProfile)

	err := e.policy.Do(ctx, "speech synthesis", func() error {
		cmd := exec.CommandContext(ctx,
			"edge-tts",
			"--voice", profile.Voice,
			"--rate", profile.Rate,
			"--pitch", profile.Pitch,
			"--text", text,
			"--write-media", outFile,
		)
		cmd.Stderr = os.Stderr
		if err := cmd.Run(); err != nil {
			return retry.Transient(err)
		}
		return nil
	})
	if err != nil {
		return types.AudioAsset{}, fmt.Errorf("%w: %v", ErrSynthesis, err)
	}

	dur, err := probeDuration(outFile)
	if err != nil {
		return types.AudioAsset{}, fmt.Errorf("%w: measure duration: %v", ErrSynthesis, err)
	}
	if err := e.validateDuration(dur); err != nil {
		return types.AudioAsset{}, err
	}

	log.Printf("[voice] ✅ narration ready: %s (%.1fs)", outFile, dur)
	return types.AudioAsset{Path: outFile, DurationSec: dur, VoiceProfile: voiceProfile}, nil
}

func (e *EdgeTTS) validateDuration(dur float64) error {
	if dur < e.minSec || dur > e.maxSec {
		return fmt.Errorf("%w: narration %.1fs outside %.0f–%.0fs window", ErrSynthesis, dur, e.minSec, e.maxSec)
	}
	return nil
}

// probeDuration asks ffprobe for the audio duration in seconds
func probeDuration(path string) (float64, error) {
	out, err := exec.Command("ffprobe",
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	).Output()
	if err != nil {
		return 0, err
	}
	var dur float64
	_, err = fmt.Sscanf(strings.TrimSpace(string(out)), "%f", &dur)
	return dur, err
}
