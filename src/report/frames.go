package report

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
)

// ErrNoFFmpeg is returned by EncodeMP4 when ffmpeg is not on PATH.
var ErrNoFFmpeg = errors.New("ffmpeg not found on PATH")

const framePattern = "frame_%06d.png"

// FramePath returns the file name of frame i inside dir.
func FramePath(dir string, i int) string {
	return filepath.Join(dir, fmt.Sprintf(framePattern, i))
}

// SavePNG encodes img to filename.
func SavePNG(img image.Image, filename string) error {
	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("cannot create frame: %w", err)
	}
	bw := bufio.NewWriter(f)
	if err := png.Encode(bw, img); err != nil {
		_ = f.Close()
		return fmt.Errorf("cannot encode png: %w", err)
	}
	if err := bw.Flush(); err != nil {
		_ = f.Close()
		return fmt.Errorf("cannot write png: %w", err)
	}
	return f.Close()
}

// ListFiles lists the files of dir ending in suffix, sorted by name.
func ListFiles(dir, suffix string) ([]string, error) {
	ents, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(ents))
	for _, e := range ents {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if strings.HasSuffix(strings.ToLower(name), strings.ToLower(suffix)) {
			out = append(out, filepath.Join(dir, name))
		}
	}
	sort.Strings(out)
	return out, nil
}

// CleanFrames creates framesDir if needed and removes PNG files left by a
// previous run.
func CleanFrames(framesDir string) error {
	if err := os.MkdirAll(framesDir, 0o755); err != nil {
		return err
	}
	files, err := ListFiles(framesDir, ".png")
	if err != nil {
		return err
	}
	for _, f := range files {
		if err := os.Remove(f); err != nil {
			return err
		}
	}
	return nil
}

func ffmpegArgs(framesDir string, fps int, outMP4 string) []string {
	return []string{
		"-y",
		"-framerate", fmt.Sprintf("%d", fps),
		"-i", filepath.Join(framesDir, framePattern),
		"-c:v", "libx264",
		"-pix_fmt", "yuv420p",
		outMP4,
	}
}

// EncodeMP4 assembles the frames of framesDir into an H.264 video.
func EncodeMP4(ctx context.Context, framesDir string, fps int, outMP4 string) error {
	bin, err := exec.LookPath("ffmpeg")
	if err != nil {
		return ErrNoFFmpeg
	}
	cmd := exec.CommandContext(ctx, bin, ffmpegArgs(framesDir, fps, outMP4)...)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("ffmpeg encoding failed: %w: %s", err, lastLine(out))
	}
	return nil
}

func lastLine(b []byte) string {
	s := strings.TrimSpace(string(b))
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		return s[i+1:]
	}
	return s
}
