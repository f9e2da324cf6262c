// Package audio wraps the external decoder subprocess that turns arbitrary
// container formats into canonical PCM.
package audio

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"os/exec"

	"golang.org/x/sync/errgroup"
)

const (
	FingerprintRate = 16000
	EmbeddingRate   = 48000
	bytesPerSample  = 4 // float32le
)

// DecodeError wraps a non-zero decoder exit with its captured stderr.
type DecodeError struct {
	Stderr string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode failed: %s", e.Stderr)
}

// Decoder invokes an external decoder binary (ffmpeg-compatible CLI) to
// produce mono 32-bit float PCM at a target sample rate.
type Decoder struct {
	binPath string
}

func NewDecoder(binPath string) *Decoder {
	if binPath == "" {
		binPath = "ffmpeg"
	}
	return &Decoder{binPath: binPath}
}

// Decode converts raw container bytes into mono f32le PCM at targetRate,
// feeding input on stdin and reading PCM from stdout.
func (d *Decoder) Decode(ctx context.Context, data []byte, targetRate int) ([]byte, error) {
	cmd := exec.CommandContext(ctx, d.binPath,
		"-i", "pipe:0",
		"-ac", "1",
		"-ar", fmt.Sprintf("%d", targetRate),
		"-f", "f32le",
		"pipe:1",
	)
	cmd.Stdin = bytes.NewReader(data)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, &DecodeError{Stderr: truncateStderr(stderr.String())}
	}

	return stdout.Bytes(), nil
}

// DecodeDualRate produces the 16 kHz (fingerprinting/dedup) and 48 kHz
// (embedding) PCM streams concurrently.
func (d *Decoder) DecodeDualRate(ctx context.Context, data []byte) (pcm16k, pcm48k []byte, err error) {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		out, err := d.Decode(gctx, data, FingerprintRate)
		if err != nil {
			return err
		}
		pcm16k = out
		return nil
	})
	g.Go(func() error {
		out, err := d.Decode(gctx, data, EmbeddingRate)
		if err != nil {
			return err
		}
		pcm48k = out
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return pcm16k, pcm48k, nil
}

// Version reports the decoder tool's version string, used at startup to
// confirm the binary exists and is runnable.
func (d *Decoder) Version(ctx context.Context) (string, error) {
	cmd := exec.CommandContext(ctx, d.binPath, "-version")
	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("decoder tool %q not usable: %w", d.binPath, err)
	}
	return string(out), nil
}

// DurationSeconds computes clip duration from raw mono f32le PCM bytes.
func DurationSeconds(pcm []byte, sampleRate int) float64 {
	if sampleRate == 0 {
		return 0
	}
	numSamples := len(pcm) / bytesPerSample
	return float64(numSamples) / float64(sampleRate)
}

// ToFloat32 reinterprets raw f32le PCM bytes as a float32 slice.
func ToFloat32(pcm []byte) []float32 {
	n := len(pcm) / bytesPerSample
	out := make([]float32, n)
	for i := 0; i < n; i++ {
		bits := binary.LittleEndian.Uint32(pcm[i*bytesPerSample:])
		out[i] = math.Float32frombits(bits)
	}
	return out
}

// ToInt16 reinterprets 16kHz f32le PCM as 16-bit signed samples, the form
// the perceptual-dedup fingerprinter consumes, avoiding a third decode pass.
func ToInt16(pcm []byte) []int16 {
	floats := ToFloat32(pcm)
	out := make([]int16, len(floats))
	for i, f := range floats {
		v := f * 32768
		if v > 32767 {
			v = 32767
		} else if v < -32768 {
			v = -32768
		}
		out[i] = int16(v)
	}
	return out
}

func truncateStderr(s string) string {
	const max = 2000
	if len(s) > max {
		return s[:max]
	}
	return s
}

// CheckInstallation verifies the decoder binary is present and runnable.
func CheckInstallation(binPath string) error {
	d := NewDecoder(binPath)
	ctx := context.Background()
	_, err := d.Version(ctx)
	return err
}
