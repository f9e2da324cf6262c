// Package embedding wraps an in-process ONNX Runtime session that turns
// 48kHz PCM into fixed-size chunk embeddings for the vibe-match search lane.
//
// The session-lifecycle shape (SetSharedLibraryPath, InitializeEnvironment,
// GetInputOutputInfo, NewAdvancedSession, tensor.GetData/Destroy) is
// grounded on other_examples/hammamikhairi-otto's wakeword detector, the
// only example in the pack that drives yalue/onnxruntime_go.
package embedding

import (
	"context"
	"fmt"

	"github.com/soundtrace/engine/internal/audio"
	"github.com/soundtrace/engine/internal/errors"
	ort "github.com/yalue/onnxruntime_go"
)

const (
	windowSeconds = 10.0
	hopSeconds    = 5.0
	minTailSec    = 1.0
)

// Chunk is one windowed embedding over a clip.
type Chunk struct {
	Embedding  []float32
	OffsetSec  float64
	ChunkIndex int
	DurationSec float64
}

// Engine holds one loaded model and serializes inference behind a
// concurrency gate, since CPU-bound ONNX inference must never run more
// concurrently than the configured capacity (default 1) without blowing
// tail latency under contention.
type Engine struct {
	sampleRate int
	dim        int

	session    *ort.AdvancedSession
	inTensor   *ort.Tensor[float32]
	outTensor  *ort.Tensor[float32]
	windowLen  int

	gate chan struct{}
}

var environmentInitialized bool

// NewEngine loads the model at modelPath and readies it for inference.
// onnxLibPath is the shared library (libonnxruntime.so/.dylib) location.
func NewEngine(onnxLibPath, modelPath string, sampleRate, dim, concurrency int) (*Engine, error) {
	if concurrency <= 0 {
		concurrency = 1
	}

	if !environmentInitialized {
		ort.SetSharedLibraryPath(onnxLibPath)
		if err := ort.InitializeEnvironment(); err != nil {
			return nil, fmt.Errorf("initialize onnx runtime: %w", err)
		}
		environmentInitialized = true
	}

	windowLen := int(windowSeconds * float64(sampleRate))

	inTensor, err := ort.NewEmptyTensor[float32](ort.NewShape(1, int64(windowLen)))
	if err != nil {
		return nil, fmt.Errorf("allocate input tensor: %w", err)
	}

	outTensor, err := ort.NewEmptyTensor[float32](ort.NewShape(1, int64(dim)))
	if err != nil {
		inTensor.Destroy()
		return nil, fmt.Errorf("allocate output tensor: %w", err)
	}

	inInfo, outInfo, err := ort.GetInputOutputInfo(modelPath)
	if err != nil {
		inTensor.Destroy()
		outTensor.Destroy()
		return nil, fmt.Errorf("inspect model io: %w", err)
	}
	if len(inInfo) == 0 || len(outInfo) == 0 {
		inTensor.Destroy()
		outTensor.Destroy()
		return nil, fmt.Errorf("model %q exposes no input/output tensors", modelPath)
	}

	session, err := ort.NewAdvancedSession(
		modelPath,
		[]string{inInfo[0].Name}, []string{outInfo[0].Name},
		[]ort.Value{inTensor}, []ort.Value{outTensor},
		nil,
	)
	if err != nil {
		inTensor.Destroy()
		outTensor.Destroy()
		return nil, fmt.Errorf("create inference session: %w", err)
	}

	return &Engine{
		sampleRate: sampleRate,
		dim:        dim,
		session:    session,
		inTensor:   inTensor,
		outTensor:  outTensor,
		windowLen:  windowLen,
		gate:       make(chan struct{}, concurrency),
	}, nil
}

// Close releases the session and its tensors.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	e.session.Destroy()
	e.inTensor.Destroy()
	e.outTensor.Destroy()
}

// Embed chunks pcm48k into 10s windows (5s hop) and runs inference on each.
// An inference error on any chunk fails the whole call — no partial output.
func (e *Engine) Embed(ctx context.Context, pcm48k []byte) ([]Chunk, error) {
	if e == nil {
		return nil, errors.EmbeddingUnavailable()
	}

	samples := audio.ToFloat32(pcm48k)
	hopLen := int(hopSeconds * float64(e.sampleRate))
	minTailLen := int(minTailSec * float64(e.sampleRate))

	var chunks []Chunk
	index := 0
	for start := 0; start < len(samples); start += hopLen {
		end := start + e.windowLen
		real := len(samples) - start
		if real < e.windowLen && real < minTailLen {
			break
		}
		if end > len(samples) {
			end = len(samples)
		}

		embedding, err := e.runOne(ctx, samples[start:end])
		if err != nil {
			return nil, err
		}

		durationSec := float64(end-start) / float64(e.sampleRate)
		chunks = append(chunks, Chunk{
			Embedding:   embedding,
			OffsetSec:   float64(start) / float64(e.sampleRate),
			ChunkIndex:  index,
			DurationSec: durationSec,
		})
		index++

		if end == len(samples) {
			break
		}
	}

	return chunks, nil
}

func (e *Engine) runOne(ctx context.Context, window []float32) ([]float32, error) {
	select {
	case e.gate <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	defer func() { <-e.gate }()

	inData := e.inTensor.GetData()
	for i := range inData {
		if i < len(window) {
			inData[i] = window[i]
		} else {
			inData[i] = 0
		}
	}

	if err := e.session.Run(); err != nil {
		return nil, fmt.Errorf("embedding inference failed: %w", err)
	}

	out := e.outTensor.GetData()
	embedding := make([]float32, e.dim)
	copy(embedding, out[:e.dim])
	return embedding, nil
}
