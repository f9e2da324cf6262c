package lanes

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/soundtrace/engine/internal/errors"
)

// Mode selects which lane(s) a search request runs.
type Mode string

const (
	ModeExact Mode = "exact"
	ModeVibe  Mode = "vibe"
	ModeBoth  Mode = "both"
)

// SearchResponse is the orchestrator's result shape for one request.
type SearchResponse struct {
	RequestID      string
	ModeUsed       Mode
	ExactMatches   []ExactMatch
	VibeMatches    []VibeMatch
	TotalElapsedMS int64
}

// Orchestrator fans a query out to the exact and vibe lanes under
// independent per-lane budgets and a combined request-wide budget,
// grounded on the teacher's audio_jobs worker-pool cancellation shape
// (context.WithTimeout + goroutines + select) but applied to a two-lane
// fan-out instead of a job queue.
type Orchestrator struct {
	exact *ExactLane
	vibe  *VibeLane

	exactLaneTimeout    time.Duration
	vibeLaneTimeout     time.Duration
	totalRequestTimeout time.Duration
	exactTrustThreshold float64
}

func NewOrchestrator(exact *ExactLane, vibe *VibeLane, exactLaneTimeout, vibeLaneTimeout, totalRequestTimeout time.Duration, exactTrustThreshold float64) *Orchestrator {
	if exactTrustThreshold <= 0 {
		exactTrustThreshold = 0.85
	}
	return &Orchestrator{
		exact: exact, vibe: vibe,
		exactLaneTimeout: exactLaneTimeout, vibeLaneTimeout: vibeLaneTimeout,
		totalRequestTimeout: totalRequestTimeout, exactTrustThreshold: exactTrustThreshold,
	}
}

type laneOutcome struct {
	exactMatches []ExactMatch
	vibeMatches  []VibeMatch
	err          error
	timedOut     bool
}

// Search runs the requested lane(s), honoring per-lane and total-request
// timeouts, and applies exact-trust suppression to the vibe list.
func (o *Orchestrator) Search(ctx context.Context, pcm16k, pcm48k []byte, mode Mode, maxResults int) (*SearchResponse, error) {
	requestID := uuid.NewString()
	start := time.Now()

	ctx, cancel := context.WithTimeout(ctx, o.totalRequestTimeout)
	defer cancel()

	var resp *SearchResponse
	var err error

	switch mode {
	case ModeExact:
		resp, err = o.searchExactOnly(ctx, pcm16k, maxResults, requestID)
	case ModeVibe:
		resp, err = o.searchVibeOnly(ctx, pcm48k, maxResults, requestID)
	default:
		resp, err = o.searchBoth(ctx, pcm16k, pcm48k, maxResults, requestID)
	}

	if resp != nil {
		resp.TotalElapsedMS = time.Since(start).Milliseconds()
	}
	return resp, err
}

func (o *Orchestrator) searchExactOnly(ctx context.Context, pcm16k []byte, maxResults int, requestID string) (*SearchResponse, error) {
	out := o.runLane(ctx, o.exactLaneTimeout, func(lctx context.Context) laneOutcome {
		return laneOutcome{exactMatches: o.exact.Search(lctx, pcm16k, maxResults)}
	})
	if out.timedOut {
		return nil, errors.SearchTimeout()
	}
	if out.err != nil {
		return nil, errors.ServiceUnavailable("exact match search")
	}
	return &SearchResponse{RequestID: requestID, ModeUsed: ModeExact, ExactMatches: out.exactMatches}, nil
}

func (o *Orchestrator) searchVibeOnly(ctx context.Context, pcm48k []byte, maxResults int, requestID string) (*SearchResponse, error) {
	out := o.runLane(ctx, o.vibeLaneTimeout, func(lctx context.Context) laneOutcome {
		matches, err := o.vibe.Search(lctx, pcm48k, maxResults, "")
		return laneOutcome{vibeMatches: matches, err: err}
	})
	if out.timedOut {
		return nil, errors.SearchTimeout()
	}
	if out.err != nil {
		return nil, errors.ServiceUnavailable("vibe match search")
	}
	return &SearchResponse{RequestID: requestID, ModeUsed: ModeVibe, VibeMatches: out.vibeMatches}, nil
}

func (o *Orchestrator) searchBoth(ctx context.Context, pcm16k, pcm48k []byte, maxResults int, requestID string) (*SearchResponse, error) {
	exactCh := make(chan laneOutcome, 1)
	vibeCh := make(chan laneOutcome, 1)

	go func() {
		exactCh <- o.runLane(ctx, o.exactLaneTimeout, func(lctx context.Context) laneOutcome {
			return laneOutcome{exactMatches: o.exact.Search(lctx, pcm16k, maxResults)}
		})
	}()
	go func() {
		vibeCh <- o.runLane(ctx, o.vibeLaneTimeout, func(lctx context.Context) laneOutcome {
			matches, err := o.vibe.Search(lctx, pcm48k, maxResults, "")
			return laneOutcome{vibeMatches: matches, err: err}
		})
	}()

	var exactOut, vibeOut laneOutcome
	var exactDone, vibeDone bool
	for !exactDone || !vibeDone {
		select {
		case exactOut = <-exactCh:
			exactDone = true
		case vibeOut = <-vibeCh:
			vibeDone = true
		case <-ctx.Done():
			if !exactDone {
				exactOut = laneOutcome{timedOut: true}
				exactDone = true
			}
			if !vibeDone {
				vibeOut = laneOutcome{timedOut: true}
				vibeDone = true
			}
		}
	}

	exactFailed := exactOut.timedOut || exactOut.err != nil
	vibeFailed := vibeOut.timedOut || vibeOut.err != nil

	if exactFailed && vibeFailed {
		if exactOut.timedOut || vibeOut.timedOut {
			return nil, errors.SearchTimeout()
		}
		return nil, errors.ServiceUnavailable("search")
	}

	vibeMatches := vibeOut.vibeMatches
	if !exactFailed {
		vibeMatches = suppressTrustedExact(exactOut.exactMatches, vibeMatches, o.exactTrustThreshold)
	}

	return &SearchResponse{
		RequestID:    requestID,
		ModeUsed:     ModeBoth,
		ExactMatches: exactOut.exactMatches,
		VibeMatches:  vibeMatches,
	}, nil
}

// runLane executes fn under its own lane timeout (bounded further by ctx,
// the overall request deadline), reporting whether the lane timed out.
func (o *Orchestrator) runLane(ctx context.Context, laneTimeout time.Duration, fn func(context.Context) laneOutcome) laneOutcome {
	lctx, cancel := context.WithTimeout(ctx, laneTimeout)
	defer cancel()

	resultCh := make(chan laneOutcome, 1)
	go func() { resultCh <- fn(lctx) }()

	select {
	case res := <-resultCh:
		return res
	case <-lctx.Done():
		return laneOutcome{timedOut: true}
	}
}

// suppressTrustedExact removes from vibeMatches any track that the exact
// lane matched with confidence >= threshold — a confident exact hit isn't
// interesting as a vibe "similar track" result, it's the same track.
func suppressTrustedExact(exactMatches []ExactMatch, vibeMatches []VibeMatch, threshold float64) []VibeMatch {
	trusted := make(map[string]bool)
	for _, m := range exactMatches {
		if m.Confidence >= threshold {
			trusted[m.Track.ID] = true
		}
	}
	if len(trusted) == 0 {
		return vibeMatches
	}

	out := make([]VibeMatch, 0, len(vibeMatches))
	for _, m := range vibeMatches {
		if trusted[m.Track.ID] {
			continue
		}
		out = append(out, m)
	}
	return out
}
