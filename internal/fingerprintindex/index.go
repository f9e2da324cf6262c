// Package fingerprintindex wraps the external acoustic-landmark fingerprint
// tool (an olaf_c-style binary) that owns an on-disk inverted index. Every
// call is a subprocess invocation: PCM in via a temp file, matches out via
// stdout.
package fingerprintindex

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"sync"

	"github.com/soundtrace/engine/internal/errors"
)

// Match is one row of the external tool's query output.
type Match struct {
	MatchCount           int
	QueryStart           float64
	QueryStop            float64
	ReferenceIdentifier  string
	InternalReferenceID  int
	ReferenceStart       float64
	ReferenceStop        float64
}

// Index serializes writes (index/delete) globally while allowing concurrent
// queries, matching the backing tool's single-writer/multi-reader contract.
type Index struct {
	binPath  string
	indexDir string
	writeMu  sync.Mutex
}

func New(binPath, indexDir string) (*Index, error) {
	if binPath == "" {
		binPath = "olaf_c"
	}
	if err := os.MkdirAll(indexDir, 0o755); err != nil {
		return nil, fmt.Errorf("create fingerprint index dir: %w", err)
	}
	return &Index{binPath: binPath, indexDir: indexDir}, nil
}

// CheckInstallation verifies the external tool is present and runnable,
// fatal at startup if not (FingerprintToolMissing).
func (idx *Index) CheckInstallation(ctx context.Context) error {
	cmd := exec.CommandContext(ctx, idx.binPath, "version")
	cmd.Dir = idx.indexDir
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("fingerprint tool %q not usable: %w", idx.binPath, err)
	}
	return nil
}

// Index adds all hashes of pcm16k to the index under trackIdentifier. Index
// writes are serialized globally; the caller is expected to already hold the
// process-wide ingestion lock (§5) — this mutex is a second, narrower belt
// protecting the on-disk index specifically.
func (idx *Index) Index(ctx context.Context, pcm16k []byte, trackIdentifier string) error {
	idx.writeMu.Lock()
	defer idx.writeMu.Unlock()

	tmp, err := writeTempPCM(pcm16k)
	if err != nil {
		return errors.IndexWriteFailed(err.Error())
	}
	defer os.Remove(tmp)

	cmd := exec.CommandContext(ctx, idx.binPath, "store", "--db", idx.indexDir, "--id", trackIdentifier, tmp)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return errors.IndexWriteFailed(truncate(stderr.String()))
	}
	return nil
}

// Delete removes all entries for trackIdentifier.
func (idx *Index) Delete(ctx context.Context, trackIdentifier string) error {
	idx.writeMu.Lock()
	defer idx.writeMu.Unlock()

	cmd := exec.CommandContext(ctx, idx.binPath, "delete", "--db", idx.indexDir, "--id", trackIdentifier)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return errors.IndexWriteFailed(truncate(stderr.String()))
	}
	return nil
}

// Query looks up pcm16k against the index. A non-zero exit or unparseable
// output is treated as "no matches", not an error — queries degrade
// gracefully per the C4 failure model.
func (idx *Index) Query(ctx context.Context, pcm16k []byte) []Match {
	tmp, err := writeTempPCM(pcm16k)
	if err != nil {
		return nil
	}
	defer os.Remove(tmp)

	cmd := exec.CommandContext(ctx, idx.binPath, "query", "--db", idx.indexDir, tmp)
	var stdout bytes.Buffer
	cmd.Stdout = &stdout
	if err := cmd.Run(); err != nil {
		return nil
	}
	return parseMatches(stdout.String())
}

func writeTempPCM(pcm []byte) (string, error) {
	f, err := os.CreateTemp("", "fpidx-*.pcm")
	if err != nil {
		return "", fmt.Errorf("create temp pcm file: %w", err)
	}
	defer f.Close()
	if _, err := f.Write(pcm); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("write temp pcm file: %w", err)
	}
	return f.Name(), nil
}

// parseMatches reads comma-separated rows, falling back to semicolons, per
// the tool's output contract. Malformed rows are skipped rather than
// aborting the whole parse.
func parseMatches(output string) []Match {
	var matches []Match
	scanner := bufio.NewScanner(strings.NewReader(output))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		sep := ","
		if !strings.Contains(line, ",") && strings.Contains(line, ";") {
			sep = ";"
		}
		fields := strings.Split(line, sep)
		if len(fields) < 7 {
			continue
		}
		m, err := parseMatchFields(fields)
		if err != nil {
			continue
		}
		matches = append(matches, m)
	}
	return matches
}

func parseMatchFields(f []string) (Match, error) {
	matchCount, err := strconv.Atoi(strings.TrimSpace(f[0]))
	if err != nil {
		return Match{}, err
	}
	queryStart, err := strconv.ParseFloat(strings.TrimSpace(f[1]), 64)
	if err != nil {
		return Match{}, err
	}
	queryStop, err := strconv.ParseFloat(strings.TrimSpace(f[2]), 64)
	if err != nil {
		return Match{}, err
	}
	referenceIdentifier := strings.TrimSpace(f[3])
	internalReferenceID, err := strconv.Atoi(strings.TrimSpace(f[4]))
	if err != nil {
		return Match{}, err
	}
	referenceStart, err := strconv.ParseFloat(strings.TrimSpace(f[5]), 64)
	if err != nil {
		return Match{}, err
	}
	referenceStop, err := strconv.ParseFloat(strings.TrimSpace(f[6]), 64)
	if err != nil {
		return Match{}, err
	}
	return Match{
		MatchCount:          matchCount,
		QueryStart:          queryStart,
		QueryStop:           queryStop,
		ReferenceIdentifier: referenceIdentifier,
		InternalReferenceID: internalReferenceID,
		ReferenceStart:      referenceStart,
		ReferenceStop:       referenceStop,
	}, nil
}

func truncate(s string) string {
	const max = 2000
	if len(s) > max {
		return s[:max]
	}
	return s
}
