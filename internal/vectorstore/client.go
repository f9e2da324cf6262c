// Package vectorstore is the chunk-embedding index for vibe-match search
// (C6). It is built on Elasticsearch's dense_vector + kNN support rather
// than a dedicated vector database, following the teacher's
// internal/search package (an Elasticsearch client) for its client shape
// and index-builder style (createUsersIndex, createPostsIndex ->
// ensureChunksIndex here).
package vectorstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/google/uuid"
	"github.com/soundtrace/engine/internal/errors"
)

const defaultDim = 512

// Client wraps an Elasticsearch client specialized for chunk-embedding
// storage and cosine kNN search.
type Client struct {
	es    *elasticsearch.Client
	index string
}

// NewClient dials Elasticsearch using ELASTICSEARCH_URL (defaults to
// localhost) and targets the given index for chunk points.
func NewClient(index string) (*Client, error) {
	esURL := os.Getenv("ELASTICSEARCH_URL")
	if esURL == "" {
		esURL = "http://localhost:9200"
	}

	es, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{esURL}})
	if err != nil {
		return nil, fmt.Errorf("failed to create elasticsearch client: %w", err)
	}

	if _, err := es.Info(); err != nil {
		return nil, fmt.Errorf("failed to connect to elasticsearch: %w", err)
	}

	return &Client{es: es, index: index}, nil
}

// Chunk is the write-side shape mirroring embedding.Chunk without the
// vectorstore package depending on internal/embedding.
type Chunk struct {
	Embedding  []float32
	OffsetSec  float64
	ChunkIndex int
	DurationSec float64
}

// EnsureCollection creates the chunk index if it doesn't already exist,
// with a dense_vector field sized for dim, cosine similarity, HNSW
// m=16/ef_construct=200, and int8_hnsw scalar quantization — the closest
// Elasticsearch mapping equivalent of the quantized-HNSW collection this
// contract describes. Keyword fields on track_id (used by DeleteTrack)
// and genre are mapped; Query applies no payload filter. Idempotent.
func (c *Client) EnsureCollection(ctx context.Context, dim int) error {
	if dim <= 0 {
		dim = defaultDim
	}

	res, err := c.es.Indices.Exists([]string{c.index})
	if err != nil {
		return fmt.Errorf("check chunk index exists: %w", err)
	}
	res.Body.Close()
	if res.StatusCode == 200 {
		return nil
	}

	mapping := map[string]interface{}{
		"mappings": map[string]interface{}{
			"properties": map[string]interface{}{
				"embedding": map[string]interface{}{
					"type":       "dense_vector",
					"dims":       dim,
					"similarity": "cosine",
					"index_options": map[string]interface{}{
						"type":            "int8_hnsw",
						"m":               16,
						"ef_construction": 200,
						"confidence_interval": 0.99,
					},
				},
				"track_id":     map[string]interface{}{"type": "keyword"},
				"genre":        map[string]interface{}{"type": "keyword"},
				"offset_sec":   map[string]interface{}{"type": "float"},
				"chunk_index":  map[string]interface{}{"type": "integer"},
				"duration_sec": map[string]interface{}{"type": "float"},
			},
		},
	}

	body, err := json.Marshal(mapping)
	if err != nil {
		return fmt.Errorf("marshal chunk index mapping: %w", err)
	}

	res, err = c.es.Indices.Create(c.index,
		c.es.Indices.Create.WithBody(bytes.NewReader(body)),
		c.es.Indices.Create.WithContext(ctx),
	)
	if err != nil {
		return errors.IndexWriteFailed(err.Error())
	}
	defer res.Body.Close()

	if res.IsError() {
		var errResp map[string]interface{}
		json.NewDecoder(res.Body).Decode(&errResp)
		return errors.IndexWriteFailed(fmt.Sprintf("[%s] %v", res.Status(), errResp["error"]))
	}

	return nil
}

// UpsertChunks writes one point per chunk, batching at 100 points per bulk
// request. Each point gets a fresh UUID id; payload carries track_id plus
// the chunk's own fields and any caller-supplied metadata (genre, etc).
func (c *Client) UpsertChunks(ctx context.Context, trackIdentifier string, chunks []Chunk, payloadExtras map[string]interface{}) error {
	const batchSize = 100

	for start := 0; start < len(chunks); start += batchSize {
		end := start + batchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		if err := c.upsertBatch(ctx, trackIdentifier, chunks[start:end], payloadExtras); err != nil {
			return err
		}
	}
	return nil
}

func (c *Client) upsertBatch(ctx context.Context, trackIdentifier string, chunks []Chunk, payloadExtras map[string]interface{}) error {
	var buf bytes.Buffer
	for _, chunk := range chunks {
		pointID := uuid.NewString()

		meta := map[string]interface{}{"index": map[string]interface{}{"_index": c.index, "_id": pointID}}
		metaLine, err := json.Marshal(meta)
		if err != nil {
			return fmt.Errorf("marshal bulk action: %w", err)
		}

		doc := map[string]interface{}{
			"embedding":    chunk.Embedding,
			"track_id":     trackIdentifier,
			"offset_sec":   chunk.OffsetSec,
			"chunk_index":  chunk.ChunkIndex,
			"duration_sec": chunk.DurationSec,
		}
		for k, v := range payloadExtras {
			doc[k] = v
		}
		docLine, err := json.Marshal(doc)
		if err != nil {
			return fmt.Errorf("marshal chunk document: %w", err)
		}

		buf.Write(metaLine)
		buf.WriteByte('\n')
		buf.Write(docLine)
		buf.WriteByte('\n')
	}

	res, err := c.es.Bulk(bytes.NewReader(buf.Bytes()),
		c.es.Bulk.WithContext(ctx),
		c.es.Bulk.WithIndex(c.index),
	)
	if err != nil {
		return errors.IndexWriteFailed(err.Error())
	}
	defer res.Body.Close()

	if res.IsError() {
		var errResp map[string]interface{}
		json.NewDecoder(res.Body).Decode(&errResp)
		return errors.IndexWriteFailed(fmt.Sprintf("[%s] %v", res.Status(), errResp["error"]))
	}

	var bulkResp struct {
		Errors bool `json:"errors"`
	}
	if err := json.NewDecoder(res.Body).Decode(&bulkResp); err == nil && bulkResp.Errors {
		return errors.IndexWriteFailed("one or more chunk points failed to index")
	}

	return nil
}

// DeleteTrack removes every point whose track_id payload matches.
func (c *Client) DeleteTrack(ctx context.Context, trackIdentifier string) error {
	query := map[string]interface{}{
		"query": map[string]interface{}{
			"term": map[string]interface{}{"track_id": trackIdentifier},
		},
	}
	body, err := json.Marshal(query)
	if err != nil {
		return fmt.Errorf("marshal delete query: %w", err)
	}

	res, err := c.es.DeleteByQuery([]string{c.index}, bytes.NewReader(body),
		c.es.DeleteByQuery.WithContext(ctx),
	)
	if err != nil {
		return errors.IndexWriteFailed(err.Error())
	}
	defer res.Body.Close()

	if res.IsError() && res.StatusCode != 404 {
		var errResp map[string]interface{}
		json.NewDecoder(res.Body).Decode(&errResp)
		return errors.IndexWriteFailed(fmt.Sprintf("[%s] %v", res.Status(), errResp["error"]))
	}

	return nil
}

// Match is one scored kNN result.
type Match struct {
	Score   float64
	Payload map[string]interface{}
}

// Query runs a cosine-similarity kNN search. Errors degrade to an empty
// result set rather than surfacing to the caller — a missing vector
// store should not break the exact-match lane.
func (c *Client) Query(ctx context.Context, vector []float32, limit, searchEf int) []Match {
	if searchEf <= 0 {
		searchEf = 128
	}

	knn := map[string]interface{}{
		"field":          "embedding",
		"query_vector":   vector,
		"k":              limit,
		"num_candidates":  searchEf,
	}

	body, err := json.Marshal(map[string]interface{}{"knn": knn, "size": limit})
	if err != nil {
		return nil
	}

	res, err := c.es.Search(
		c.es.Search.WithContext(ctx),
		c.es.Search.WithIndex(c.index),
		c.es.Search.WithBody(bytes.NewReader(body)),
	)
	if err != nil {
		return nil
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil
	}

	var searchResp struct {
		Hits struct {
			Hits []struct {
				Score  float64                `json:"_score"`
				Source map[string]interface{} `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&searchResp); err != nil {
		return nil
	}

	matches := make([]Match, 0, len(searchResp.Hits.Hits))
	for _, hit := range searchResp.Hits.Hits {
		matches = append(matches, Match{Score: hit.Score, Payload: hit.Source})
	}
	return matches
}

// Ping verifies the cluster is reachable, for startup health checks.
func (c *Client) Ping(ctx context.Context) error {
	res, err := c.es.Info(c.es.Info.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("elasticsearch unreachable: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("elasticsearch info returned %s", res.Status())
	}
	return nil
}
