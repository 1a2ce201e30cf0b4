// Package vectorstore wraps Qdrant for the best-effort memory layer
// spec.md §6 calls out explicitly as never blocking a decision: every
// method here swallows its own errors into a logged warning rather
// than propagating, mirroring the teacher's own fail-open Slack
// service. Grounded on qdrant/go-client, a real dependency of the
// agent-memory package in the retrieved pack (kadirpekel-hector).
package vectorstore

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"
)

// Hit is a single scored query result.
type Hit struct {
	Text     string
	Score    float32
	Metadata map[string]string
}

// Store is a best-effort wrapper over a Qdrant collection. A nil
// *Store is valid and turns every method into a no-op, matching
// pkg/slack.Service's nil-safety convention.
type Store struct {
	client         *qdrant.Client
	collectionName string
	vectorSize     uint64
	logger         *slog.Logger
}

// Config holds the connection parameters for New.
type Config struct {
	Host           string
	Port           int
	CollectionName string
	VectorSize     uint64
	APIKey         string
}

// New connects to Qdrant and returns a Store. Returns (nil, nil) when
// Host is empty — the caller's Store is then a no-op, same convention
// as pkg/slack.NewService.
func New(cfg Config) (*Store, error) {
	if cfg.Host == "" {
		return nil, nil
	}
	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   cfg.Host,
		Port:   cfg.Port,
		APIKey: cfg.APIKey,
	})
	if err != nil {
		return nil, err
	}
	return &Store{
		client:         client,
		collectionName: cfg.CollectionName,
		vectorSize:     cfg.VectorSize,
		logger:         slog.Default().With("component", "vectorstore"),
	}, nil
}

// StoreMessage embeds and upserts text with its metadata. embed
// produces the vector — kept as a caller-supplied function so this
// package never depends on a specific embedding model/provider.
// Best-effort: failures are logged, never returned.
func (s *Store) StoreMessage(ctx context.Context, text string, metadata map[string]string, vector []float32) {
	if s == nil {
		return
	}
	payload := make(map[string]*qdrant.Value, len(metadata)+1)
	payload["text"] = qdrant.NewValueString(text)
	for k, v := range metadata {
		payload[k] = qdrant.NewValueString(v)
	}

	_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: s.collectionName,
		Points: []*qdrant.PointStruct{
			{
				Id:      qdrant.NewID(uuid.NewString()),
				Vectors: qdrant.NewVectorsDense(vector),
				Payload: payload,
			},
		},
	})
	if err != nil {
		s.logger.Warn("vector store upsert failed", "error", err)
	}
}

// Query returns the top-k nearest neighbors to vector. Best-effort:
// on failure it returns a nil slice and logs a warning rather than an
// error, per spec.md §6 ("best-effort, never blocks a decision").
func (s *Store) Query(ctx context.Context, vector []float32, limit uint64) []Hit {
	if s == nil {
		return nil
	}
	resp, err := s.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: s.collectionName,
		Query:          qdrant.NewQueryDense(vector),
		Limit:          &limit,
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		s.logger.Warn("vector store query failed", "error", err)
		return nil
	}

	hits := make([]Hit, 0, len(resp))
	for _, point := range resp {
		hit := Hit{Score: point.GetScore(), Metadata: map[string]string{}}
		for k, v := range point.GetPayload() {
			if k == "text" {
				hit.Text = v.GetStringValue()
				continue
			}
			hit.Metadata[k] = v.GetStringValue()
		}
		hits = append(hits, hit)
	}
	return hits
}
