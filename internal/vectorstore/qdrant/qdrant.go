package qdrant

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"

	"ragchat/internal/domain"
)

// Payload keys written with every point.
const (
	payloadText    = "text"
	payloadChunkID = "chunk_id"
	payloadMeta    = "metadata"
)

// Storage is a domain.VectorStore backed by Qdrant's gRPC API.
// It assumes cosine distance and creates the collection if missing.
type Storage struct {
	cfg *qdrant.Config
}

type Config struct {
	Host   string
	Port   int
	APIKey string
	UseTLS bool
}

func NewStorage(cfg Config) *Storage {
	if cfg.Host == "" {
		cfg.Host = "localhost"
	}
	if cfg.Port == 0 {
		cfg.Port = 6334
	}
	return &Storage{cfg: &qdrant.Config{
		Host:   cfg.Host,
		Port:   cfg.Port,
		APIKey: cfg.APIKey,
		UseTLS: cfg.UseTLS,
	}}
}

func (s *Storage) Upsert(ctx context.Context, collection string, chunks []domain.Chunk, ids []string, vectors [][]float32) error {
	if len(chunks) != len(ids) || len(chunks) != len(vectors) {
		return fmt.Errorf("qdrant: %d chunks, %d ids and %d vectors", len(chunks), len(ids), len(vectors))
	}
	if len(chunks) == 0 {
		return nil
	}
	client, err := qdrant.NewClient(s.cfg)
	if err != nil {
		return domain.NewProviderError("qdrant", "connect", err)
	}
	defer client.Close()

	if err := ensureCollection(ctx, client, collection, len(vectors[0])); err != nil {
		return domain.NewProviderError("qdrant", "upsert", err)
	}
	wait := true
	_, err = client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: collection,
		Wait:           &wait,
		Points:         Points(collection, chunks, ids, vectors),
	})
	return domain.NewProviderError("qdrant", "upsert", err)
}

func (s *Storage) SimilaritySearch(ctx context.Context, collection string, vector []float32, k int) ([]domain.SearchResult, error) {
	if k <= 0 {
		return nil, nil
	}
	client, err := qdrant.NewClient(s.cfg)
	if err != nil {
		return nil, domain.NewProviderError("qdrant", "connect", err)
	}
	defer client.Close()

	exists, err := client.CollectionExists(ctx, collection)
	if err != nil {
		return nil, domain.NewProviderError("qdrant", "search", err)
	}
	if !exists {
		return []domain.SearchResult{}, nil
	}
	limit := uint64(k)
	resp, err := client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: collection,
		Query:          qdrant.NewQuery(vector...),
		Limit:          &limit,
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, domain.NewProviderError("qdrant", "search", err)
	}
	results := make([]domain.SearchResult, 0, len(resp))
	for _, p := range resp {
		results = append(results, toResult(p.Payload, float64(p.Score)))
	}
	return results, nil
}

func ensureCollection(ctx context.Context, client *qdrant.Client, name string, size int) error {
	exists, err := client.CollectionExists(ctx, name)
	if err != nil || exists {
		return err
	}
	if err := client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: name,
		VectorsConfig: &qdrant.VectorsConfig{
			Config: &qdrant.VectorsConfig_Params{
				Params: &qdrant.VectorParams{
					Size:     uint64(size),
					Distance: qdrant.Distance_Cosine,
				},
			},
		},
	}); err != nil {
		return fmt.Errorf("create collection: %w", err)
	}
	return nil
}

// PointID maps a chunk id to a stable UUID, so re-ingesting a collection
// overwrites its points.
func PointID(collection, id string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(collection+"/"+id)).String()
}

// Points builds the Qdrant points for a batch of chunks.
func Points(collection string, chunks []domain.Chunk, ids []string, vectors [][]float32) []*qdrant.PointStruct {
	pts := make([]*qdrant.PointStruct, len(chunks))
	for i, ch := range chunks {
		md := ch.Metadata
		if md == nil {
			md = map[string]any{}
		}
		pts[i] = &qdrant.PointStruct{
			Id:      qdrant.NewIDUUID(PointID(collection, ids[i])),
			Vectors: qdrant.NewVectors(vectors[i]...),
			Payload: qdrant.NewValueMap(map[string]any{
				payloadText:    ch.Text,
				payloadChunkID: ids[i],
				payloadMeta:    md,
			}),
		}
	}
	return pts
}

func toResult(payload map[string]*qdrant.Value, score float64) domain.SearchResult {
	r := domain.SearchResult{Score: score, Metadata: map[string]any{}}
	if v, ok := payload[payloadText]; ok {
		if s, ok := convertValue(v).(string); ok {
			r.Text = s
		}
	}
	if v, ok := payload[payloadMeta]; ok {
		if md, ok := convertValue(v).(map[string]any); ok {
			r.Metadata = md
		}
	}
	return r
}

func convertValue(v *qdrant.Value) any {
	if v == nil {
		return nil
	}
	switch val := v.Kind.(type) {
	case *qdrant.Value_BoolValue:
		return val.BoolValue
	case *qdrant.Value_IntegerValue:
		return val.IntegerValue
	case *qdrant.Value_DoubleValue:
		return val.DoubleValue
	case *qdrant.Value_StringValue:
		return val.StringValue
	case *qdrant.Value_ListValue:
		out := make([]any, len(val.ListValue.Values))
		for i, lv := range val.ListValue.Values {
			out[i] = convertValue(lv)
		}
		return out
	case *qdrant.Value_StructValue:
		out := make(map[string]any, len(val.StructValue.Fields))
		for k, nv := range val.StructValue.Fields {
			out[k] = convertValue(nv)
		}
		return out
	}
	return nil
}
