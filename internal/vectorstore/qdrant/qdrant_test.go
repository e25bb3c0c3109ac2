package qdrant

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ragchat/internal/domain"
)

func TestPointID_Stable(t *testing.T) {
	assert.Equal(t, PointID("docs", "doc-0"), PointID("docs", "doc-0"))
	assert.NotEqual(t, PointID("docs", "doc-0"), PointID("docs", "doc-1"))
	assert.NotEqual(t, PointID("docs", "doc-0"), PointID("other", "doc-0"))
}

func TestPointsPayloadRoundTrip(t *testing.T) {
	chunks := []domain.Chunk{{
		Text:     "Cláusula 5",
		Metadata: map[string]any{"source": "a.pdf", "page": 2, "start_index": 0},
	}}
	pts := Points("docs", chunks, []string{"doc-0"}, [][]float32{{0.1, 0.2}})
	require.Len(t, pts, 1)
	assert.Equal(t, PointID("docs", "doc-0"), pts[0].Id.GetUuid())

	r := toResult(pts[0].Payload, 0.75)
	assert.Equal(t, "Cláusula 5", r.Text)
	assert.Equal(t, 0.75, r.Score)
	assert.Equal(t, "a.pdf", r.Metadata["source"])
	assert.Equal(t, int64(2), r.Metadata["page"])
	assert.Equal(t, "doc-0", convertValue(pts[0].Payload[payloadChunkID]))
}

func TestUpsert_LengthMismatch(t *testing.T) {
	s := NewStorage(Config{})
	err := s.Upsert(context.Background(), "docs", []domain.Chunk{{Text: "a"}}, nil, nil)
	assert.ErrorContains(t, err, "1 chunks, 0 ids and 0 vectors")
}

func TestNewStorage_Defaults(t *testing.T) {
	s := NewStorage(Config{})
	assert.Equal(t, "localhost", s.cfg.Host)
	assert.Equal(t, 6334, s.cfg.Port)
}
