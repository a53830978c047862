package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/claimgraph/internal/model"
)

func seeded(t *testing.T, ids ...string) *Memory {
	t.Helper()
	m := NewMemory(0.7)
	claims := make([]model.Claim, len(ids))
	for i, id := range ids {
		claims[i] = model.Claim{ID: id, Text: "claim " + id, Type: model.ClaimTypeFactual}
	}
	_, err := m.AddClaims(context.Background(), "doc", claims)
	require.NoError(t, err)
	return m
}

func TestMemory_AddClaims(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(0.7)

	added, err := m.AddClaims(ctx, "doc", []model.Claim{{ID: " a "}, {Text: "no id"}})
	require.NoError(t, err)
	assert.Equal(t, "a", added[0].ID)
	assert.NotEmpty(t, added[1].ID, "missing ids are generated")

	_, err = m.AddClaims(ctx, "doc", []model.Claim{{ID: "b"}, {ID: "a"}})
	assert.ErrorIs(t, err, model.ErrInvalidInput)

	claims, err := m.Claims(ctx, "doc")
	require.NoError(t, err)
	assert.Len(t, claims, 2, "a failed call adds nothing")

	_, err = m.AddClaims(ctx, "doc", []model.Claim{{ID: "c"}, {ID: "c"}})
	assert.ErrorIs(t, err, model.ErrInvalidInput)
}

func TestMemory_ClaimsUnknownScope(t *testing.T) {
	claims, err := NewMemory(0.7).Claims(context.Background(), "missing")
	require.NoError(t, err)
	assert.Empty(t, claims)
}

func TestMemory_ApplyScores(t *testing.T) {
	ctx := context.Background()
	m := seeded(t, "a", "b")

	err := m.ApplyScores(ctx, "doc", &model.ScoringResult{Scores: map[string]model.ScoreEntry{
		"a": {Importance: 0.6, PageRank: 0.5, Centrality: 0.1, Foundational: true},
		"b": {Importance: 0.4, PageRank: 0.5},
	}})
	require.NoError(t, err)

	claims, _ := m.Claims(ctx, "doc")
	require.True(t, claims[0].IsScored())
	assert.InDelta(t, 0.6, *claims[0].Importance, 1e-9)
	assert.True(t, claims[0].IsFoundational)
	assert.Equal(t, "claim a", claims[0].Text, "content is untouched")
}

func TestMemory_ApplyScoresAllOrNothing(t *testing.T) {
	ctx := context.Background()
	m := seeded(t, "a", "b")

	err := m.ApplyScores(ctx, "doc", &model.ScoringResult{Scores: map[string]model.ScoreEntry{
		"a":     {Importance: 0.9},
		"ghost": {Importance: 0.1},
	}})
	assert.ErrorIs(t, err, model.ErrDataIntegrity)

	claims, _ := m.Claims(ctx, "doc")
	for _, c := range claims {
		assert.False(t, c.IsScored(), "claim %s must stay unscored", c.ID)
	}
}

func TestMemory_ClaimsReturnsCopy(t *testing.T) {
	ctx := context.Background()
	m := seeded(t, "a")

	claims, _ := m.Claims(ctx, "doc")
	claims[0].Text = "mutated"

	again, _ := m.Claims(ctx, "doc")
	assert.Equal(t, "claim a", again[0].Text)
}

func TestMemory_UpsertEdges(t *testing.T) {
	ctx := context.Background()
	m := seeded(t, "a", "b", "c")

	stats, err := m.UpsertEdges(ctx, "doc", []model.Dependency{
		{SourceID: "a", TargetID: "b", Kind: model.RelationCausal, Confidence: 0.8},
		{SourceID: "b", TargetID: "c", Kind: model.RelationEvidential, Confidence: 0.7},
		{SourceID: "c", TargetID: "c", Kind: model.RelationEvidential, Confidence: 0.9},
	})
	require.NoError(t, err)
	assert.Equal(t, UpsertStats{Accepted: 1, Rejected: 2}, stats)

	// a retried classification replaces the stored edge
	_, err = m.UpsertEdges(ctx, "doc", []model.Dependency{
		{SourceID: "a", TargetID: "b", Kind: model.RelationTemporal, Confidence: 0.95},
	})
	require.NoError(t, err)

	edges, err := m.Edges(ctx, "doc")
	require.NoError(t, err)
	require.Len(t, edges, 1)
	assert.Equal(t, model.RelationTemporal, edges[0].Kind)
}

func TestMemory_UpsertEdgesUnknownClaim(t *testing.T) {
	ctx := context.Background()
	m := seeded(t, "a", "b")

	_, err := m.UpsertEdges(ctx, "doc", []model.Dependency{
		{SourceID: "a", TargetID: "b", Kind: model.RelationCausal, Confidence: 0.9},
		{SourceID: "a", TargetID: "zzz", Kind: model.RelationCausal, Confidence: 0.9},
	})
	assert.ErrorIs(t, err, model.ErrDataIntegrity)

	edges, _ := m.Edges(ctx, "doc")
	assert.Empty(t, edges, "rejected batch stores nothing")
}

func TestMemory_Drop(t *testing.T) {
	ctx := context.Background()
	m := seeded(t, "a")
	m.Drop("doc")

	claims, _ := m.Claims(ctx, "doc")
	assert.Empty(t, claims)
}

func TestLoadClaims(t *testing.T) {
	dir := t.TempDir()

	arrayPath := filepath.Join(dir, "array.json")
	require.NoError(t, os.WriteFile(arrayPath, []byte(`[{"id": "c1", "text": "x", "type": "factual", "confidence": 0.9}]`), 0o644))
	claims, err := LoadClaims(arrayPath)
	require.NoError(t, err)
	require.Len(t, claims, 1)
	assert.Equal(t, model.ClaimTypeFactual, claims[0].Type)

	objPath := filepath.Join(dir, "object.json")
	require.NoError(t, os.WriteFile(objPath, []byte(`{"claims": [{"id": "c1"}, {"id": "c2"}]}`), 0o644))
	claims, err = LoadClaims(objPath)
	require.NoError(t, err)
	assert.Len(t, claims, 2)

	badPath := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(badPath, []byte(`{"items": []}`), 0o644))
	_, err = LoadClaims(badPath)
	assert.ErrorIs(t, err, model.ErrInvalidInput)

	_, err = LoadClaims(filepath.Join(dir, "missing.json"))
	assert.ErrorIs(t, err, model.ErrInvalidInput)
}

func TestLoadEdges(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "edges.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"dependencies": [{"source_claim_id": "a", "target_claim_id": "b", "relationship_type": "causal", "confidence": 0.9}]}`), 0o644))

	edges, err := LoadEdges(path)
	require.NoError(t, err)
	require.Len(t, edges, 1)
	assert.Equal(t, model.EdgeKey{Source: "a", Target: "b"}, edges[0].Key())
}

func TestWriteJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "out.json")
	require.NoError(t, WriteJSON(path, map[string]int{"n": 1}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, `{"n": 1}`, string(data))

	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))
}
