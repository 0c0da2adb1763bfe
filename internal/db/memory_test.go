package db

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type doc struct {
	ID    string   `json:"id"`
	Name  string   `json:"name"`
	Tags  []string `json:"tags"`
	Score int64    `json:"score"`
	Owner struct {
		Email string `json:"email"`
	} `json:"owner"`
}

func seed(t *testing.T) *MemoryStore {
	t.Helper()
	ctx := context.Background()
	s := NewMemoryStore()
	require.NoError(t, s.EnsureUnique(ctx, "things", "name"))
	a := doc{Name: "Alpha", Tags: []string{"red", "blue"}, Score: 10}
	a.Owner.Email = "a@example.com"
	b := doc{Name: "beta", Tags: []string{"blue"}, Score: 30}
	c := doc{Name: "Gamma", Tags: []string{}, Score: 20}
	require.NoError(t, s.Insert(ctx, "things", "1", a))
	require.NoError(t, s.Insert(ctx, "things", "2", b))
	require.NoError(t, s.Insert(ctx, "things", "3", c))
	return s
}

func TestMemoryStore_FilterMatchesArrayMembers(t *testing.T) {
	s := seed(t)
	var out []doc
	require.NoError(t, s.Find(context.Background(), "things", Filter{"tags": "blue"}, nil, &out))
	assert.Len(t, out, 2)

	out = nil
	require.NoError(t, s.Find(context.Background(), "things", Filter{"tags": "red"}, nil, &out))
	require.Len(t, out, 1)
	assert.Equal(t, "1", out[0].ID)
}

func TestMemoryStore_NestedAndIDFilters(t *testing.T) {
	s := seed(t)
	var d doc
	require.NoError(t, s.FindOne(context.Background(), "things", Filter{"owner.email": "a@example.com"}, &d))
	assert.Equal(t, "Alpha", d.Name)

	require.NoError(t, s.FindOne(context.Background(), "things", Filter{"id": "2"}, &d))
	assert.Equal(t, "beta", d.Name)
}

func TestMemoryStore_Between(t *testing.T) {
	s := seed(t)
	n, err := s.Count(context.Background(), "things", Filter{"score": Between{Min: 10, Max: 30}})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestMemoryStore_SortSkipLimitAndMatch(t *testing.T) {
	s := seed(t)
	var out []doc
	require.NoError(t, s.Find(context.Background(), "things", Filter{}, &FindOptions{Sort: "score", Desc: true, Limit: 2}, &out))
	require.Len(t, out, 2)
	assert.Equal(t, "beta", out[0].Name)
	assert.Equal(t, "Gamma", out[1].Name)

	out = nil
	require.NoError(t, s.Find(context.Background(), "things", Filter{}, &FindOptions{Match: map[string]string{"name": "AM"}}, &out))
	require.Len(t, out, 1)
	assert.Equal(t, "Gamma", out[0].Name)

	out = nil
	require.NoError(t, s.Find(context.Background(), "things", Filter{}, &FindOptions{Skip: 5}, &out))
	assert.Empty(t, out)
	assert.NotNil(t, out)
}

func TestMemoryStore_UniqueAndMissing(t *testing.T) {
	s := seed(t)
	ctx := context.Background()

	err := s.Insert(ctx, "things", "4", doc{Name: "Alpha"})
	assert.True(t, IsConflict(err))

	err = s.Update(ctx, "things", "2", map[string]any{"name": "Alpha"})
	assert.True(t, IsConflict(err))

	assert.True(t, IsNotFound(s.Delete(ctx, "things", "missing")))
	assert.True(t, IsNotFound(s.Replace(ctx, "things", "missing", doc{})))
	var d doc
	assert.True(t, IsNotFound(s.FindByID(ctx, "things", "missing", &d)))
	assert.True(t, IsNotFound(s.FindOne(ctx, "things", Filter{"name": "nobody"}, &d)))
}

func TestMemoryStore_UpdateMany(t *testing.T) {
	s := seed(t)
	ctx := context.Background()
	n, err := s.UpdateMany(ctx, "things", Filter{"tags": "blue"}, map[string]any{"score": 0})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	var d doc
	require.NoError(t, s.FindByID(ctx, "things", "1", &d))
	assert.Equal(t, int64(0), d.Score)
}

func TestMemoryStore_RejectsBadFieldNames(t *testing.T) {
	s := seed(t)
	var out []doc
	err := s.Find(context.Background(), "things", Filter{"name'; drop": "x"}, nil, &out)
	assert.Error(t, err)
}
