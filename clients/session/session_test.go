package session

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"gptchat/clients/db"
	"gptchat/clients/model"
)

func newRepository(t *testing.T) *Repository {
	t.Helper()
	conn, err := db.Open(db.MemoryDSN)
	require.NoError(t, err)
	r, err := NewRepository(conn)
	require.NoError(t, err)
	return r
}

func TestRepository_CreateAndFind(t *testing.T) {
	r := newRepository(t)
	ctx := context.Background()

	first := &model.Session{Name: "first", Model: "gpt-4o-mini"}
	require.NoError(t, r.Create(ctx, first))
	second := &model.Session{Name: "second"}
	require.NoError(t, r.Create(ctx, second))
	assert.NotZero(t, first.ID)
	assert.Greater(t, second.ID, first.ID)

	got, err := r.Find(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, "first", got.Name)
	assert.Equal(t, "gpt-4o-mini", got.Model)

	all, err := r.FindAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "second", all[1].Name)
}

func TestRepository_NotFound(t *testing.T) {
	r := newRepository(t)
	_, err := r.Find(context.Background(), 42)
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))
}

func TestRepository_Save(t *testing.T) {
	r := newRepository(t)
	ctx := context.Background()
	s := &model.Session{Name: "before"}
	require.NoError(t, r.Create(ctx, s))

	s.Name = "after"
	require.NoError(t, r.Save(ctx, *s))
	got, err := r.Find(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, "after", got.Name)
}
