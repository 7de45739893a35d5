package rag

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qaforge/casegen/internal/knowledge"
	"github.com/qaforge/casegen/internal/log"
	"github.com/qaforge/casegen/internal/testutil"
)

func TestRetriever_TopKDefaults(t *testing.T) {
	index := &testutil.MockIndex{}

	assert.Equal(t, DefaultTopK, NewRetriever(index, log.NewNop()).TopK())
	assert.Equal(t, 3, NewRetriever(index, log.NewNop(), WithTopK(3)).TopK())
	assert.Equal(t, DefaultTopK, NewRetriever(index, log.NewNop(), WithTopK(0)).TopK(),
		"out-of-range top-k keeps the default")
	assert.Equal(t, DefaultTopK, NewRetriever(index, log.NewNop(), WithTopK(50)).TopK())
}

func TestRetriever_Search(t *testing.T) {
	index := &testutil.MockIndex{
		Docs: []knowledge.Document{
			{ID: "1", Content: "login flow test"},
			{ID: "2", Content: "checkout"},
		},
	}
	r := NewRetriever(index, log.NewNop(), WithTopK(1))

	docs, err := r.Search(context.Background(), "login")
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "1", docs[0].ID)
}

func TestRetriever_SearchError(t *testing.T) {
	index := &testutil.MockIndex{SearchErr: errors.New("down")}
	r := NewRetriever(index, log.NewNop())

	_, err := r.Search(context.Background(), "anything")
	assert.Error(t, err)
}

func TestRetriever_Probe(t *testing.T) {
	empty := &testutil.MockIndex{}
	assert.False(t, NewRetriever(empty, log.NewNop()).Probe(context.Background()))

	populated := &testutil.MockIndex{
		Docs: []knowledge.Document{{ID: "1", Content: "anything"}},
	}
	assert.True(t, NewRetriever(populated, log.NewNop()).Probe(context.Background()))

	failing := &testutil.MockIndex{SearchErr: errors.New("down")}
	assert.False(t, NewRetriever(failing, log.NewNop()).Probe(context.Background()),
		"probe errors read as not embedded")
}
