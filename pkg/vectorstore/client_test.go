package vectorstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_ReturnsNilStoreWhenHostEmpty(t *testing.T) {
	store, err := New(Config{})
	require.NoError(t, err)
	assert.Nil(t, store)
}

func TestNilStore_MethodsAreNoOps(t *testing.T) {
	var store *Store
	store.StoreMessage(context.Background(), "hello", nil, []float32{0.1, 0.2})
	assert.Nil(t, store.Query(context.Background(), []float32{0.1}, 5))
}
