package monday

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClient_PostUpdate_ReturnsUpdateID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data":{"create_update":{"id":"9988"}}}`)
	}))
	defer server.Close()

	c := NewClientWithHTTP(server.URL, server.Client())
	id, err := c.PostUpdate(context.Background(), 123, "hello")
	require.NoError(t, err)
	require.Equal(t, "9988", id)
}

func TestClient_GetItemInfo_ReturnsColumnValues(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data":{"items":[{"id":"1","name":"Task A","column_values":[{"id":"status","text":"Working on it"}]}]}}`)
	}))
	defer server.Close()

	c := NewClientWithHTTP(server.URL, server.Client())
	info, err := c.GetItemInfo(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, "Task A", info.Name)
	require.Equal(t, "Working on it", info.ColumnValues["status"])
}

func TestClient_PollReplies_EmptyWhenUpdateMissing(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data":{"updates":[]}}`)
	}))
	defer server.Close()

	c := NewClientWithHTTP(server.URL, server.Client())
	replies, err := c.PollReplies(context.Background(), "404")
	require.NoError(t, err)
	require.Empty(t, replies)
}
