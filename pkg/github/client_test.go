package github

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"
)

func testClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	c := NewClient(context.Background(), "test-token")
	base, err := url.Parse(server.URL + "/")
	require.NoError(t, err)
	c.api.BaseURL = base
	return c
}

func TestClient_CreatePR_Succeeds(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		fmt.Fprint(w, `{"number": 42, "html_url": "https://github.com/o/r/pull/42"}`)
	})

	pr, err := c.CreatePR(context.Background(), "o", "r", "title", "body", "feature", "main")
	require.NoError(t, err)
	require.Equal(t, 42, pr.Number)
	require.Equal(t, "https://github.com/o/r/pull/42", pr.URL)
}

func TestClient_CreatePR_IdempotentOnAlreadyExists(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost:
			w.WriteHeader(http.StatusUnprocessableEntity)
			fmt.Fprint(w, `{"message":"Validation Failed","errors":[{"message":"A pull request already exists for o:feature."}]}`)
		case r.Method == http.MethodGet:
			fmt.Fprint(w, `[{"number": 7, "html_url": "https://github.com/o/r/pull/7"}]`)
		}
	})

	pr, err := c.CreatePR(context.Background(), "o", "r", "title", "body", "feature", "main")
	require.NoError(t, err)
	require.Equal(t, 7, pr.Number)
}
