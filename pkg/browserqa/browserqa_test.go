package browserqa

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNoopRunner_ReturnsZeroResult(t *testing.T) {
	r := NoopRunner{}
	result, err := r.Run(context.Background(), "https://example.com")
	require.NoError(t, err)
	assert.Equal(t, Result{}, result)
}
