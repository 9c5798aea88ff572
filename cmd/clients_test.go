//go:build !integration

package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/repriselab/prospect-cli/internal/config"
)

func TestInitStore_UnsupportedDriver(t *testing.T) {
	cfg = &config.Config{Store: config.StoreConfig{Driver: "oracle"}}

	_, err := initStore(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported store driver")
}

func TestInitPipeline_RequiresToken(t *testing.T) {
	cfg = &config.Config{}

	_, _, err := initPipeline()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "API token")
}
