package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/moverscan/internal/model"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "json", cfg.Store.Driver)
	assert.Equal(t, "data/moving_companies.json", cfg.Store.Path)
	assert.Equal(t, 10, cfg.Fetch.TimeoutSecs)
	assert.Equal(t, 4, cfg.Pipeline.MaxConcurrent)
	assert.Equal(t, 2, cfg.Pipeline.PerHostIntervalSecs)
	assert.Equal(t, "24h", cfg.Schedule.Every)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestExpandSources_Plain(t *testing.T) {
	cfg := &Config{Sources: []SourceConfig{
		{Name: "angies_list", URL: "https://directory.example/movers", Strategy: "structural"},
		{Name: "search", Query: "top moving companies USA", MaxResults: 5},
	}}

	descs := cfg.ExpandSources()
	require.Len(t, descs, 2)
	assert.Equal(t, model.StrategyStructural, descs[0].Strategy)
	assert.False(t, descs[0].IsListing())
	// Strategy defaults to model when unset.
	assert.Equal(t, model.StrategyModel, descs[1].Strategy)
	assert.True(t, descs[1].IsListing())
}

func TestExpandSources_RegionalFanOut(t *testing.T) {
	cfg := &Config{
		Regions: []string{"East Coast", "West Coast"},
		Sources: []SourceConfig{
			{Name: "regional", Query: "best moving companies {region} USA", MaxResults: 3},
		},
	}

	descs := cfg.ExpandSources()
	require.Len(t, descs, 2)
	assert.Equal(t, "regional:east_coast", descs[0].Name)
	assert.Equal(t, "best moving companies East Coast USA", descs[0].Query)
	assert.Equal(t, "regional:west_coast", descs[1].Name)
	assert.Equal(t, 3, descs[1].MaxResults)
}

func TestExpandSources_SourceRegionsOverrideGlobal(t *testing.T) {
	cfg := &Config{
		Regions: []string{"Midwest"},
		Sources: []SourceConfig{
			{Name: "r", Query: "movers {region}", Regions: []string{"South"}},
		},
	}

	descs := cfg.ExpandSources()
	require.Len(t, descs, 1)
	assert.Equal(t, "movers South", descs[0].Query)
}

func TestExpandSources_PlaceholderWithoutRegions(t *testing.T) {
	cfg := &Config{Sources: []SourceConfig{
		{Name: "r", Query: "movers {region}"},
	}}

	descs := cfg.ExpandSources()
	require.Len(t, descs, 1)
	// No regions configured: the query passes through untouched.
	assert.Equal(t, "movers {region}", descs[0].Query)
}
