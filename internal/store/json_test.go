package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/moverscan/internal/model"
)

func newTestJSONStore(t *testing.T) *JSONStore {
	t.Helper()
	st, err := NewJSON(filepath.Join(t.TempDir(), "data", "moving_companies.json"))
	require.NoError(t, err)
	return st
}

func TestJSONStore_MissingFileIsEmpty(t *testing.T) {
	st := newTestJSONStore(t)

	records, err := st.LoadAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestJSONStore_RoundTrip(t *testing.T) {
	st := newTestJSONStore(t)
	ctx := context.Background()

	rating := 4.8
	years := 12
	saved := []model.CompanyRecord{
		{
			Name:            "Atlas Van Lines",
			Website:         "https://atlas.example",
			Phone:           "(800) 638-9797",
			Headquarters:    "Evansville, IN",
			LocationsServed: []string{"Indiana", "Kentucky"},
			Rating:          &rating,
			Services:        []string{"long distance", "storage"},
			YearsInBusiness: &years,
			Description:     "Nationwide carrier.",
			Source:          "angies_list",
			LastUpdated:     time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			// Optional fields all absent.
			Name:        "New Movers Co",
			Source:      "movingcom",
			LastUpdated: time.Date(2024, 6, 2, 0, 0, 0, 0, time.UTC),
		},
	}

	require.NoError(t, st.SaveAll(ctx, saved))
	loaded, err := st.LoadAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, saved, loaded)
}

func TestJSONStore_RoundTripEmpty(t *testing.T) {
	st := newTestJSONStore(t)
	ctx := context.Background()

	require.NoError(t, st.SaveAll(ctx, nil))
	loaded, err := st.LoadAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, loaded)
}

func TestJSONStore_CorruptFile(t *testing.T) {
	st := newTestJSONStore(t)
	require.NoError(t, os.WriteFile(st.path, []byte("{not json"), 0o644))

	_, err := st.LoadAll(context.Background())
	var cse *CorruptStoreError
	require.True(t, errors.As(err, &cse))
	assert.Equal(t, st.path, cse.Path)
}

func TestJSONStore_LegacyFlatSchema(t *testing.T) {
	st := newTestJSONStore(t)
	legacy := `[{"name":"Two Men","phone":"555","website":"https://twomen.example","source":"search","last_updated":"2023-01-01T00:00:00Z"}]`
	require.NoError(t, os.WriteFile(st.path, []byte(legacy), 0o644))

	records, err := st.LoadAll(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Two Men", records[0].Name)
	assert.Nil(t, records[0].Rating)
}

func TestJSONStore_SaveReplacesWholeDocument(t *testing.T) {
	st := newTestJSONStore(t)
	ctx := context.Background()

	require.NoError(t, st.SaveAll(ctx, []model.CompanyRecord{{Name: "A", Source: "s"}, {Name: "B", Source: "s"}}))
	require.NoError(t, st.SaveAll(ctx, []model.CompanyRecord{{Name: "C", Source: "s"}}))

	records, err := st.LoadAll(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "C", records[0].Name)

	// No temp files left behind.
	entries, err := os.ReadDir(filepath.Dir(st.path))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}
