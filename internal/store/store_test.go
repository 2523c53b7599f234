package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plantworks/oee-cli/internal/model"
)

func TestNewRecord_FlattensHeadlineNumbers(t *testing.T) {
	result := fixtureResult(t, "press-7")

	rec := NewRecord(result)
	assert.Empty(t, rec.ID)
	assert.True(t, rec.CreatedAt.IsZero())
	assert.Equal(t, "press-7", rec.MachineID)
	assert.Equal(t, "L1", rec.Line)
	assert.Equal(t, result.Window.Start, rec.WindowStart)
	assert.Equal(t, result.Window.End, rec.WindowEnd)
	assert.Equal(t, result.Core.OEE.Value, rec.OEE)
	assert.Equal(t, result.Core.Availability.Value, rec.Availability)
	assert.Equal(t, result.Core.Performance.Value, rec.Performance)
	assert.Equal(t, result.Core.Quality.Value, rec.Quality)
	assert.Equal(t, model.ConfidenceHigh, rec.Confidence)
	assert.Same(t, result, rec.Result)
}

func TestOpen_DefaultsToSQLite(t *testing.T) {
	st, err := Open(context.Background(), "", ":memory:")
	require.NoError(t, err)
	defer st.Close()

	assert.IsType(t, &SQLiteStore{}, st)
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), "oracle", "dsn")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown driver "oracle"`)
}
