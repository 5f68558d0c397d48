package errs

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindMatching(t *testing.T) {
	cause := errors.New("connection refused")
	err := Storage("count rows", cause)

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrStorage))
	assert.False(t, errors.Is(err, ErrConfiguration))
	assert.True(t, errors.Is(err, cause), "cause must stay reachable")
	assert.Equal(t, KindStorage, KindOf(err))
	assert.Equal(t, "[STORAGE] count rows: connection refused", err.Error())
}

func TestStorageNilCause(t *testing.T) {
	assert.NoError(t, Storage("noop", nil))
}

func TestStorageFlattensNestedStorage(t *testing.T) {
	cause := errors.New("deadlock")
	inner := Storage("worker 3: insert", cause)
	outer := Storage("load", inner)

	assert.Equal(t, "[STORAGE] load: worker 3: insert: deadlock", outer.Error())
	assert.True(t, errors.Is(outer, cause))
}

func TestConfigurationAndAggregation(t *testing.T) {
	cfg := Configuration("bench", "table is empty")
	assert.Equal(t, "[CONFIGURATION] bench: table is empty", cfg.Error())
	assert.True(t, errors.Is(cfg, ErrConfiguration))

	agg := Aggregation("pk_hit", "expected %d samples, got %d", 10, 9)
	assert.Equal(t, KindAggregation, KindOf(agg))
	assert.Contains(t, agg.Error(), "expected 10 samples, got 9")
}

func TestKindOfForeign(t *testing.T) {
	assert.Equal(t, Kind(""), KindOf(errors.New("plain")))
	wrapped := fmt.Errorf("outer: %w", Configuration("x", "y"))
	assert.Equal(t, KindConfiguration, KindOf(wrapped))
}
