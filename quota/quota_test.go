package quota

import (
	"errors"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPartitionRemainderGoesToFirstWorkers(t *testing.T) {
	quotas, err := Partition(17, 5)
	require.NoError(t, err)
	assert.Equal(t, []uint64{4, 4, 3, 3, 3}, quotas)
}

func TestPartitionEven(t *testing.T) {
	quotas, err := Partition(1000, 4)
	require.NoError(t, err)
	assert.Equal(t, []uint64{250, 250, 250, 250}, quotas)
}

func TestPartitionFewerUnitsThanWorkers(t *testing.T) {
	quotas, err := Partition(2, 4)
	require.NoError(t, err)
	assert.Equal(t, []uint64{1, 1, 0, 0}, quotas)
}

func TestPartitionZeroWorkersTreatedAsOne(t *testing.T) {
	quotas, err := Partition(9, 0)
	require.NoError(t, err)
	assert.Equal(t, []uint64{9}, quotas)
}

func TestPartitionZeroTotal(t *testing.T) {
	quotas, err := Partition(0, 3)
	assert.True(t, errors.Is(err, ErrNoWork))
	assert.Nil(t, quotas)
}

func TestSpreadZeroTotal(t *testing.T) {
	assert.Equal(t, []uint64{0, 0, 0}, Spread(0, 3))
	assert.Equal(t, []uint64{0}, Spread(0, 0))
	assert.Equal(t, []uint64{2, 1}, Spread(3, 2))
}

func TestClampWorkers(t *testing.T) {
	cases := []struct {
		name      string
		requested int
		total     uint64
		want      int
	}{
		{"fits", 4, 1000, 4},
		{"more workers than units", 16, 3, 3},
		{"zero requested", 0, 10, 1},
		{"negative requested", -2, 10, 1},
		{"zero total keeps request", 8, 0, 8},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ClampWorkers(tc.requested, tc.total))
		})
	}
}

func TestProperty_PartitionExactAndFair(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("quotas sum to the total", prop.ForAll(
		func(total uint64, workers int) bool {
			quotas, err := Partition(total, workers)
			if err != nil || len(quotas) != workers {
				return false
			}
			var sum uint64
			for _, q := range quotas {
				sum += q
			}
			return sum == total
		},
		gen.UInt64Range(1, 1<<40),
		gen.IntRange(1, 512),
	))

	properties.Property("quotas differ by at most one and are non-increasing", prop.ForAll(
		func(total uint64, workers int) bool {
			quotas, err := Partition(total, workers)
			if err != nil {
				return false
			}
			for i := 1; i < len(quotas); i++ {
				if quotas[i] > quotas[i-1] {
					return false
				}
			}
			return quotas[0]-quotas[len(quotas)-1] <= 1
		},
		gen.UInt64Range(1, 1<<40),
		gen.IntRange(1, 512),
	))

	properties.TestingRun(t)
}
