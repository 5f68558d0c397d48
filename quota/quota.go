// Package quota splits a unit count across a fixed pool of workers. The same
// split is used for rows to insert, warmup operations and measured operations.
package quota

import "errors"

// ErrNoWork is returned by Partition when there is nothing to split. Callers
// treat it as an already-satisfied request.
var ErrNoWork = errors.New("quota: total is zero")

// Partition splits total across workers. Worker i gets total/workers, plus
// one if i < total%workers, so the quotas sum to total and differ by at most
// one. A worker count below one is treated as one.
func Partition(total uint64, workers int) ([]uint64, error) {
	if workers < 1 {
		workers = 1
	}
	if total == 0 {
		return nil, ErrNoWork
	}
	n := uint64(workers)
	base, rem := total/n, total%n

	quotas := make([]uint64, workers)
	for i := range quotas {
		quotas[i] = base
		if uint64(i) < rem {
			quotas[i]++
		}
	}
	return quotas, nil
}

// Spread is Partition for callers where a zero total is legitimate, such as
// a benchmark without warmup. It returns one zero quota per worker instead
// of ErrNoWork.
func Spread(total uint64, workers int) []uint64 {
	quotas, err := Partition(total, workers)
	if err != nil {
		if workers < 1 {
			workers = 1
		}
		return make([]uint64, workers)
	}
	return quotas
}

// ClampWorkers bounds a requested worker count to [1, total] so no worker is
// spawned with an empty quota.
func ClampWorkers(requested int, total uint64) int {
	if requested < 1 {
		requested = 1
	}
	if total > 0 && uint64(requested) > total {
		return int(total)
	}
	return requested
}
