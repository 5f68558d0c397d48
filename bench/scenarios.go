package bench

import (
	"math/rand/v2"

	"dbperf/errs"
	"dbperf/gen"
	"dbperf/store"
)

// Binding says what parameter a scenario query takes.
type Binding int

const (
	// BindNone runs the query without parameters.
	BindNone Binding = iota
	// BindPrimaryKey binds an id drawn uniformly from [1, max id].
	BindPrimaryKey
	// BindSecondaryKey binds a user id drawn uniformly from the key space.
	BindSecondaryKey
)

func (b Binding) String() string {
	switch b {
	case BindPrimaryKey:
		return "pk"
	case BindSecondaryKey:
		return "secondary"
	default:
		return "none"
	}
}

// Scenario is one named read operation with a template per dialect.
type Scenario struct {
	Name    string
	Queries map[store.Dialect]string
	Binding Binding
}

// Query returns the template for d.
func (s Scenario) Query(d store.Dialect) (string, error) {
	q, ok := s.Queries[d]
	if !ok || q == "" {
		return "", errs.Configuration("scenario "+s.Name, "no query template for dialect %s", d)
	}
	return q, nil
}

// Bind draws the scenario's parameters.
func (s Scenario) Bind(rng *rand.Rand, maxID uint64) []any {
	switch s.Binding {
	case BindPrimaryKey:
		return []any{int64(rng.Uint64N(maxID)) + 1}
	case BindSecondaryKey:
		return []any{rng.Int64N(gen.KeySpace) + 1}
	default:
		return nil
	}
}

var catalog = []Scenario{
	{
		Name:    "pk_hit",
		Binding: BindPrimaryKey,
		Queries: map[store.Dialect]string{
			store.MySQL:    "SELECT id FROM events WHERE id = ?",
			store.Postgres: "SELECT id FROM events WHERE id = $1",
			store.SQLite:   "SELECT id FROM events WHERE id = ?",
		},
	},
	{
		Name:    "user_lookup",
		Binding: BindSecondaryKey,
		Queries: map[store.Dialect]string{
			store.MySQL:    "SELECT id FROM events WHERE user_id = ? ORDER BY created_at DESC LIMIT 1",
			store.Postgres: "SELECT id FROM events WHERE user_id = $1 ORDER BY created_at DESC LIMIT 1",
			store.SQLite:   "SELECT id FROM events WHERE user_id = ? ORDER BY created_at DESC LIMIT 1",
		},
	},
	{
		Name: "range_small",
		Queries: map[store.Dialect]string{
			store.MySQL:    "SELECT id FROM events WHERE created_at BETWEEN DATE_SUB(NOW(), INTERVAL 1 DAY) AND NOW() ORDER BY created_at DESC LIMIT 50",
			store.Postgres: "SELECT id FROM events WHERE created_at BETWEEN (NOW() - INTERVAL '1 day') AND NOW() ORDER BY created_at DESC LIMIT 50",
			store.SQLite:   "SELECT id FROM events WHERE created_at BETWEEN datetime('now', '-1 day') AND datetime('now') ORDER BY created_at DESC LIMIT 50",
		},
	},
	{
		Name: "range_large",
		Queries: map[store.Dialect]string{
			store.MySQL:    "SELECT id FROM events WHERE created_at BETWEEN DATE_SUB(NOW(), INTERVAL 30 DAY) AND NOW() ORDER BY created_at DESC LIMIT 200",
			store.Postgres: "SELECT id FROM events WHERE created_at BETWEEN (NOW() - INTERVAL '30 day') AND NOW() ORDER BY created_at DESC LIMIT 200",
			store.SQLite:   "SELECT id FROM events WHERE created_at BETWEEN datetime('now', '-30 days') AND datetime('now') ORDER BY created_at DESC LIMIT 200",
		},
	},
	{
		Name: "order_page",
		Queries: map[store.Dialect]string{
			store.MySQL:    "SELECT id FROM events ORDER BY created_at DESC LIMIT 50 OFFSET 100",
			store.Postgres: "SELECT id FROM events ORDER BY created_at DESC LIMIT 50 OFFSET 100",
			store.SQLite:   "SELECT id FROM events ORDER BY created_at DESC LIMIT 50 OFFSET 100",
		},
	},
}

// Catalog returns every scenario in run order.
func Catalog() []Scenario {
	return append([]Scenario(nil), catalog...)
}

// Select returns the named scenarios in catalog order. No names selects all.
func Select(names []string) ([]Scenario, error) {
	if len(names) == 0 {
		return Catalog(), nil
	}
	want := make(map[string]bool, len(names))
	for _, n := range names {
		want[n] = true
	}
	var out []Scenario
	for _, sc := range catalog {
		if want[sc.Name] {
			out = append(out, sc)
			delete(want, sc.Name)
		}
	}
	for n := range want {
		return nil, errs.Configuration("bench", "unknown scenario %q", n)
	}
	return out, nil
}

// Names lists the catalog's scenario names.
func Names() []string {
	names := make([]string, len(catalog))
	for i, sc := range catalog {
		names[i] = sc.Name
	}
	return names
}
