package health

import "context"

// DBPinger checks database availability.
type DBPinger interface {
	Ping(ctx context.Context) error
}

// IndexChecker reports whether the resolution index holds a loaded mapping.
type IndexChecker interface {
	Ready() bool
}
