package aggregates

// Contract describes how an aggregate owns its writes. It is informational
// and surfaces in logs and tests; nothing dispatches on it.
type Contract struct {
	Name string
	// TxOwned is true when every write method opens and commits its own
	// transaction, so callers must not pass one in.
	TxOwned bool
	// Reads lists the lookups the aggregate performs to decide a write.
	// Everything else is a table repo query.
	Reads []string
	Notes string
}

type Aggregate interface {
	Contract() Contract
}
