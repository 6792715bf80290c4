package shared

// CurrentSchemaVersion is the record layout written by this service:
// charge-aware invoices and dual-dated payments.
const CurrentSchemaVersion = 2

// AggregateRoot is the base interface for all aggregate roots
type AggregateRoot interface {
	Entity
	GetVersion() int
	IncrementVersion()
}

// BaseAggregateRoot provides common fields for aggregate roots
type BaseAggregateRoot struct {
	BaseEntity
	// Version is used for optimistic locking
	Version int
	// SchemaVersion records which record layout wrote this aggregate
	SchemaVersion int
}

// GetVersion returns the aggregate version for optimistic locking
func (a *BaseAggregateRoot) GetVersion() int {
	return a.Version
}

// IncrementVersion increments the version number
func (a *BaseAggregateRoot) IncrementVersion() {
	a.Version++
}

// IsLegacy reports whether the aggregate predates the current record layout.
func (a *BaseAggregateRoot) IsLegacy() bool {
	return a.SchemaVersion < CurrentSchemaVersion
}

// NewBaseAggregateRoot creates a new base aggregate root
func NewBaseAggregateRoot() BaseAggregateRoot {
	return BaseAggregateRoot{
		BaseEntity:    NewBaseEntity(),
		Version:       1,
		SchemaVersion: CurrentSchemaVersion,
	}
}
