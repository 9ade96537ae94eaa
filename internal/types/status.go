package types

// Status tracks the lifecycle of a persisted resource and determines whether
// it is included in queries. Soft deletes set StatusDeleted, rows are never
// physically removed.
type Status string

const (
	StatusPublished Status = "published"
	StatusArchived  Status = "archived"
	StatusDeleted   Status = "deleted"
)
