package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// Metadata is a free-form string map persisted as JSONB. Callers may tag
// subscriptions, checkout sessions and ledger transactions with their own
// identifiers; nothing in the billing flow interprets the keys.
type Metadata map[string]string

// Scan implements sql.Scanner. A NULL column scans to an empty, non-nil map so
// callers never have to nil-check before writing.
func (m *Metadata) Scan(value any) error {
	if value == nil {
		*m = Metadata{}
		return nil
	}

	var raw []byte
	switch v := value.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("metadata: cannot scan %T", value)
	}

	result := Metadata{}
	if err := json.Unmarshal(raw, &result); err != nil {
		return err
	}
	*m = result
	return nil
}

// Value implements driver.Valuer. A nil map is stored as an empty object, not
// NULL, so JSONB lookups never need a coalesce.
func (m Metadata) Value() (driver.Value, error) {
	if m == nil {
		return json.Marshal(Metadata{})
	}
	return json.Marshal(m)
}
