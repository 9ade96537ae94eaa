package product

import (
	ierr "github.com/meterline/meterline/internal/errors"
	"github.com/meterline/meterline/internal/types"
)

// Product is a sellable item of an organization.
type Product struct {
	ID            string         `db:"id" json:"id"`
	Name          string         `db:"name" json:"name"`
	Description   string         `db:"description" json:"description"`
	Metadata      types.Metadata `db:"metadata" json:"metadata"`
	EnvironmentID string         `db:"environment_id" json:"environment_id"`
	types.BaseModel
}

func (p *Product) TableName() string {
	return "products"
}

func (p *Product) Validate() error {
	if p.Name == "" {
		return ierr.NewError("name is required").
			WithHint("Product name is required").
			Mark(ierr.ErrValidation)
	}
	return nil
}
