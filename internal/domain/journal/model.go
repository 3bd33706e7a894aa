// Package journal provides journals: named sequences of transactions.
// Each journal numbers its transactions independently per fiscal year.
package journal

import (
	"context"

	"kontor/internal/core/apperror"
	"kontor/internal/core/id"
)

// Journal groups transactions under a code. Exactly one journal carries
// the closing flag; it receives auto-generated closing and lot-migration
// transactions.
type Journal struct {
	ID          id.ID  `db:"id" json:"id"`
	Code        string `db:"code" json:"code"`
	Description string `db:"description" json:"description,omitempty"`
	Closing     bool   `db:"closing" json:"closing"`
}

// Validate implements self-validation without database access.
func (j *Journal) Validate(ctx context.Context) error {
	if j.Code == "" {
		return apperror.NewValidation("journal code is required").
			WithDetail("field", "code")
	}
	return nil
}

// String renders the journal by its code.
func (j *Journal) String() string {
	return j.Code
}
