package repository

import (
	"time"

	"worktracker/internal/model"
)

// fromDatePtr binds an optional Date to a nullable DATE parameter.
func fromDatePtr(d *model.Date) *time.Time {
	if d == nil {
		return nil
	}
	t, _ := d.Value()
	tt := t.(time.Time)
	return &tt
}
