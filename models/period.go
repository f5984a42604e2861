package models

import "time"

// AccountingPeriod is a date range during which ledger postings are permitted.
// Dates are inclusive on both ends and compared at day granularity.
type AccountingPeriod struct {
	ID       uint      `json:"id" gorm:"primaryKey"`
	Name     string    `json:"name" gorm:"not null;unique"`
	StartsOn time.Time `json:"starts_on" gorm:"not null;index"`
	EndsOn   time.Time `json:"ends_on" gorm:"not null;index"`
	Open     bool      `json:"open" gorm:"not null;default:true"`

	CreatedAt time.Time `json:"created_at"`
}

// Contains reports whether the day of t falls inside the period.
func (p *AccountingPeriod) Contains(t time.Time) bool {
	day := t.Truncate(24 * time.Hour)
	return !day.Before(p.StartsOn.Truncate(24*time.Hour)) &&
		!day.After(p.EndsOn.Truncate(24*time.Hour))
}
