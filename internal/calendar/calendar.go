// Package calendar answers "was this a trading day" for each exchange.
//
// All five exchanges share the weekend rule; national holidays arrive as an
// injected closure table (they change yearly and are config, not code).
// Components that need the calendar depend on the Calendar interface so
// tests can substitute a fixed one.
package calendar

import (
	"time"

	"github.com/rickgao/futures-data/internal/model"
)

// Calendar reports trading days per exchange.
type Calendar interface {
	IsTradingDay(ex model.Exchange, d model.Date) bool
}

// Table is a Calendar backed by a holiday closure list. The zero value
// treats every weekday as a trading day.
type Table struct {
	closed map[model.Date]struct{}
}

// NewTable builds a Table from holiday dates (all exchanges close
// together on national holidays).
func NewTable(holidays []model.Date) *Table {
	t := &Table{closed: make(map[model.Date]struct{}, len(holidays))}
	for _, d := range holidays {
		t.closed[d] = struct{}{}
	}
	return t
}

// IsTradingDay reports whether the exchange traded on d: a weekday that is
// not a listed holiday.
func (t *Table) IsTradingDay(_ model.Exchange, d model.Date) bool {
	switch d.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	}
	if t.closed != nil {
		if _, ok := t.closed[d]; ok {
			return false
		}
	}
	return true
}
