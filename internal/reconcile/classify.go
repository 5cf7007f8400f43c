package reconcile

import (
	"sort"

	"github.com/rickgao/futures-data/internal/model"
)

// Action says what an incoming bar means relative to storage.
type Action int

const (
	Insert    Action = iota // key absent
	Overwrite               // key present, content differs
	NoOp                    // key present, content identical
)

func (a Action) String() string {
	switch a {
	case Insert:
		return "insert"
	case Overwrite:
		return "overwrite"
	case NoOp:
		return "noop"
	}
	return "unknown"
}

// Decision pairs an incoming bar with its classification.
type Decision struct {
	Bar    model.DailyBar
	Action Action
}

// Classify tags each incoming bar against the stored rows for the same key
// space. NoOp requires exact field-wise equality; any numeric difference is
// an Overwrite. Results are ordered by (date, exchange, contract) so change
// reports are stable.
func Classify(incoming []model.DailyBar, existing map[model.BarKey]model.DailyBar) []Decision {
	decisions := make([]Decision, 0, len(incoming))
	for _, bar := range incoming {
		stored, ok := existing[bar.Key()]
		switch {
		case !ok:
			decisions = append(decisions, Decision{Bar: bar, Action: Insert})
		case stored == bar:
			decisions = append(decisions, Decision{Bar: bar, Action: NoOp})
		default:
			decisions = append(decisions, Decision{Bar: bar, Action: Overwrite})
		}
	}

	sort.Slice(decisions, func(i, j int) bool {
		a, b := decisions[i].Bar, decisions[j].Bar
		if a.TradeDate != b.TradeDate {
			return a.TradeDate.Before(b.TradeDate)
		}
		if a.Exchange != b.Exchange {
			return a.Exchange < b.Exchange
		}
		return a.ContractCode < b.ContractCode
	})
	return decisions
}

// Changed filters decisions down to the ones that need a storage write.
func Changed(decisions []Decision) []model.DailyBar {
	var out []model.DailyBar
	for _, d := range decisions {
		if d.Action != NoOp {
			out = append(out, d.Bar)
		}
	}
	return out
}

// Counts tallies decisions by action.
type Counts struct {
	Inserted    int
	Overwritten int
	Unchanged   int
}

// Count summarizes a decision list.
func Count(decisions []Decision) Counts {
	var c Counts
	for _, d := range decisions {
		switch d.Action {
		case Insert:
			c.Inserted++
		case Overwrite:
			c.Overwritten++
		case NoOp:
			c.Unchanged++
		}
	}
	return c
}
