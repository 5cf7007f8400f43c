// Package reconcile decides what to fetch and what to write.
//
// Plan turns a requested date range plus the persisted coverage checkpoint
// into the minimal ascending list of trading dates still missing; Classify
// compares freshly normalized bars against the rows already stored and tags
// each one Insert, Overwrite, or NoOp so callers can report actual changes
// instead of blind upserts. Both are pure given their inputs.
package reconcile
