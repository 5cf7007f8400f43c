// Package pipeline orchestrates a full update run: fetch, normalize,
// classify, synthesize, commit.
//
// Exchanges run in parallel up to a configured cap. Dates within one
// exchange always run sequentially and ascending, because continuous
// contract synthesis needs the previous date's main selection and the
// coverage checkpoint only moves forward. A date commits atomically per
// product; any unrecovered error on a date stalls that product for the
// rest of the run so the checkpoint never skips over a failure.
package pipeline
