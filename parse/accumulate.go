package parse

import "time"

// Outcome reports what one Apply call changed.
type Outcome struct {
	// InfoChanged is true when the modem-info record gained or replaced a
	// value; the caller should re-emit the info document.
	InfoChanged bool
	// SampleReady is true when the sample record holds a timestamp plus at
	// least one anchor field and should be persisted. Persisting does not
	// clear the record; it is a most-recent-known-state table.
	SampleReady bool
}

// Accumulator merges decoded field maps into the two running records: the
// static modem-info record and the dynamic sample record. It is owned by
// the single scheduling goroutine and needs no locking.
type Accumulator struct {
	now       func() time.Time
	modemInfo FieldMap
	sample    FieldMap
}

// NewAccumulator returns an empty accumulator stamping samples with the
// given clock. A nil clock uses time.Now.
func NewAccumulator(now func() time.Time) *Accumulator {
	if now == nil {
		now = time.Now
	}
	return &Accumulator{
		now:       now,
		modemInfo: FieldMap{},
		sample:    FieldMap{},
	}
}

// Apply routes each decoded field to its record: static identity facts
// into the modem-info record, everything else into the sample record.
// Merging is monotonic; keys are only ever added or overwritten. Any
// dynamic field refreshes the sample timestamp.
func (a *Accumulator) Apply(fields FieldMap) Outcome {
	var out Outcome
	dynamic := false
	for k, v := range fields {
		if staticFields[k] {
			if old, ok := a.modemInfo[k]; !ok || !old.Equal(v) {
				out.InfoChanged = true
			}
			a.modemInfo[k] = v
			continue
		}
		a.sample[k] = v
		dynamic = true
	}
	if dynamic {
		a.sample[FieldTimestamp] = String(a.now().Format(time.RFC3339))
	}
	out.SampleReady = a.sampleComplete()
	return out
}

// sampleComplete checks the persistence threshold: a timestamp plus at
// least one anchor field.
func (a *Accumulator) sampleComplete() bool {
	if _, ok := a.sample[FieldTimestamp]; !ok {
		return false
	}
	for _, f := range anchorFields {
		if _, ok := a.sample[f]; ok {
			return true
		}
	}
	return false
}

// ModemInfo returns a copy of the modem-info record.
func (a *Accumulator) ModemInfo() FieldMap { return a.modemInfo.Clone() }

// Sample returns a copy of the current sample record.
func (a *Accumulator) Sample() FieldMap { return a.sample.Clone() }
