package app

import (
	"github.com/shopspring/decimal"
)

// BatchResult summarizes the submissions of one block.
type BatchResult struct {
	Submitted   int
	Failed      int
	Ratio       decimal.Decimal
	HighEntropy bool
}

// Succeeded returns the number of accepted transactions.
func (r BatchResult) Succeeded() int {
	return r.Submitted - r.Failed
}

// Monitor applies the failure policy and keeps session totals.
type Monitor struct {
	threshold    decimal.Decimal
	exitOnTxFail bool

	submitted int
	failed    int
}

func NewMonitor(threshold decimal.Decimal, exitOnTxFail bool) *Monitor {
	return &Monitor{threshold: threshold, exitOnTxFail: exitOnTxFail}
}

// AbortOnFailure reports whether a single failed submission ends the session.
func (m *Monitor) AbortOnFailure() bool {
	return m.exitOnTxFail
}

// Observe records one batch. The ratio must strictly exceed the threshold to
// flag high entropy; an empty batch never does.
func (m *Monitor) Observe(submitted, failed int) BatchResult {
	m.submitted += submitted
	m.failed += failed

	res := BatchResult{Submitted: submitted, Failed: failed, Ratio: decimal.Zero}
	if submitted == 0 {
		return res
	}

	res.Ratio = decimal.NewFromInt(int64(failed)).Div(decimal.NewFromInt(int64(submitted)))
	res.HighEntropy = res.Ratio.GreaterThan(m.threshold)
	return res
}

// Totals returns the session-wide counts.
func (m *Monitor) Totals() (submitted, failed int) {
	return m.submitted, m.failed
}
