// Copyright 2025 Shadow Atlas Contributors
//
// Redistricting gap detection: attaches a warning (never a failure) when a
// legislative layer's map was finalized before TIGER published matching
// geometry (spec section 4.3.3).

package validator

import (
	"fmt"
	"time"

	"github.com/shadowatlas/atlas/pkg/boundary"
	"github.com/shadowatlas/atlas/pkg/reference"
)

// CheckRedistrictingGap returns a warning if layer is in-gap for the given
// state as of asOf, or nil otherwise.
func CheckRedistrictingGap(layer boundary.Type, stateFIPS string, asOf time.Time) *boundary.RedistrictingGapWarning {
	if !reference.IsLegislativeLayer(layer) {
		return nil
	}
	entry := reference.CalendarFor(stateFIPS, layer)
	if !reference.InRedistrictingGap(stateFIPS, layer, asOf) {
		return nil
	}
	return &boundary.RedistrictingGapWarning{
		GapType:              boundary.GapTypePostFinalizationPreTiger,
		FinalizationDate:     entry.FinalizationDate,
		TigerPublicationDate: entry.TigerPublicationDate,
		CourtChallenge:       entry.CourtChallengePending,
		Recommendation:       "use-primary",
	}
}

// WarningText renders a gap warning as the human-readable reasoning string
// attached to ValidationResult.Warnings.
func WarningText(w *boundary.RedistrictingGapWarning) string {
	if w == nil {
		return ""
	}
	return fmt.Sprintf("redistricting gap: finalized %s, TIGER publishes %s, court challenge pending=%v, recommendation=%s",
		w.FinalizationDate.Format("2006-01-02"), w.TigerPublicationDate.Format("2006-01-02"), w.CourtChallenge, w.Recommendation)
}
