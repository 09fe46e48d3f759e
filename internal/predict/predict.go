// Package predict replays the PK, PD and physiology engines forward
// from a copy of the live state to answer "what happens if I give this
// dose now". It never mutates the caller's state.
package predict

import (
	"fmt"
	"sort"

	"somnus/internal/drug"
	"somnus/internal/model"
	"somnus/internal/pd"
	"somnus/internal/physio"
	"somnus/internal/pk"
)

// HypotheticalDose is an optional bolus applied only at the first
// simulated second.
type HypotheticalDose struct {
	Drug   string
	Amount float64
}

const stepSeconds = 1.0

// Forward replays up to the largest offset at one-second resolution
// and returns one snapshot per requested offset, in ascending order.
// All inputs are copied before simulation; physiology jitter is
// disabled so identical inputs always yield identical snapshots.
func Forward(
	states map[string]model.PKState,
	infusions map[string]float64,
	patient model.Patient,
	fio2 float64,
	vitals model.Vitals,
	offsets []int,
	dose *HypotheticalDose,
) ([]model.PredictionSnapshot, error) {
	if len(offsets) == 0 {
		return nil, nil
	}
	if dose != nil {
		if _, ok := drug.Lookup(dose.Drug); !ok {
			return nil, fmt.Errorf("%w: %s", drug.ErrDrugNotFound, dose.Drug)
		}
	}

	branch := make(map[string]model.PKState, len(states)+len(infusions)+1)
	for name, st := range states {
		branch[name] = st
	}
	for name, rate := range infusions {
		if rate == 0 {
			continue
		}
		if _, ok := drug.Lookup(name); !ok {
			return nil, fmt.Errorf("%w: %s", drug.ErrDrugNotFound, name)
		}
		if _, ok := branch[name]; !ok {
			branch[name] = model.PKState{}
		}
	}
	if dose != nil {
		if _, ok := branch[dose.Drug]; !ok {
			branch[dose.Drug] = model.PKState{}
		}
	}

	wanted := make(map[int]struct{}, len(offsets))
	horizon := 0
	for _, off := range offsets {
		if off <= 0 {
			continue
		}
		wanted[off] = struct{}{}
		if off > horizon {
			horizon = off
		}
	}

	names := make([]string, 0, len(branch))
	for name := range branch {
		names = append(names, name)
	}
	sort.Strings(names)

	defs := make(map[string]drug.Definition, len(names))
	for _, name := range names {
		def, ok := drug.Lookup(name)
		if !ok {
			return nil, fmt.Errorf("%w: %s", drug.ErrDrugNotFound, name)
		}
		defs[name] = def
	}

	out := make([]model.PredictionSnapshot, 0, len(wanted))
	for second := 1; second <= horizon; second++ {
		for _, name := range names {
			bolus := 0.0
			if second == 1 && dose != nil && dose.Drug == name {
				bolus = dose.Amount
			}
			branch[name] = pk.Step(branch[name], defs[name], bolus, infusions[name], stepSeconds)
		}

		vitals = physio.CalculateVitals(branch, patient, vitals, fio2, nil)

		if _, ok := wanted[second]; !ok {
			continue
		}
		ce := make(map[string]float64, len(names))
		entries := make([]pd.Entry, 0, len(names))
		for _, name := range names {
			ce[name] = branch[name].EffectSite
			entries = append(entries, pd.Entry{Drug: defs[name], EffectSite: branch[name].EffectSite})
		}
		out = append(out, model.PredictionSnapshot{
			SecondsAhead:     second,
			EffectSiteByDrug: ce,
			MOASS:            pd.EffectToLevel(pd.CombinedEffect(entries)),
			SpO2:             vitals.SpO2,
			RespiratoryRate:  vitals.RespiratoryRate,
		})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].SecondsAhead < out[j].SecondsAhead })
	return out, nil
}
