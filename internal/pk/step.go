// Package pk advances three-compartment plus effect-site drug models with
// a fixed-step forward Euler integrator. The reference step is one second;
// every catalog drug keeps its rate constants small enough to stay stable
// at that step.
package pk

import (
	"somnus/internal/drug"
	"somnus/internal/model"
)

// Step integrates one drug's compartments over dtSeconds. A bolus lands in
// the central compartment instantaneously as amount/V1; an infusion
// contributes rate*(dt/60)/V1. The effect site relaxes toward the central
// concentration at ke0. Outputs never go below zero.
func Step(state model.PKState, def drug.Definition, bolusAmount, infusionRatePerMinute, dtSeconds float64) model.PKState {
	dtMinutes := dtSeconds / 60.0

	central := state.Central
	if def.V1 > 0 {
		central += bolusAmount / def.V1
		central += infusionRatePerMinute * dtMinutes / def.V1
	}
	p1 := state.Peripheral1
	p2 := state.Peripheral2
	ce := state.EffectSite

	dCentral := -(def.K10+def.K12+def.K13)*central + def.K21*p1 + def.K31*p2
	dP1 := def.K12*central - def.K21*p1
	dP2 := def.K13*central - def.K31*p2
	dCe := def.Ke0 * (central - ce)

	return model.PKState{
		Central:     clampZero(central + dCentral*dtMinutes),
		Peripheral1: clampZero(p1 + dP1*dtMinutes),
		Peripheral2: clampZero(p2 + dP2*dtMinutes),
		EffectSite:  clampZero(ce + dCe*dtMinutes),
	}
}

func clampZero(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}
