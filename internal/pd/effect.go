// Package pd turns effect-site concentrations into a combined sedation
// effect in [0,1] and a discrete MOASS level. Drugs are partitioned by
// role: reversal agents antagonize their targets, opioids contribute up
// to a fixed ceiling and potentiate hypnotics, hypnotics carry the rest.
package pd

import (
	"math"

	"somnus/internal/drug"
)

const (
	// Opioids alone cause drowsiness but never deep sedation.
	OpioidSedationCeiling = 0.22
	// Maximum EC50 left-shift opioids can impose on hypnotics.
	MaxPotentiation = 0.35
)

// Level thresholds, inclusive at the low boundary: effect below the first
// threshold is level 5 (awake); at or above the last is level 0.
var levelThresholds = [...]float64{0.10, 0.25, 0.45, 0.65, 0.85}

// Entry pairs a catalog drug with its current effect-site concentration.
type Entry struct {
	Drug       drug.Definition
	EffectSite float64
}

// Hill is the fractional sigmoid effect ce^g / (ec50^g + ce^g).
func Hill(ce, ec50, gamma float64) float64 {
	if ce <= 0 || ec50 <= 0 || gamma <= 0 {
		return 0
	}
	cg := math.Pow(ce, gamma)
	return cg / (math.Pow(ec50, gamma) + cg)
}

// CombinedEffect applies the role-partitioned interaction model:
// reversal antagonism first, then opioids (ceiling-capped, complement
// product), then potentiated hypnotics, then one final complement merge.
// Monotonic in every concentration and bounded in [0,1]; an empty entry
// set yields 0.
func CombinedEffect(entries []Entry) float64 {
	antagonism := make(map[string]float64)
	for _, e := range entries {
		targets, ok := drug.ReversalTargets(e.Drug.Name)
		if !ok {
			continue
		}
		effect := Hill(e.EffectSite, e.Drug.EC50, e.Drug.Gamma)
		for _, target := range targets {
			a := antagonism[target] + effect
			if a > 1 {
				a = 1
			}
			antagonism[target] = a
		}
	}

	opioidRaw := 1.0
	for _, e := range entries {
		if !drug.IsOpioid(e.Drug.Name) {
			continue
		}
		ce := e.EffectSite * (1 - antagonism[e.Drug.Name])
		opioidRaw *= 1 - Hill(ce, e.Drug.EC50, e.Drug.Gamma)
	}
	opioidRaw = 1 - opioidRaw

	opioidContribution := opioidRaw
	if opioidContribution > OpioidSedationCeiling {
		opioidContribution = OpioidSedationCeiling
	}
	potentiation := opioidRaw
	if potentiation > MaxPotentiation {
		potentiation = MaxPotentiation
	}

	hypnotic := 1.0
	for _, e := range entries {
		if !drug.IsHypnotic(e.Drug.Name) {
			continue
		}
		ce := e.EffectSite * (1 - antagonism[e.Drug.Name])
		ec50 := e.Drug.EC50 * (1 - potentiation)
		hypnotic *= 1 - Hill(ce, ec50, e.Drug.Gamma)
	}
	hypnotic = 1 - hypnotic

	combined := 1 - (1-hypnotic)*(1-opioidContribution)
	if combined < 0 {
		return 0
	}
	if combined > 1 {
		return 1
	}
	return combined
}

// OpioidEffect is the raw (uncapped) combined opioid Hill effect after
// reversal antagonism. The physiology engine uses it for respiratory
// depression and vagal heart-rate effects.
func OpioidEffect(entries []Entry) float64 {
	antagonism := make(map[string]float64)
	for _, e := range entries {
		targets, ok := drug.ReversalTargets(e.Drug.Name)
		if !ok {
			continue
		}
		effect := Hill(e.EffectSite, e.Drug.EC50, e.Drug.Gamma)
		for _, target := range targets {
			a := antagonism[target] + effect
			if a > 1 {
				a = 1
			}
			antagonism[target] = a
		}
	}

	acc := 1.0
	for _, e := range entries {
		if !drug.IsOpioid(e.Drug.Name) {
			continue
		}
		ce := e.EffectSite * (1 - antagonism[e.Drug.Name])
		acc *= 1 - Hill(ce, e.Drug.EC50, e.Drug.Gamma)
	}
	return 1 - acc
}

// HypnoticEffect is the complement-product of hypnotic Hill effects at
// their native EC50s, with no opioid potentiation applied.
func HypnoticEffect(entries []Entry) float64 {
	acc := 1.0
	for _, e := range entries {
		if !drug.IsHypnotic(e.Drug.Name) {
			continue
		}
		acc *= 1 - Hill(e.EffectSite, e.Drug.EC50, e.Drug.Gamma)
	}
	return 1 - acc
}

// EffectToLevel maps a combined effect onto the six-level MOASS scale,
// 5 (awake) down to 0 (unresponsive).
func EffectToLevel(effect float64) int {
	level := 5
	for _, threshold := range levelThresholds {
		if effect >= threshold {
			level--
		}
	}
	return level
}
