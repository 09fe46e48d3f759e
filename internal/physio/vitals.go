// Package physio derives vital signs from drug effect-site concentrations
// and patient traits. The derivation order matters: respiratory rate feeds
// gas exchange, SpO2 feeds the cardiovascular reflexes. Degenerate inputs
// saturate at physiological extremes instead of erroring.
package physio

import (
	"math"
	"math/rand"
	"sort"

	"somnus/internal/drug"
	"somnus/internal/model"
	"somnus/internal/pd"
)

// Baseline vitals of the unmedicated reference patient.
const (
	BaselineHeartRate = 75.0
	BaselineSystolic  = 120.0
	BaselineDiastolic = 80.0
	BaselineRR        = 14.0
	BaselineSpO2      = 99.0
	BaselineEtCO2     = 38.0
)

const (
	atmosphericPressure = 760.0
	waterVaporPressure  = 47.0
	respiratoryQuotient = 0.8
	normalPaCO2         = 40.0

	// Oxygen-hemoglobin dissociation curve.
	odcP50      = 26.6
	odcExponent = 2.7

	// Fingertip oximeters read a couple of points above the dissociation
	// curve near the top; without this the healthy baseline lands at ~97.
	oximeterCalibration = 2.0

	// One-second tick against a ~30 s pulse-oximeter time constant.
	spo2SmoothingAlpha = 1.0 / 30.0

	minVentilationRatio = 0.1
)

// CalculateVitals derives one tick of vitals. prev supplies the previous
// tick's displayed SpO2 for the oximeter lag (a zero prev.SpO2 means the
// monitor was just attached and the reading snaps to the true value).
// rng adds small respiratory jitter; pass nil for deterministic output.
func CalculateVitals(states map[string]model.PKState, patient model.Patient, prev model.Vitals, fio2 float64, rng *rand.Rand) model.Vitals {
	entries := pdEntries(states)
	opioid := pd.OpioidEffect(entries)
	hypnotic := pd.HypnoticEffect(entries)
	sens := sensitivity(patient)

	rr := respiratoryRate(opioid, hypnotic, sens, rng)
	ventRatio := rr / BaselineRR
	if ventRatio < minVentilationRatio {
		ventRatio = minVentilationRatio
	}

	spo2 := oxygenSaturation(ventRatio, patient, prev.SpO2, fio2)
	hr, sbp, dbp := hemodynamics(opioid, hypnotic, sens, spo2)
	mapv := (sbp + 2*dbp) / 3

	etco2 := clamp(BaselineEtCO2/ventRatio, 0, 100)

	return model.Vitals{
		HeartRate:       hr,
		SystolicBP:      sbp,
		DiastolicBP:     dbp,
		MAP:             mapv,
		RespiratoryRate: rr,
		SpO2:            spo2,
		EtCO2:           etco2,
	}
}

func respiratoryRate(opioid, hypnotic, sens float64, rng *rand.Rand) float64 {
	synergy := 1 + 0.8*opioid*hypnotic
	depression := (9.0*opioid + 6.0*hypnotic) * synergy * sens
	rr := BaselineRR - depression
	if rng != nil {
		rr += rng.NormFloat64() * 0.3
	}
	return clamp(rr, 0, 40)
}

func oxygenSaturation(ventRatio float64, patient model.Patient, prevSpO2, fio2 float64) float64 {
	if fio2 <= 0 {
		fio2 = 0.21
	}
	paCO2 := clamp(normalPaCO2/ventRatio, 20, 100)
	paO2 := fio2*(atmosphericPressure-waterVaporPressure) - paCO2/respiratoryQuotient

	// V/Q mismatch derating.
	if patient.BMI() > 30 {
		paO2 *= 0.88
	}
	if patient.HasOSA {
		paO2 *= 0.92
	}
	if patient.HasCOPD {
		paO2 *= 0.9
	}
	if ventRatio < 1 {
		paO2 *= math.Sqrt(ventRatio)
	}
	if paO2 < 1 {
		paO2 = 1
	}

	ratio := math.Pow(odcP50/paO2, odcExponent)
	trueSpO2 := clamp(100/(1+ratio)+oximeterCalibration, 0, 100)

	if prevSpO2 <= 0 {
		return trueSpO2
	}
	return clamp(prevSpO2+(trueSpO2-prevSpO2)*spo2SmoothingAlpha, 0, 100)
}

func hemodynamics(opioid, hypnotic, sens, spo2 float64) (hr, sbp, dbp float64) {
	// Vasodilation and myocardial depression scale with hypnotic depth.
	sbp = BaselineSystolic * (1 - 0.55*hypnotic*sens)
	dbp = BaselineDiastolic * (1 - 0.5*hypnotic*sens)
	hr = BaselineHeartRate * (1 - 0.25*hypnotic*sens - 0.2*opioid*sens)

	baselineMAP := (BaselineSystolic + 2*BaselineDiastolic) / 3
	mapv := (sbp + 2*dbp) / 3
	if deficit := baselineMAP - mapv; deficit > 0 {
		hr += 0.6 * deficit
	}
	if spo2 < 90 {
		hr += (90 - spo2) * 1.2
	}
	// Severe hypoxia flips tachycardia into pre-arrest bradycardia.
	if spo2 < 75 {
		override := math.Max(25, spo2*0.8)
		if hr > override {
			hr = override
		}
	}

	hr = clamp(hr, 15, 220)
	sbp = clamp(sbp, 20, 260)
	dbp = clamp(dbp, 10, 150)
	if dbp > sbp {
		dbp = sbp
	}
	return hr, sbp, dbp
}

// Entries are built in name order so repeated calls over the same
// states are bitwise reproducible.
func pdEntries(states map[string]model.PKState) []pd.Entry {
	names := make([]string, 0, len(states))
	for name := range states {
		names = append(names, name)
	}
	sort.Strings(names)

	entries := make([]pd.Entry, 0, len(names))
	for _, name := range names {
		def, ok := drug.Lookup(name)
		if !ok {
			continue
		}
		entries = append(entries, pd.Entry{Drug: def, EffectSite: states[name].EffectSite})
	}
	return entries
}

func sensitivity(patient model.Patient) float64 {
	if patient.Sensitivity <= 0 {
		return 1
	}
	return patient.Sensitivity
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
