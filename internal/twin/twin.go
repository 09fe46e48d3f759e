// Package twin maintains a patient-specific risk view over the live
// simulation: physiology modifiers derived once from the patient
// record, and risk scores recomputed from scratch every tick.
package twin

import (
	"sort"

	"somnus/internal/drug"
	"somnus/internal/model"
	"somnus/internal/pd"
	"somnus/internal/rhythm"
)

// Modifiers are derived once at twin creation from age, BMI and
// comorbidity flags. All are multipliers around a nominal 1.0.
type Modifiers struct {
	CardiacOutput    float64 `json:"cardiac_output"`
	HepaticClearance float64 `json:"hepatic_clearance"`
	RenalClearance   float64 `json:"renal_clearance"`
	BrainSensitivity float64 `json:"brain_sensitivity"`
	RespiratoryDrive float64 `json:"respiratory_drive"`
}

// Risks are 0-100 scores recomputed every tick, with no smoothing of
// their own.
type Risks struct {
	Hypotension            float64 `json:"hypotension"`
	Desaturation           float64 `json:"desaturation"`
	Awareness              float64 `json:"awareness"`
	Arrhythmia             float64 `json:"arrhythmia"`
	TimeToEmergenceSeconds float64 `json:"time_to_emergence_seconds"`
}

type Twin struct {
	Patient   model.Patient `json:"patient"`
	Modifiers Modifiers     `json:"modifiers"`
	Risks     Risks         `json:"risks"`
	Guidance  []string      `json:"guidance"`
}

// Blend weights for the concentration-threshold and live-vitals terms
// of the hypotension and desaturation risks.
const (
	concWeight   = 0.6
	vitalsWeight = 0.4

	awarenessEffectThreshold = 0.45
	emergenceScaleSeconds    = 1500.0
)

// Create derives the physiology modifiers from the patient record.
// The twin is recreated whenever the patient archetype changes.
func Create(patient model.Patient) *Twin {
	bmi := patient.BMI()

	co := 1.0 - 0.005*over(patient.Age, 30)
	if bmi > 35 {
		co -= 0.1
	}

	hepatic := 1.0 - 0.004*over(patient.Age, 40)
	if patient.HepaticImpairment {
		hepatic *= 0.55
	}

	renal := 1.0 - 0.005*over(patient.Age, 40)
	if patient.RenalImpairment {
		renal *= 0.6
	}

	brain := 1.0 + 0.01*over(patient.Age, 40)
	if patient.ASAClass >= 3 {
		brain += 0.1
	}

	drive := 1.0
	if patient.HasOSA {
		drive *= 0.85
	}
	if patient.HasCOPD {
		drive *= 0.8
	}
	if bmi > 30 {
		drive -= 0.08
	}

	return &Twin{
		Patient: patient,
		Modifiers: Modifiers{
			CardiacOutput:    clamp(co, 0.6, 1.2),
			HepaticClearance: clamp(hepatic, 0.3, 1.2),
			RenalClearance:   clamp(renal, 0.3, 1.2),
			BrainSensitivity: clamp(brain, 0.5, 2.0),
			RespiratoryDrive: clamp(drive, 0.4, 1.2),
		},
	}
}

// Update recomputes every risk score from the current drug states,
// vitals and rhythm. Scores carry no memory across ticks.
func (t *Twin) Update(states map[string]model.PKState, vitals model.Vitals, current rhythm.Rhythm) {
	entries := pdEntries(states)
	effect := pd.CombinedEffect(entries)
	opioid := pd.OpioidEffect(entries)
	hypnotic := pd.HypnoticEffect(entries)

	// Hypotension: vasodilating drug load blended with the live SBP.
	hypoConc := clamp(hypnotic*140*(2-t.Modifiers.CardiacOutput), 0, 100)
	hypoVitals := clamp((100-vitals.SystolicBP)*2.5, 0, 100)
	t.Risks.Hypotension = concWeight*hypoConc + vitalsWeight*hypoVitals

	// Desaturation: respiratory-depressant load blended with SpO2.
	desatConc := clamp(opioid*110*(2-t.Modifiers.RespiratoryDrive), 0, 100)
	desatVitals := clamp((94-vitals.SpO2)*8, 0, 100)
	t.Risks.Desaturation = concWeight*desatConc + vitalsWeight*desatVitals

	// Awareness: inverse of sedation pressure below the threshold.
	pressure := effect * t.Modifiers.BrainSensitivity
	if pressure < awarenessEffectThreshold {
		t.Risks.Awareness = clamp(
			(awarenessEffectThreshold-pressure)/awarenessEffectThreshold*100, 0, 100)
	} else {
		t.Risks.Awareness = 0
	}

	// Arrhythmia: hypoxia term plus a high-dose cardiotoxicity term.
	hypoxia := clamp((90-vitals.SpO2)*4, 0, 100)
	lastLoad := 0.0
	for _, name := range drug.LocalAnesthetics() {
		lastLoad += states[name].EffectSite
	}
	dose := clamp(states[drug.Propofol].EffectSite*8+lastLoad*9, 0, 100)
	t.Risks.Arrhythmia = 0.6*hypoxia + 0.4*dose

	t.Risks.TimeToEmergenceSeconds =
		effect * emergenceScaleSeconds / t.Modifiers.HepaticClearance

	t.Guidance = rhythm.ACLSGuidance(current)
}

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

func over(age, pivot int) float64 {
	if age <= pivot {
		return 0
	}
	return float64(age - pivot)
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
