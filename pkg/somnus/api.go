// Package somnus is the public facade over the simulation core. UI and
// state-management layers consume these function-style contracts and
// the session type; they never reach into internal packages.
package somnus

import (
	"fmt"
	"math/rand"

	"somnus/internal/drug"
	"somnus/internal/eeg"
	"somnus/internal/model"
	"somnus/internal/pd"
	"somnus/internal/physio"
	"somnus/internal/pk"
	"somnus/internal/predict"
	"somnus/internal/rhythm"
	"somnus/internal/session"
	"somnus/internal/twin"
)

// Re-exported data shapes. Consumers read these records; they never
// mutate engine internals through them.
type (
	Patient            = model.Patient
	PKState            = model.PKState
	Vitals             = model.Vitals
	TickRecord         = model.TickRecord
	RunRecord          = model.RunRecord
	PredictionSnapshot = model.PredictionSnapshot

	Rhythm       = rhythm.Rhythm
	RhythmInputs = rhythm.Inputs
	RhythmResult = rhythm.Result
	EEGInputs    = eeg.Inputs
	EEGState     = eeg.State
	DigitalTwin  = twin.Twin

	Session          = session.Session
	SessionConfig    = session.Config
	HypotheticalDose = predict.HypotheticalDose
)

var ErrUnknownDrug = drug.ErrDrugNotFound

// DrugNames lists the catalog in sorted order.
func DrugNames() []string {
	return drug.Names()
}

// StepPK advances one drug's compartment model by dt seconds.
func StepPK(state PKState, drugName string, bolusAmount, infusionRatePerMinute, dtSeconds float64) (PKState, error) {
	def, ok := drug.Lookup(drugName)
	if !ok {
		return PKState{}, fmt.Errorf("%w: %s", ErrUnknownDrug, drugName)
	}
	if dtSeconds < 0 {
		return PKState{}, fmt.Errorf("dt must not be negative: %f", dtSeconds)
	}
	return pk.Step(state, def, bolusAmount, infusionRatePerMinute, dtSeconds), nil
}

// CombinedEffect maps effect-site concentrations by drug name to the
// combined sedation fraction in [0,1]. Unknown names are an error.
func CombinedEffect(effectSiteByDrug map[string]float64) (float64, error) {
	entries := make([]pd.Entry, 0, len(effectSiteByDrug))
	for name, ce := range effectSiteByDrug {
		def, ok := drug.Lookup(name)
		if !ok {
			return 0, fmt.Errorf("%w: %s", ErrUnknownDrug, name)
		}
		entries = append(entries, pd.Entry{Drug: def, EffectSite: ce})
	}
	return pd.CombinedEffect(entries), nil
}

// EffectToLevel maps a combined effect to the MOASS level, 5 awake
// down to 0 unresponsive.
func EffectToLevel(effect float64) int {
	return pd.EffectToLevel(effect)
}

// CalculateVitals derives one tick of vitals. A nil rng disables the
// respiratory jitter, which makes the call deterministic.
func CalculateVitals(states map[string]PKState, patient Patient, prev Vitals, fio2 float64, rng *rand.Rand) Vitals {
	return physio.CalculateVitals(states, patient, prev, fio2, rng)
}

// DetermineRhythm runs the prioritized rhythm decision table.
func DetermineRhythm(in RhythmInputs) RhythmResult {
	return rhythm.Determine(in)
}

// ACLSGuidance returns the ordered treatment steps for a rhythm.
func ACLSGuidance(r Rhythm) []string {
	return rhythm.ACLSGuidance(r)
}

// GenerateEEG advances the EEG model by one update.
func GenerateEEG(in EEGInputs, rng *rand.Rand) EEGState {
	return eeg.Generate(in, rng)
}

// CreateDigitalTwin derives the patient-specific risk view.
func CreateDigitalTwin(patient Patient) *DigitalTwin {
	return twin.Create(patient)
}

// UpdateTwin recomputes the twin's risk scores for the current tick.
func UpdateTwin(t *DigitalTwin, states map[string]PKState, vitals Vitals, current Rhythm) {
	t.Update(states, vitals, current)
}

// PredictForward replays the engines ahead of the live state without
// mutating it.
func PredictForward(
	states map[string]PKState,
	infusions map[string]float64,
	patient Patient,
	fio2 float64,
	vitals Vitals,
	offsets []int,
	dose *HypotheticalDose,
) ([]PredictionSnapshot, error) {
	return predict.Forward(states, infusions, patient, fio2, vitals, offsets, dose)
}

// NewSession creates a live simulation for one patient.
func NewSession(cfg SessionConfig) (*Session, error) {
	return session.New(cfg)
}

// PatientArchetype instantiates a named preset patient.
func PatientArchetype(name string) (Patient, error) {
	return session.Archetype(name)
}

// PatientArchetypes lists the available presets.
func PatientArchetypes() []string {
	return session.ArchetypeNames()
}
