package somnus

import (
	"errors"
	"testing"
)

func TestStepPKErrors(t *testing.T) {
	_, err := StepPK(PKState{}, "thiopental", 10, 0, 1)
	if !errors.Is(err, ErrUnknownDrug) {
		t.Fatalf("expected unknown-drug error, got %v", err)
	}
	if _, err := StepPK(PKState{}, "propofol", 10, 0, -1); err == nil {
		t.Fatal("negative dt must be rejected")
	}
}

func TestStepPKBolus(t *testing.T) {
	state, err := StepPK(PKState{}, "propofol", 100, 0, 1)
	if err != nil {
		t.Fatalf("step: %v", err)
	}
	if state.Central <= 0 {
		t.Fatal("bolus should raise the central concentration")
	}
}

func TestCombinedEffectFacade(t *testing.T) {
	effect, err := CombinedEffect(map[string]float64{"propofol": 3.4})
	if err != nil {
		t.Fatalf("combined effect: %v", err)
	}
	if effect < 0.45 || effect > 0.55 {
		t.Fatalf("propofol at EC50 should sit near 0.5, got %f", effect)
	}
	if level := EffectToLevel(effect); level != 2 {
		t.Fatalf("expected level 2, got %d", level)
	}

	if _, err := CombinedEffect(map[string]float64{"ether": 1}); !errors.Is(err, ErrUnknownDrug) {
		t.Fatalf("expected unknown-drug error, got %v", err)
	}

	empty, err := CombinedEffect(nil)
	if err != nil {
		t.Fatalf("combined effect: %v", err)
	}
	if empty != 0 || EffectToLevel(empty) != 5 {
		t.Fatal("no drugs means effect 0, level 5")
	}
}

func TestVitalsRhythmGuidancePipeline(t *testing.T) {
	patient, err := PatientArchetype("healthy-adult")
	if err != nil {
		t.Fatalf("archetype: %v", err)
	}

	prev := Vitals{HeartRate: 75, SystolicBP: 120, DiastolicBP: 80,
		MAP: 93.3, RespiratoryRate: 14, SpO2: 99, EtCO2: 38}
	v := CalculateVitals(map[string]PKState{}, patient, prev, 0.21, nil)
	if v.SpO2 < 95 {
		t.Fatalf("drug-free vitals should stay near baseline, SpO2 %f", v.SpO2)
	}

	res := DetermineRhythm(RhythmInputs{Vitals: v, Previous: "normal_sinus", Sensitivity: 1})
	if res.Rhythm != "normal_sinus" {
		t.Fatalf("expected sinus rhythm, got %s", res.Rhythm)
	}
	if len(ACLSGuidance(res.Rhythm)) == 0 {
		t.Fatal("sinus rhythm still has guidance")
	}
}

func TestTwinAndEEGFacade(t *testing.T) {
	patient, err := PatientArchetype("elderly-frail")
	if err != nil {
		t.Fatalf("archetype: %v", err)
	}
	tw := CreateDigitalTwin(patient)
	if tw.Modifiers.RenalClearance >= 1 {
		t.Fatal("frail archetype should have reduced renal clearance")
	}

	UpdateTwin(tw, map[string]PKState{}, Vitals{SystolicBP: 120, SpO2: 99}, "normal_sinus")
	if tw.Risks.Awareness != 100 {
		t.Fatalf("undosed patient is aware, got %f", tw.Risks.Awareness)
	}

	st := GenerateEEG(EEGInputs{PropofolCe: 3, Age: patient.Age}, nil)
	if len(st.Channels) != 4 || st.Index >= 100 {
		t.Fatalf("unexpected EEG state: %d channels, index %f", len(st.Channels), st.Index)
	}
}

func TestSessionFacade(t *testing.T) {
	patient, err := PatientArchetype("healthy-adult")
	if err != nil {
		t.Fatalf("archetype: %v", err)
	}
	s, err := NewSession(SessionConfig{Patient: patient, Seed: 1})
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	if err := s.Bolus("propofol", 80); err != nil {
		t.Fatalf("bolus: %v", err)
	}
	rec, err := s.Tick(1)
	if err != nil {
		t.Fatalf("tick: %v", err)
	}
	if rec.Seconds != 1 {
		t.Fatalf("expected first tick at 1s, got %f", rec.Seconds)
	}

	snaps, err := PredictForward(s.States(), nil, patient, 0.21, s.Vitals(),
		[]int{60}, &HypotheticalDose{Drug: "propofol", Amount: 40})
	if err != nil {
		t.Fatalf("predict: %v", err)
	}
	if len(snaps) != 1 || snaps[0].SecondsAhead != 60 {
		t.Fatalf("unexpected snapshots: %+v", snaps)
	}
}

func TestDrugNamesSorted(t *testing.T) {
	names := DrugNames()
	if len(names) != 11 {
		t.Fatalf("expected 11 catalog drugs, got %d", len(names))
	}
	for i := 1; i < len(names); i++ {
		if names[i-1] >= names[i] {
			t.Fatalf("names must be sorted: %s before %s", names[i-1], names[i])
		}
	}
}
