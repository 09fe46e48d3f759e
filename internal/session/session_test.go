package session

import (
	"testing"

	"github.com/stretchr/testify/require"

	"somnus/internal/drug"
	"somnus/internal/model"
	"somnus/internal/predict"
	"somnus/internal/rhythm"
)

func newTestSession(t *testing.T) *Session {
	t.Helper()
	patient, err := Archetype(ArchetypeHealthyAdult)
	require.NoError(t, err)
	s, err := New(Config{Patient: patient, Seed: 42})
	require.NoError(t, err)
	return s
}

func TestNewValidation(t *testing.T) {
	_, err := New(Config{Patient: model.Patient{Name: "no body"}})
	require.ErrorIs(t, err, ErrInvalidPatient)

	patient, err := Archetype(ArchetypeHealthyAdult)
	require.NoError(t, err)
	_, err = New(Config{Patient: patient, FiO2: 1.5})
	require.ErrorIs(t, err, ErrInvalidFiO2)
}

func TestTickRejectsNonPositiveDt(t *testing.T) {
	s := newTestSession(t)
	_, err := s.Tick(0)
	require.ErrorIs(t, err, ErrNonPositiveDt)
	_, err = s.Tick(-1)
	require.ErrorIs(t, err, ErrNonPositiveDt)
}

func TestDoseValidation(t *testing.T) {
	s := newTestSession(t)
	require.ErrorIs(t, s.Bolus("thiopental", 50), drug.ErrDrugNotFound)
	require.ErrorIs(t, s.Bolus(drug.Propofol, -1), ErrNegativeDose)
	require.ErrorIs(t, s.SetInfusion("thiopental", 5), drug.ErrDrugNotFound)
	require.ErrorIs(t, s.SetInfusion(drug.Propofol, -5), ErrNegativeDose)
	require.ErrorIs(t, s.SetFiO2(0.1), ErrInvalidFiO2)
}

func TestDrugFreeTicksHoldBaseline(t *testing.T) {
	s := newTestSession(t)
	for i := 0; i < 120; i++ {
		_, err := s.Tick(1)
		require.NoError(t, err)
	}
	v := s.Vitals()
	require.InDelta(t, 75, v.HeartRate, 8)
	require.InDelta(t, 14, v.RespiratoryRate, 3)
	require.GreaterOrEqual(t, v.SpO2, 97.0)
	require.Equal(t, rhythm.NormalSinus, s.Rhythm())

	_, level := s.Effect()
	require.Equal(t, 5, level)
	require.Equal(t, 100.0, s.Twin().Risks.Awareness)
}

// A propofol induction bolus sedates without a respiratory crisis.
func TestPropofolInductionScenario(t *testing.T) {
	s := newTestSession(t)
	require.NoError(t, s.Bolus(drug.Propofol, 100))

	minLevel := 5
	minSpO2 := 100.0
	minRR := 100.0
	for i := 0; i < 360; i++ {
		rec, err := s.Tick(1)
		require.NoError(t, err)

		if rec.MOASS < minLevel {
			minLevel = rec.MOASS
		}
		if rec.Vitals.SpO2 < minSpO2 {
			minSpO2 = rec.Vitals.SpO2
		}
		if rec.Vitals.RespiratoryRate < minRR {
			minRR = rec.Vitals.RespiratoryRate
		}
		r := rhythm.Rhythm(rec.Rhythm)
		require.Contains(t,
			[]rhythm.Rhythm{rhythm.NormalSinus, rhythm.SinusBradycardia, rhythm.SinusTachycardia},
			r, "tick %d", i)
	}

	require.LessOrEqual(t, minLevel, 3, "induction should reach moderate sedation")
	require.GreaterOrEqual(t, minLevel, 1, "a single 100 mg bolus is not unresponsive")
	require.GreaterOrEqual(t, minSpO2, 94.0, "no desaturation crisis expected")
	require.Less(t, minRR, 13.0, "respiratory rate should dip")
}

// Adding a large fentanyl dose on top of induction causes apnea,
// desaturation below 80 and a hypoxic rhythm, and the twin must see it.
func TestOpioidOverdoseScenario(t *testing.T) {
	s := newTestSession(t)
	require.NoError(t, s.Bolus(drug.Propofol, 100))
	require.NoError(t, s.Bolus(drug.Fentanyl, 500))

	minSpO2 := 100.0
	maxDesat := 0.0
	sawHypoxicRhythm := false
	hypoxic := map[rhythm.Rhythm]struct{}{
		rhythm.SVT: {}, rhythm.AtrialFib: {}, rhythm.FrequentPVCs: {},
		rhythm.PolymorphicVT: {}, rhythm.VTach: {}, rhythm.VFib: {},
		rhythm.PEA: {}, rhythm.Asystole: {},
	}
	for i := 0; i < 600; i++ {
		rec, err := s.Tick(1)
		require.NoError(t, err)
		if rec.Vitals.SpO2 < minSpO2 {
			minSpO2 = rec.Vitals.SpO2
		}
		if _, ok := hypoxic[rhythm.Rhythm(rec.Rhythm)]; ok {
			sawHypoxicRhythm = true
		}
		if d := s.Twin().Risks.Desaturation; d > maxDesat {
			maxDesat = d
		}
	}

	require.Less(t, minSpO2, 80.0, "overdose must desaturate below 80")
	require.True(t, sawHypoxicRhythm, "classifier must escalate past sinus rhythms")
	require.Greater(t, maxDesat, 50.0, "twin desaturation risk must exceed 50")
}

func TestNaloxoneRestoresBreathing(t *testing.T) {
	s := newTestSession(t)
	require.NoError(t, s.Bolus(drug.Fentanyl, 400))
	for i := 0; i < 240; i++ {
		_, err := s.Tick(1)
		require.NoError(t, err)
	}
	depressed := s.Vitals().RespiratoryRate

	require.NoError(t, s.Bolus(drug.Naloxone, 400))
	for i := 0; i < 240; i++ {
		_, err := s.Tick(1)
		require.NoError(t, err)
	}
	require.Greater(t, s.Vitals().RespiratoryRate, depressed,
		"naloxone should lift respiratory depression")
}

func TestSwitchPatientResetsEverything(t *testing.T) {
	s := newTestSession(t)
	require.NoError(t, s.Bolus(drug.Propofol, 120))
	require.NoError(t, s.SetInfusion(drug.Propofol, 30))
	for i := 0; i < 60; i++ {
		_, err := s.Tick(1)
		require.NoError(t, err)
	}
	require.NotEmpty(t, s.History())
	require.Positive(t, s.States()[drug.Propofol].EffectSite)

	frail, err := Archetype(ArchetypeElderlyFrail)
	require.NoError(t, err)
	require.NoError(t, s.SwitchPatient(frail))

	require.Empty(t, s.History())
	require.Empty(t, s.States())
	require.Zero(t, s.Elapsed())
	require.Equal(t, rhythm.NormalSinus, s.Rhythm())
	require.Equal(t, frail.Name, s.Patient().Name)
	require.Nil(t, s.EEG())

	v := s.Vitals()
	require.Equal(t, 75.0, v.HeartRate)
	require.Equal(t, 99.0, v.SpO2)
}

func TestTickProducesEEGAndHistory(t *testing.T) {
	s := newTestSession(t)
	require.NoError(t, s.Bolus(drug.Propofol, 80))
	var last model.TickRecord
	for i := 0; i < 10; i++ {
		rec, err := s.Tick(1)
		require.NoError(t, err)
		last = rec
	}

	st := s.EEG()
	require.NotNil(t, st)
	require.Len(t, st.Channels, 4)
	require.NotEmpty(t, st.Channels[0].Samples)
	require.Equal(t, last.EEGIndex, st.Index)

	hist := s.History()
	require.Len(t, hist, 10)
	require.Equal(t, 10.0, hist[9].Seconds)
	require.Positive(t, hist[9].Vitals.QRSWidthMs)
}

func TestPredictLeavesSessionUntouched(t *testing.T) {
	s := newTestSession(t)
	require.NoError(t, s.Bolus(drug.Propofol, 60))
	for i := 0; i < 30; i++ {
		_, err := s.Tick(1)
		require.NoError(t, err)
	}
	before := s.States()
	beforeVitals := s.Vitals()

	snaps, err := s.Predict([]int{60, 180}, &predict.HypotheticalDose{
		Drug: drug.Propofol, Amount: 50,
	})
	require.NoError(t, err)
	require.Len(t, snaps, 2)
	require.Equal(t, before, s.States())
	require.Equal(t, beforeVitals, s.Vitals())
}

func TestArchetypes(t *testing.T) {
	require.Equal(t,
		[]string{ArchetypeCOPD, ArchetypeElderlyFrail, ArchetypeHealthyAdult, ArchetypeObeseOSA},
		ArchetypeNames())

	a, err := Archetype(ArchetypeObeseOSA)
	require.NoError(t, err)
	b, err := Archetype(ArchetypeObeseOSA)
	require.NoError(t, err)
	require.NotEqual(t, a.ID, b.ID, "each instantiation gets a fresh ID")
	require.True(t, a.HasOSA)
	require.Greater(t, a.BMI(), 30.0)

	_, err = Archetype("cyborg")
	require.Error(t, err)
}
