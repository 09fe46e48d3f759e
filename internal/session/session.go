// Package session owns the single authoritative simulation state and
// drives the per-tick pipeline: PK integration, PD combination,
// physiology, rhythm classification, EEG synthesis and twin update.
// Callers must serialize ticks; the session enforces that with a mutex.
package session

import (
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"sync"

	"go.uber.org/zap"

	"somnus/internal/drug"
	"somnus/internal/eeg"
	"somnus/internal/model"
	"somnus/internal/pd"
	"somnus/internal/physio"
	"somnus/internal/pk"
	"somnus/internal/predict"
	"somnus/internal/rhythm"
	"somnus/internal/twin"
)

var (
	ErrNonPositiveDt  = errors.New("dt must be positive")
	ErrNegativeDose   = errors.New("dose must not be negative")
	ErrInvalidFiO2    = errors.New("fio2 must be between 0.21 and 1.0")
	ErrInvalidPatient = errors.New("patient must have positive weight and height")
)

// Nanograms per milliliter to micrograms per milliliter, for the
// fentanyl term of the EEG index.
const ngToUg = 1.0 / 1000.0

type Config struct {
	Patient model.Patient
	FiO2    float64 // 0 means room air (0.21)
	Seed    int64
	Logger  *zap.Logger // nil means no logging
}

// Session is the live simulation. One instance per simulated patient;
// the forward predictor branches off a copy and never touches it.
type Session struct {
	mu  sync.Mutex
	log *zap.Logger
	rng *rand.Rand

	patient   model.Patient
	twin      *twin.Twin
	states    map[string]model.PKState
	pending   map[string]float64 // boluses applied at the next tick
	infusions map[string]float64
	fio2      float64

	vitals      model.Vitals
	effect      float64
	level       int
	current     rhythm.Rhythm
	arrestStart *float64
	eegState    *eeg.State

	elapsed float64
	history []model.TickRecord
}

func New(cfg Config) (*Session, error) {
	if cfg.Patient.WeightKg <= 0 || cfg.Patient.HeightCm <= 0 {
		return nil, ErrInvalidPatient
	}
	fio2 := cfg.FiO2
	if fio2 == 0 {
		fio2 = 0.21
	}
	if fio2 < 0.21 || fio2 > 1.0 {
		return nil, ErrInvalidFiO2
	}
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	s := &Session{
		log:  log,
		rng:  rand.New(rand.NewSource(cfg.Seed)),
		fio2: fio2,
	}
	s.reset(cfg.Patient)
	return s, nil
}

// reset installs a patient and zeroes every piece of dependent state.
// Callers hold the mutex (or are New).
func (s *Session) reset(patient model.Patient) {
	s.patient = patient
	s.twin = twin.Create(patient)
	s.states = make(map[string]model.PKState)
	s.pending = make(map[string]float64)
	s.infusions = make(map[string]float64)
	s.vitals = baselineVitals()
	s.effect = 0
	s.level = pd.EffectToLevel(0)
	s.current = rhythm.NormalSinus
	s.arrestStart = nil
	s.eegState = nil
	s.elapsed = 0
	s.history = nil
}

func baselineVitals() model.Vitals {
	return model.Vitals{
		HeartRate:       physio.BaselineHeartRate,
		SystolicBP:      physio.BaselineSystolic,
		DiastolicBP:     physio.BaselineDiastolic,
		MAP:             (physio.BaselineSystolic + 2*physio.BaselineDiastolic) / 3,
		RespiratoryRate: physio.BaselineRR,
		SpO2:            physio.BaselineSpO2,
		EtCO2:           physio.BaselineEtCO2,
	}
}

// Bolus queues a dose for the next tick. Amount is in mg for drugs
// measured in ug/mL and in ug for drugs measured in ng/mL.
func (s *Session) Bolus(name string, amount float64) error {
	if amount < 0 {
		return fmt.Errorf("%w: %s %f", ErrNegativeDose, name, amount)
	}
	if _, ok := drug.Lookup(name); !ok {
		return fmt.Errorf("%w: %s", drug.ErrDrugNotFound, name)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending[name] += amount
	s.log.Debug("bolus queued", zap.String("drug", name), zap.Float64("amount", amount))
	return nil
}

// SetInfusion sets a continuous rate per minute; zero stops it.
func (s *Session) SetInfusion(name string, ratePerMinute float64) error {
	if ratePerMinute < 0 {
		return fmt.Errorf("%w: %s %f", ErrNegativeDose, name, ratePerMinute)
	}
	if _, ok := drug.Lookup(name); !ok {
		return fmt.Errorf("%w: %s", drug.ErrDrugNotFound, name)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if ratePerMinute == 0 {
		delete(s.infusions, name)
	} else {
		s.infusions[name] = ratePerMinute
	}
	s.log.Debug("infusion set", zap.String("drug", name), zap.Float64("rate", ratePerMinute))
	return nil
}

func (s *Session) SetFiO2(fio2 float64) error {
	if fio2 < 0.21 || fio2 > 1.0 {
		return fmt.Errorf("%w: %f", ErrInvalidFiO2, fio2)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fio2 = fio2
	return nil
}

// SwitchPatient replaces the patient record and resets all dependent
// state, including the twin and the tick history.
func (s *Session) SwitchPatient(patient model.Patient) error {
	if patient.WeightKg <= 0 || patient.HeightCm <= 0 {
		return ErrInvalidPatient
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reset(patient)
	s.log.Info("patient switched", zap.String("name", patient.Name))
	return nil
}

// Tick advances the whole pipeline by dt seconds and returns the tick
// record appended to the history.
func (s *Session) Tick(dtSeconds float64) (model.TickRecord, error) {
	if dtSeconds <= 0 {
		return model.TickRecord{}, fmt.Errorf("%w: %f", ErrNonPositiveDt, dtSeconds)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, name := range s.activeDrugs() {
		def, _ := drug.Lookup(name)
		s.states[name] = pk.Step(s.states[name], def, s.pending[name], s.infusions[name], dtSeconds)
		delete(s.pending, name)
	}

	entries := s.pdEntries()
	s.effect = pd.CombinedEffect(entries)
	s.level = pd.EffectToLevel(s.effect)

	s.vitals = physio.CalculateVitals(s.states, s.patient, s.vitals, s.fio2, s.rng)

	s.elapsed += dtSeconds
	res := rhythm.Determine(rhythm.Inputs{
		Vitals:         s.vitals,
		EffectSite:     s.effectSites(),
		Sensitivity:    s.patient.Sensitivity,
		Previous:       s.current,
		ElapsedSeconds: s.elapsed,
		ArrestStart:    s.arrestStart,
	})
	s.current = res.Rhythm
	s.arrestStart = res.ArrestStart
	s.vitals.QRSWidthMs = res.Intervals.QRSWidthMs
	s.vitals.PRIntervalMs = res.Intervals.PRIntervalMs
	s.vitals.QTIntervalMs = res.Intervals.QTIntervalMs

	st := eeg.Generate(eeg.Inputs{
		PropofolCe:  s.states[drug.Propofol].EffectSite,
		DexCe:       s.states[drug.Dexmedetomidine].EffectSite,
		KetamineCe:  s.states[drug.Ketamine].EffectSite,
		MidazolamCe: s.states[drug.Midazolam].EffectSite,
		FentanylCe:  s.states[drug.Fentanyl].EffectSite * ngToUg,
		Age:         s.patient.Age,
		SimTime:     s.elapsed,
		Previous:    s.eegState,
	}, s.rng)
	s.eegState = &st

	s.twin.Update(s.states, s.vitals, s.current)

	rec := model.TickRecord{
		Seconds:  s.elapsed,
		Vitals:   s.vitals,
		Effect:   s.effect,
		MOASS:    s.level,
		Rhythm:   string(s.current),
		EEGIndex: st.Index,
	}
	s.history = append(s.history, rec)

	if rhythm.IsLethal(s.current) {
		s.log.Warn("lethal rhythm",
			zap.String("rhythm", string(s.current)),
			zap.Float64("spo2", s.vitals.SpO2),
			zap.Float64("map", s.vitals.MAP))
	}
	return rec, nil
}

// Predict branches the current state forward without mutating it.
func (s *Session) Predict(offsets []int, dose *predict.HypotheticalDose) ([]model.PredictionSnapshot, error) {
	s.mu.Lock()
	states := make(map[string]model.PKState, len(s.states))
	for name, st := range s.states {
		states[name] = st
	}
	infusions := make(map[string]float64, len(s.infusions))
	for name, rate := range s.infusions {
		infusions[name] = rate
	}
	patient := s.patient
	fio2 := s.fio2
	vitals := s.vitals
	s.mu.Unlock()

	return predict.Forward(states, infusions, patient, fio2, vitals, offsets, dose)
}

func (s *Session) Vitals() model.Vitals {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.vitals
}

func (s *Session) Effect() (float64, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.effect, s.level
}

func (s *Session) Rhythm() rhythm.Rhythm {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

func (s *Session) Patient() model.Patient {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.patient
}

// EEG returns a copy of the latest EEG state, or nil before the first
// tick.
func (s *Session) EEG() *eeg.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.eegState == nil {
		return nil
	}
	cp := *s.eegState
	cp.Channels = make([]eeg.Channel, len(s.eegState.Channels))
	for i, ch := range s.eegState.Channels {
		cp.Channels[i] = eeg.Channel{
			Name:    ch.Name,
			Samples: append([]float64(nil), ch.Samples...),
		}
	}
	return &cp
}

// Twin returns a copy of the current risk view.
func (s *Session) Twin() twin.Twin {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *s.twin
	cp.Guidance = append([]string(nil), s.twin.Guidance...)
	return cp
}

func (s *Session) States() map[string]model.PKState {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]model.PKState, len(s.states))
	for name, st := range s.states {
		out[name] = st
	}
	return out
}

func (s *Session) History() []model.TickRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.TickRecord(nil), s.history...)
}

func (s *Session) Elapsed() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.elapsed
}

// activeDrugs is the sorted union of dosed, infusing and already
// circulating drugs. Sorted so tick arithmetic is reproducible.
func (s *Session) activeDrugs() []string {
	set := make(map[string]struct{}, len(s.states)+len(s.pending)+len(s.infusions))
	for name := range s.states {
		set[name] = struct{}{}
	}
	for name := range s.pending {
		set[name] = struct{}{}
	}
	for name := range s.infusions {
		set[name] = struct{}{}
	}
	names := make([]string, 0, len(set))
	for name := range set {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (s *Session) pdEntries() []pd.Entry {
	entries := make([]pd.Entry, 0, len(s.states))
	for _, name := range s.activeDrugs() {
		def, ok := drug.Lookup(name)
		if !ok {
			continue
		}
		entries = append(entries, pd.Entry{Drug: def, EffectSite: s.states[name].EffectSite})
	}
	return entries
}

func (s *Session) effectSites() map[string]float64 {
	out := make(map[string]float64, len(s.states))
	for name, st := range s.states {
		out[name] = st.EffectSite
	}
	return out
}
