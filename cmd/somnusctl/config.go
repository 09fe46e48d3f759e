package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"somnus/internal/drug"
	"somnus/internal/model"
	"somnus/internal/session"
)

// Scenario is a declarative run script: a patient, a duration and a
// timeline of dosing events.
type Scenario struct {
	Name            string       `yaml:"name"`
	Archetype       string       `yaml:"archetype"`
	Patient         *PatientSpec `yaml:"patient"`
	FiO2            float64      `yaml:"fio2"`
	DurationSeconds int          `yaml:"duration_seconds"`
	Seed            int64        `yaml:"seed"`
	Events          []Event      `yaml:"events"`
}

// PatientSpec is an inline patient for scenarios that do not use a
// preset archetype.
type PatientSpec struct {
	Name              string  `yaml:"name"`
	Age               int     `yaml:"age"`
	WeightKg          float64 `yaml:"weight_kg"`
	HeightCm          float64 `yaml:"height_cm"`
	Sex               string  `yaml:"sex"`
	ASAClass          int     `yaml:"asa_class"`
	HasOSA            bool    `yaml:"osa"`
	HasCOPD           bool    `yaml:"copd"`
	HepaticImpairment bool    `yaml:"hepatic_impairment"`
	RenalImpairment   bool    `yaml:"renal_impairment"`
	Mallampati        int     `yaml:"mallampati"`
	Sensitivity       float64 `yaml:"sensitivity"`
}

// Event fires once when the simulation clock reaches At seconds.
type Event struct {
	At            float64 `yaml:"at"`
	Type          string  `yaml:"type"` // bolus | infusion | fio2
	Drug          string  `yaml:"drug"`
	Amount        float64 `yaml:"amount"`
	RatePerMinute float64 `yaml:"rate_per_minute"`
	Value         float64 `yaml:"value"`
}

func loadScenario(path string) (Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Scenario{}, err
	}
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return Scenario{}, fmt.Errorf("parse scenario %s: %w", path, err)
	}
	if err := sc.validate(); err != nil {
		return Scenario{}, fmt.Errorf("scenario %s: %w", path, err)
	}
	return sc, nil
}

func (sc Scenario) validate() error {
	if sc.Name == "" {
		return fmt.Errorf("name is required")
	}
	if sc.Archetype == "" && sc.Patient == nil {
		return fmt.Errorf("either archetype or patient is required")
	}
	if sc.Archetype != "" && sc.Patient != nil {
		return fmt.Errorf("archetype and patient are mutually exclusive")
	}
	if sc.DurationSeconds <= 0 {
		return fmt.Errorf("duration_seconds must be positive")
	}
	if sc.FiO2 != 0 && (sc.FiO2 < 0.21 || sc.FiO2 > 1.0) {
		return fmt.Errorf("fio2 must be between 0.21 and 1.0")
	}
	for i, ev := range sc.Events {
		if ev.At < 0 || ev.At > float64(sc.DurationSeconds) {
			return fmt.Errorf("event %d: at=%f outside scenario duration", i, ev.At)
		}
		switch ev.Type {
		case "bolus":
			if _, ok := drug.Lookup(ev.Drug); !ok {
				return fmt.Errorf("event %d: unknown drug %q", i, ev.Drug)
			}
			if ev.Amount <= 0 {
				return fmt.Errorf("event %d: bolus amount must be positive", i)
			}
		case "infusion":
			if _, ok := drug.Lookup(ev.Drug); !ok {
				return fmt.Errorf("event %d: unknown drug %q", i, ev.Drug)
			}
			if ev.RatePerMinute < 0 {
				return fmt.Errorf("event %d: infusion rate must not be negative", i)
			}
		case "fio2":
			if ev.Value < 0.21 || ev.Value > 1.0 {
				return fmt.Errorf("event %d: fio2 must be between 0.21 and 1.0", i)
			}
		default:
			return fmt.Errorf("event %d: unknown type %q", i, ev.Type)
		}
	}
	return nil
}

// patient resolves the archetype or inline spec into a patient record.
func (sc Scenario) patient() (model.Patient, error) {
	if sc.Archetype != "" {
		return session.Archetype(sc.Archetype)
	}
	p := sc.Patient
	return model.Patient{
		Name:              p.Name,
		Age:               p.Age,
		WeightKg:          p.WeightKg,
		HeightCm:          p.HeightCm,
		Sex:               model.Sex(p.Sex),
		ASAClass:          p.ASAClass,
		HasOSA:            p.HasOSA,
		HasCOPD:           p.HasCOPD,
		HepaticImpairment: p.HepaticImpairment,
		RenalImpairment:   p.RenalImpairment,
		Mallampati:        p.Mallampati,
		Sensitivity:       p.Sensitivity,
	}, nil
}
