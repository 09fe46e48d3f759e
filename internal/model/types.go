package model

// VersionedRecord captures schema and codec evolution for persistent data.
type VersionedRecord struct {
	SchemaVersion int `json:"schema_version"`
	CodecVersion  int `json:"codec_version"`
}

type Sex string

const (
	SexMale   Sex = "male"
	SexFemale Sex = "female"
)

// Patient is immutable for the lifetime of a session; switching archetypes
// replaces the whole record and resets dependent state.
type Patient struct {
	ID                string  `json:"id"`
	Name              string  `json:"name"`
	Age               int     `json:"age"`
	WeightKg          float64 `json:"weight_kg"`
	HeightCm          float64 `json:"height_cm"`
	Sex               Sex     `json:"sex"`
	ASAClass          int     `json:"asa_class"`
	HasOSA            bool    `json:"has_osa"`
	HasCOPD           bool    `json:"has_copd"`
	HepaticImpairment bool    `json:"hepatic_impairment"`
	RenalImpairment   bool    `json:"renal_impairment"`
	Mallampati        int     `json:"mallampati"`
	Sensitivity       float64 `json:"sensitivity"`
}

func (p Patient) BMI() float64 {
	if p.HeightCm <= 0 {
		return 0
	}
	h := p.HeightCm / 100
	return p.WeightKg / (h * h)
}

// PKState holds the four compartment concentrations for one drug, each in
// the drug's catalog unit. All values are kept >= 0 by the PK step.
type PKState struct {
	Central     float64 `json:"central"`
	Peripheral1 float64 `json:"peripheral1"`
	Peripheral2 float64 `json:"peripheral2"`
	EffectSite  float64 `json:"effect_site"`
}

// Vitals is recomputed every tick. SpO2 carries temporal memory: the
// previous tick's displayed value feeds the oximeter-lag blend.
type Vitals struct {
	HeartRate       float64 `json:"heart_rate"`
	SystolicBP      float64 `json:"systolic_bp"`
	DiastolicBP     float64 `json:"diastolic_bp"`
	MAP             float64 `json:"map"`
	RespiratoryRate float64 `json:"respiratory_rate"`
	SpO2            float64 `json:"spo2"`
	EtCO2           float64 `json:"etco2"`

	QRSWidthMs   float64 `json:"qrs_width_ms,omitempty"`
	PRIntervalMs float64 `json:"pr_interval_ms,omitempty"`
	QTIntervalMs float64 `json:"qt_interval_ms,omitempty"`
}

// PredictionSnapshot is one point of a ghost-dose forward replay.
type PredictionSnapshot struct {
	SecondsAhead     int                `json:"seconds_ahead"`
	EffectSiteByDrug map[string]float64 `json:"effect_site_by_drug"`
	MOASS            int                `json:"moass"`
	SpO2             float64            `json:"spo2"`
	RespiratoryRate  float64            `json:"respiratory_rate"`
}

// TickRecord is the per-tick trace a session keeps for trend storage.
type TickRecord struct {
	Seconds  float64 `json:"seconds"`
	Vitals   Vitals  `json:"vitals"`
	Effect   float64 `json:"effect"`
	MOASS    int     `json:"moass"`
	Rhythm   string  `json:"rhythm"`
	EEGIndex float64 `json:"eeg_index"`
}

// RunRecord summarizes a completed scenario run for persistence.
type RunRecord struct {
	VersionedRecord
	ID              string `json:"id"`
	Scenario        string `json:"scenario"`
	PatientName     string `json:"patient_name"`
	CreatedAtUTC    string `json:"created_at_utc"`
	DurationSeconds int    `json:"duration_seconds"`
	FinalVitals     Vitals `json:"final_vitals"`
	FinalRhythm     string `json:"final_rhythm"`
	FinalMOASS      int    `json:"final_moass"`
}
