// Package rhythm classifies the cardiac rhythm every tick from current
// vitals, drug levels and the persisted arrest-start timestamp. The
// classifier is a prioritized decision table: rules are evaluated in a
// fixed order and the first match wins. Only the arrest timer carries
// memory across ticks; everything else is recomputed from inputs.
package rhythm

import (
	"somnus/internal/model"
)

type Rhythm string

const (
	NormalSinus      Rhythm = "normal_sinus"
	SinusBradycardia Rhythm = "sinus_bradycardia"
	SinusTachycardia Rhythm = "sinus_tachycardia"
	SVT              Rhythm = "svt"
	AtrialFib        Rhythm = "atrial_fibrillation"
	AtrialFlutter    Rhythm = "atrial_flutter"
	Junctional       Rhythm = "junctional"
	FirstDegreeBlock Rhythm = "first_degree_block"
	Wenckebach       Rhythm = "second_degree_block_type1"
	Mobitz2          Rhythm = "second_degree_block_type2"
	ThirdDegreeBlock Rhythm = "third_degree_block"
	WideComplex      Rhythm = "wide_complex"
	VTach            Rhythm = "ventricular_tachycardia"
	PolymorphicVT    Rhythm = "polymorphic_vt"
	VFib             Rhythm = "ventricular_fibrillation"
	FrequentPVCs     Rhythm = "frequent_pvcs"
	PEA              Rhythm = "pea"
	Asystole         Rhythm = "asystole"
)

// Intervals are the fixed ECG timing parameters per rhythm, consumed by
// the waveform renderer outside this core.
type Intervals struct {
	QRSWidthMs   float64 `json:"qrs_width_ms"`
	PRIntervalMs float64 `json:"pr_interval_ms"`
	QTIntervalMs float64 `json:"qt_interval_ms"`
}

var intervalTable = map[Rhythm]Intervals{
	NormalSinus:      {90, 160, 400},
	SinusBradycardia: {90, 170, 430},
	SinusTachycardia: {85, 140, 360},
	SVT:              {80, 0, 320},
	AtrialFib:        {90, 0, 380},
	AtrialFlutter:    {90, 0, 370},
	Junctional:       {95, 0, 420},
	FirstDegreeBlock: {95, 240, 420},
	Wenckebach:       {95, 280, 430},
	Mobitz2:          {110, 200, 440},
	ThirdDegreeBlock: {130, 0, 480},
	WideComplex:      {150, 200, 470},
	VTach:            {170, 0, 0},
	PolymorphicVT:    {180, 0, 0},
	VFib:             {0, 0, 0},
	FrequentPVCs:     {120, 160, 410},
	PEA:              {100, 180, 440},
	Asystole:         {0, 0, 0},
}

// IntervalsFor returns the fixed ECG intervals for a rhythm; unknown
// rhythms map to the zero value.
func IntervalsFor(r Rhythm) Intervals {
	return intervalTable[r]
}

// Inputs is everything the classifier consumes for one tick.
type Inputs struct {
	Vitals         model.Vitals
	EffectSite     map[string]float64
	Sensitivity    float64
	Previous       Rhythm
	ElapsedSeconds float64
	// ArrestStart is the simulation time at which arrest-qualifying
	// conditions began, or nil when they are not present.
	ArrestStart *float64
}

// Result carries the classified rhythm, its intervals and the updated
// arrest timer to feed back on the next tick.
type Result struct {
	Rhythm      Rhythm
	Intervals   Intervals
	ArrestStart *float64
}

var pulselessRhythms = map[Rhythm]struct{}{
	PEA:      {},
	VFib:     {},
	Asystole: {},
}

var lethalRhythms = map[Rhythm]struct{}{
	PEA:              {},
	VFib:             {},
	Asystole:         {},
	VTach:            {},
	PolymorphicVT:    {},
	ThirdDegreeBlock: {},
}

func IsPulseless(r Rhythm) bool {
	_, ok := pulselessRhythms[r]
	return ok
}

func IsLethal(r Rhythm) bool {
	_, ok := lethalRhythms[r]
	return ok
}
