// Package eeg synthesizes a multi-channel EEG waveform and a BIS-like
// composite sedation index from effect-site concentrations and patient
// age. The waveform is stochastic; the index and suppression ratio are
// deterministic functions of the concentrations and must stay so.
package eeg

import (
	"math"
	"math/rand"
	"sort"
)

const (
	SampleRateHz   = 128
	BufferCapacity = 512

	// Each update emits a half-second burst of trace per one-second
	// tick. Blocks are phase-aligned to SimTime, not to the previous
	// block, so consecutive blocks are not phase continuous.
	samplesPerUpdate = 64
)

// Potency scalers blending each hypnotic into a propofol-equivalent
// load. Fentanyl enters in ug/mL here, hence the large weight.
const (
	midazolamIndexWeight  = 15.0
	dexIndexWeight        = 1.5
	fentanylIndexWeight   = 200.0
	ketamineParadoxWeight = 8.0

	indexLoadEC50  = 3.4
	indexLoadGamma = 3.0
)

const (
	suppressionOnsetCe = 6.0
	suppressionSlope   = 25.0
	burstGateCe        = 7.0
	burstAttenuation   = 20.0
)

// Channel is one electrode's rolling sample buffer. Oldest samples are
// dropped once the buffer is full.
type Channel struct {
	Name    string    `json:"name"`
	Samples []float64 `json:"samples"`
}

// State is the full EEG output for one update.
type State struct {
	Index            float64   `json:"index"`
	IndexLabel       string    `json:"index_label"`
	SuppressionRatio float64   `json:"suppression_ratio"`
	SpectralEdgeHz   float64   `json:"spectral_edge_hz"`
	DominantHz       float64   `json:"dominant_hz"`
	Channels         []Channel `json:"channels"`
}

// Inputs for one EEG update. FentanylCe is in ug/mL, unlike the PK
// state which carries fentanyl in ng/mL; callers convert.
type Inputs struct {
	PropofolCe  float64
	DexCe       float64
	KetamineCe  float64
	MidazolamCe float64
	FentanylCe  float64
	Age         int
	SimTime     float64
	Previous    *State
}

var channelNames = [...]string{"Fp1", "Fp2", "F7", "F8"}

// Per-channel phase offsets so the four traces are visibly distinct.
var channelPhases = [...]float64{0, math.Pi / 5, 2 * math.Pi / 5, 3 * math.Pi / 5}

// band describes one frequency band's awake and deeply-sedated
// endpoints; the actual value interpolates between them.
type band struct {
	name                 string
	awakeHz, sedatedHz   float64
	awakeAmp, sedatedAmp float64
}

// bandLevel is a band's interpolated frequency and amplitude at the
// current sedation depth.
type bandLevel struct {
	hz, amp float64
}

var bands = [...]band{
	{"delta", 1.5, 1.0, 2.0, 30.0},
	{"theta", 6.0, 4.5, 4.0, 14.0},
	{"alpha", 10.0, 9.0, 12.0, 4.0},
	{"beta", 20.0, 16.0, 8.0, 1.5},
	{"gamma", 40.0, 32.0, 3.0, 0.4},
}

// Index thresholds, high to low: awake, light, moderate, deep,
// burst suppression, isoelectric.
var indexLabels = []struct {
	floor float64
	label string
}{
	{80, "awake"},
	{60, "light_sedation"},
	{40, "moderate_sedation"},
	{20, "deep_anesthesia"},
	{5, "burst_suppression"},
	{math.Inf(-1), "isoelectric"},
}

func hill(ce, ec50, gamma float64) float64 {
	if ce <= 0 {
		return 0
	}
	cg := math.Pow(ce, gamma)
	return cg / (math.Pow(ec50, gamma) + cg)
}

// ageFactor raises effective sensitivity 1% per year past 40.
func ageFactor(age int) float64 {
	if age <= 40 {
		return 1
	}
	return 1 + 0.01*float64(age-40)
}

// Index computes the composite sedation index in [0,100]. It is
// deterministic and non-increasing in every hypnotic concentration.
func Index(in Inputs) float64 {
	load := in.PropofolCe +
		midazolamIndexWeight*in.MidazolamCe +
		dexIndexWeight*in.DexCe +
		fentanylIndexWeight*in.FentanylCe
	load *= ageFactor(in.Age)

	idx := 100 * (1 - hill(load, indexLoadEC50, indexLoadGamma))
	// Ketamine produces a paradoxically activated EEG.
	idx += ketamineParadoxWeight * hill(in.KetamineCe, 1.1, 2.0)
	return clamp(idx, 0, 100)
}

// SuppressionRatio is exactly 0 at or below the onset concentration
// and rises linearly above it, capped at 100.
func SuppressionRatio(propofolCe float64, age int) float64 {
	eff := propofolCe * ageFactor(age)
	if eff <= suppressionOnsetCe {
		return 0
	}
	return clamp((eff-suppressionOnsetCe)*suppressionSlope, 0, 100)
}

// IndexLabel maps the composite index onto the six sedation-state
// labels.
func IndexLabel(index float64) string {
	for _, l := range indexLabels {
		if index > l.floor {
			return l.label
		}
	}
	return indexLabels[len(indexLabels)-1].label
}

// Generate advances the EEG by one update: appends a decimated block
// of fresh samples to every channel buffer and recomputes the derived
// scalars.
// A nil rng falls back to a fixed seed so callers that do not care
// about waveform variety still get a fully-formed state.
func Generate(in Inputs, rng *rand.Rand) State {
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}

	effProp := in.PropofolCe * ageFactor(in.Age)
	// Sedation blend in [0,1): 0 awake, ->1 deep.
	s := effProp / (effProp + 2)

	now := make([]bandLevel, len(bands))
	for i, b := range bands {
		now[i] = bandLevel{
			hz:  b.awakeHz + (b.sedatedHz-b.awakeHz)*s,
			amp: b.awakeAmp + (b.sedatedAmp-b.awakeAmp)*s,
		}
	}

	sr := SuppressionRatio(in.PropofolCe, in.Age)
	gateActive := effProp > burstGateCe
	suppressP := sr / 100

	noiseAmp := 0.5 + 1.5*s

	state := State{
		Index:            Index(in),
		SuppressionRatio: sr,
		Channels:         carryChannels(in.Previous),
	}
	state.IndexLabel = IndexLabel(state.Index)
	state.SpectralEdgeHz, state.DominantHz = spectralScalars(now)

	dt := 1.0 / float64(SampleRateHz)
	for ci := range state.Channels {
		for i := 0; i < samplesPerUpdate; i++ {
			t := in.SimTime + float64(i)*dt
			v := 0.0
			for _, bn := range now {
				v += bn.amp * math.Sin(2*math.Pi*bn.hz*t+channelPhases[ci])
			}
			v += noiseAmp * rng.NormFloat64()
			if gateActive && rng.Float64() < suppressP {
				v /= burstAttenuation
			}
			state.Channels[ci].Samples = appendRolling(state.Channels[ci].Samples, v)
		}
	}
	return state
}

func carryChannels(prev *State) []Channel {
	out := make([]Channel, len(channelNames))
	for i, name := range channelNames {
		out[i].Name = name
		if prev != nil && i < len(prev.Channels) {
			out[i].Samples = append([]float64(nil), prev.Channels[i].Samples...)
		}
	}
	return out
}

func appendRolling(buf []float64, v float64) []float64 {
	buf = append(buf, v)
	if len(buf) > BufferCapacity {
		buf = buf[len(buf)-BufferCapacity:]
	}
	return buf
}

// spectralScalars derives the 95% spectral-edge frequency and the
// dominant frequency from the current band amplitudes.
func spectralScalars(now []bandLevel) (edge, dominant float64) {
	total := 0.0
	dominantAmp := -1.0
	for _, bn := range now {
		total += bn.amp
		if bn.amp > dominantAmp {
			dominantAmp = bn.amp
			dominant = bn.hz
		}
	}
	if total <= 0 {
		return 0, 0
	}

	ordered := make([]bandLevel, len(now))
	copy(ordered, now)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].hz < ordered[j].hz })

	cum := 0.0
	for _, bn := range ordered {
		cum += bn.amp
		if cum >= 0.95*total {
			return bn.hz, dominant
		}
	}
	return ordered[len(ordered)-1].hz, dominant
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
