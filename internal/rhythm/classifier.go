package rhythm

import (
	"somnus/internal/drug"
)

// Arrest-qualifying conditions and the one-directional time cascade.
const (
	arrestSpO2Threshold = 40.0
	arrestMAPThreshold  = 30.0

	arrestStage1Seconds = 20.0
	arrestVFibSeconds   = 60.0
	asystoleSeconds     = 120.0
)

// Local-anesthetic systemic toxicity thresholds over the summed,
// sensitivity-scaled local-anesthetic effect-site concentration.
const (
	lastBlockThreshold = 4.0
	lastWideThreshold  = 6.0
	lastVTThreshold    = 8.0
	lastVFibThreshold  = 10.0
)

type classifyContext struct {
	in      Inputs
	sens    float64
	elapsed float64 // seconds since arrest conditions began, -1 if none
}

// rule is one guarded branch of the prioritized decision table.
type rule struct {
	name  string
	apply func(*classifyContext) (Rhythm, bool)
}

// Rule order is the priority order; the first match wins.
var rules = []rule{
	{"arrest_cascade", arrestCascade},
	{"local_anesthetic_toxicity", localAnestheticToxicity},
	{"hypoxia", hypoxiaCascade},
	{"drug_bradyarrhythmia", drugBradyarrhythmia},
	{"drug_tachyarrhythmia", drugTachyarrhythmia},
	{"sinus_default", sinusDefault},
}

// Determine evaluates the decision table against one tick of inputs and
// returns the rhythm, its intervals, and the updated arrest timer.
// Given identical inputs it always returns the identical result.
func Determine(in Inputs) Result {
	arrestStart := updateArrestTimer(in)

	ctx := &classifyContext{in: in, sens: in.Sensitivity, elapsed: -1}
	if ctx.sens <= 0 {
		ctx.sens = 1
	}
	if arrestStart != nil {
		ctx.elapsed = in.ElapsedSeconds - *arrestStart
	}

	for _, r := range rules {
		if rhythm, ok := r.apply(ctx); ok {
			return Result{Rhythm: rhythm, Intervals: intervalTable[rhythm], ArrestStart: arrestStart}
		}
	}
	return Result{Rhythm: NormalSinus, Intervals: intervalTable[NormalSinus], ArrestStart: arrestStart}
}

// updateArrestTimer starts the timer when arrest conditions appear and
// clears it the instant they resolve. A zero SpO2 means no reading, not
// a saturation of zero.
func updateArrestTimer(in Inputs) *float64 {
	hypoxicArrest := in.Vitals.SpO2 > 0 && in.Vitals.SpO2 < arrestSpO2Threshold
	pressureArrest := in.Vitals.MAP < arrestMAPThreshold
	if !hypoxicArrest && !pressureArrest {
		return nil
	}
	if in.ArrestStart != nil {
		start := *in.ArrestStart
		return &start
	}
	start := in.ElapsedSeconds
	return &start
}

func arrestCascade(ctx *classifyContext) (Rhythm, bool) {
	if ctx.elapsed < 0 {
		return "", false
	}
	switch {
	case ctx.elapsed > asystoleSeconds:
		return Asystole, true
	case ctx.elapsed > arrestVFibSeconds:
		return VFib, true
	case ctx.elapsed > arrestStage1Seconds:
		if ctx.in.Vitals.MAP < arrestMAPThreshold {
			return PEA, true
		}
		return VTach, true
	default:
		// Conditions present but not yet sustained: fall through.
		return "", false
	}
}

func localAnestheticToxicity(ctx *classifyContext) (Rhythm, bool) {
	sum := 0.0
	for _, name := range drug.LocalAnesthetics() {
		sum += ctx.in.EffectSite[name]
	}
	load := sum * ctx.sens
	switch {
	case load >= lastVFibThreshold:
		return VFib, true
	case load >= lastVTThreshold:
		return VTach, true
	case load >= lastWideThreshold:
		return WideComplex, true
	case load >= lastBlockThreshold:
		return FirstDegreeBlock, true
	default:
		return "", false
	}
}

func hypoxiaCascade(ctx *classifyContext) (Rhythm, bool) {
	spo2 := ctx.in.Vitals.SpO2
	if spo2 <= 0 {
		return "", false
	}
	switch {
	case spo2 < 50:
		return VFib, true
	case spo2 < 60:
		return VTach, true
	case spo2 < 70:
		// An already-ventricular rhythm degenerates instead of resetting.
		if ctx.in.Previous == VTach || ctx.in.Previous == PolymorphicVT {
			return PolymorphicVT, true
		}
		return FrequentPVCs, true
	case spo2 < 80:
		return SVT, true
	case spo2 < 85:
		return AtrialFib, true
	default:
		return "", false
	}
}

func drugBradyarrhythmia(ctx *classifyContext) (Rhythm, bool) {
	hr := ctx.in.Vitals.HeartRate
	propCe := ctx.in.EffectSite[drug.Propofol] * ctx.sens
	fentCe := ctx.in.EffectSite[drug.Fentanyl] * ctx.sens

	switch {
	case hr < 30:
		return ThirdDegreeBlock, true
	case hr < 45 && propCe > 5:
		return Wenckebach, true
	case hr < 45 && fentCe > 4:
		return Mobitz2, true
	case propCe > 9:
		return Junctional, true
	case propCe > 7:
		return FirstDegreeBlock, true
	case fentCe > 6:
		return SinusBradycardia, true
	default:
		return "", false
	}
}

func drugTachyarrhythmia(ctx *classifyContext) (Rhythm, bool) {
	ketCe := ctx.in.EffectSite[drug.Ketamine] * ctx.sens
	if ketCe > 4 && ctx.in.Vitals.HeartRate > 140 {
		return SVT, true
	}
	return "", false
}

func sinusDefault(ctx *classifyContext) (Rhythm, bool) {
	hr := ctx.in.Vitals.HeartRate
	switch {
	case hr > 150:
		if ctx.in.Previous == AtrialFib || ctx.in.Previous == AtrialFlutter {
			return AtrialFlutter, true
		}
		return SVT, true
	case hr > 100:
		return SinusTachycardia, true
	case hr < 60:
		return SinusBradycardia, true
	default:
		return NormalSinus, true
	}
}
