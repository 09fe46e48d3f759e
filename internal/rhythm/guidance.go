package rhythm

// ACLSGuidance returns the fixed ordered treatment steps for a rhythm
// family. Unknown rhythms yield an empty list.
func ACLSGuidance(r Rhythm) []string {
	steps, ok := guidanceTable[r]
	if !ok {
		return nil
	}
	out := make([]string, len(steps))
	copy(out, steps)
	return out
}

var shockableArrestSteps = []string{
	"Start CPR, 100-120 compressions/min",
	"Defibrillate 120-200 J biphasic",
	"Resume CPR immediately for 2 minutes",
	"Epinephrine 1 mg IV every 3-5 minutes",
	"Amiodarone 300 mg IV after third shock",
	"Treat reversible causes (H's and T's)",
}

var nonShockableArrestSteps = []string{
	"Start CPR, 100-120 compressions/min",
	"Epinephrine 1 mg IV every 3-5 minutes",
	"Rhythm check every 2 minutes",
	"Treat reversible causes (H's and T's)",
	"Do not shock: rhythm is not shockable",
}

var guidanceTable = map[Rhythm][]string{
	VFib:          shockableArrestSteps,
	PolymorphicVT: shockableArrestSteps,
	VTach: {
		"Check for a pulse",
		"With pulse and stable: amiodarone 150 mg IV over 10 minutes",
		"With pulse and unstable: synchronized cardioversion 100 J",
		"Pulseless: treat as VF, defibrillate immediately",
	},
	PEA:      nonShockableArrestSteps,
	Asystole: nonShockableArrestSteps,
	SVT: {
		"Vagal maneuvers",
		"Adenosine 6 mg rapid IV push, then 12 mg if refractory",
		"Unstable: synchronized cardioversion 50-100 J",
	},
	AtrialFib: {
		"Assess hemodynamic stability",
		"Rate control: metoprolol or diltiazem IV",
		"Unstable: synchronized cardioversion 120-200 J",
	},
	AtrialFlutter: {
		"Assess hemodynamic stability",
		"Rate control: beta blocker or calcium channel blocker",
		"Unstable: synchronized cardioversion 50-100 J",
	},
	SinusBradycardia: {
		"Assess perfusion; if adequate, observe",
		"Atropine 1 mg IV if symptomatic, repeat to 3 mg total",
		"Consider pacing or epinephrine infusion if refractory",
	},
	Junctional: {
		"Assess perfusion and medication causes",
		"Atropine 1 mg IV if symptomatic",
		"Reduce sedative dosing where drug-induced",
	},
	FirstDegreeBlock: {
		"Usually benign: observe",
		"Review AV-nodal blocking drugs and local anesthetic dose",
	},
	Wenckebach: {
		"Observe if asymptomatic",
		"Atropine 1 mg IV if hypoperfusing",
	},
	Mobitz2: {
		"Prepare transcutaneous pacing",
		"Atropine is unlikely to help; avoid delays to pacing",
	},
	ThirdDegreeBlock: {
		"Immediate transcutaneous pacing",
		"Epinephrine or dopamine infusion while awaiting pacing",
		"Urgent cardiology consult for transvenous pacing",
	},
	WideComplex: {
		"Treat as ventricular until proven otherwise",
		"Stop local anesthetic infusion; consider lipid emulsion 20%",
		"Obtain 12-lead ECG",
	},
	FrequentPVCs: {
		"Correct hypoxia and electrolytes",
		"Review sympathomimetic and local anesthetic dosing",
	},
	SinusTachycardia: {
		"Treat the underlying cause (pain, hypovolemia, hypoxia)",
	},
	NormalSinus: {
		"No intervention required; continue monitoring",
	},
}
