package drug

// Drug roles are fixed by name. Opioids and reversal agents get special
// treatment in the effect combination; everything else counts as a
// hypnotic. Local anesthetics additionally drive the systemic-toxicity
// rhythm cascade.

var opioids = map[string]struct{}{
	Fentanyl:     {},
	Remifentanil: {},
}

var reversalTargets = map[string][]string{
	Naloxone:   {Fentanyl, Remifentanil},
	Flumazenil: {Midazolam},
}

var localAnesthetics = map[string]struct{}{
	Lidocaine:   {},
	Bupivacaine: {},
	Ropivacaine: {},
}

func IsOpioid(name string) bool {
	_, ok := opioids[name]
	return ok
}

func IsReversal(name string) bool {
	_, ok := reversalTargets[name]
	return ok
}

// ReversalTargets returns the drugs a reversal agent antagonizes.
func ReversalTargets(name string) ([]string, bool) {
	targets, ok := reversalTargets[name]
	if !ok {
		return nil, false
	}
	out := make([]string, len(targets))
	copy(out, targets)
	return out, true
}

func IsLocalAnesthetic(name string) bool {
	_, ok := localAnesthetics[name]
	return ok
}

// IsHypnotic reports whether a drug participates in the hypnotic branch of
// the effect combination (everything that is neither opioid nor reversal).
func IsHypnotic(name string) bool {
	return !IsOpioid(name) && !IsReversal(name)
}

func LocalAnesthetics() []string {
	return []string{Lidocaine, Bupivacaine, Ropivacaine}
}
