package drug

import "testing"

func TestLookupBuiltIns(t *testing.T) {
	for _, name := range []string{Propofol, Fentanyl, Midazolam, Naloxone, Bupivacaine} {
		def, ok := Lookup(name)
		if !ok {
			t.Fatalf("expected %s in catalog", name)
		}
		if def.Name != name {
			t.Fatalf("definition name mismatch: got=%s want=%s", def.Name, name)
		}
		if def.V1 <= 0 || def.EC50 <= 0 || def.Gamma <= 0 {
			t.Fatalf("invalid constants for %s: %+v", name, def)
		}
	}
	if _, ok := Lookup("etomidate"); ok {
		t.Fatal("expected unknown drug to miss")
	}
}

func TestRegisterRejectsDuplicatesAndInvalid(t *testing.T) {
	if err := Register(Definition{Name: Propofol, V1: 1, EC50: 1, Gamma: 1}); err == nil {
		t.Fatal("expected duplicate registration error")
	}
	if err := Register(Definition{Name: "", V1: 1, EC50: 1, Gamma: 1}); err == nil {
		t.Fatal("expected empty-name error")
	}
	if err := Register(Definition{Name: "x-test", V1: 0, EC50: 1, Gamma: 1}); err == nil {
		t.Fatal("expected invalid V1 error")
	}
}

func TestEulerStabilityMargin(t *testing.T) {
	// Forward Euler at dt=1s needs every rate constant times dt well
	// below 1. Keep a 2x margin so archetype sensitivity scaling cannot
	// push a drug unstable.
	const dtMinutes = 1.0 / 60.0
	for _, name := range Names() {
		def, _ := Lookup(name)
		total := def.K10 + def.K12 + def.K13
		for label, k := range map[string]float64{
			"k10+k12+k13": total,
			"k21":         def.K21,
			"k31":         def.K31,
			"ke0":         def.Ke0,
		} {
			if k*dtMinutes > 0.5 {
				t.Fatalf("%s %s too fast for 1s Euler step: %f", name, label, k)
			}
		}
	}
}

func TestRoles(t *testing.T) {
	if !IsOpioid(Fentanyl) || !IsOpioid(Remifentanil) {
		t.Fatal("expected opioid role for fentanyl/remifentanil")
	}
	if IsOpioid(Propofol) {
		t.Fatal("propofol is not an opioid")
	}
	if !IsHypnotic(Propofol) || !IsHypnotic(Ketamine) || !IsHypnotic(Lidocaine) {
		t.Fatal("expected hypnotic role for non-opioid, non-reversal drugs")
	}
	if IsHypnotic(Naloxone) || IsHypnotic(Fentanyl) {
		t.Fatal("opioids and reversal agents are not hypnotics")
	}

	targets, ok := ReversalTargets(Naloxone)
	if !ok || len(targets) != 2 {
		t.Fatalf("unexpected naloxone targets: %v", targets)
	}
	targets, ok = ReversalTargets(Flumazenil)
	if !ok || len(targets) != 1 || targets[0] != Midazolam {
		t.Fatalf("unexpected flumazenil targets: %v", targets)
	}
	if _, ok := ReversalTargets(Propofol); ok {
		t.Fatal("propofol has no reversal targets")
	}

	las := LocalAnesthetics()
	if len(las) != 3 {
		t.Fatalf("expected three local anesthetics, got %v", las)
	}
	for _, name := range las {
		if !IsLocalAnesthetic(name) {
			t.Fatalf("expected %s to be a local anesthetic", name)
		}
	}
}
