package drug

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

var (
	ErrDrugExists   = errors.New("drug already registered")
	ErrDrugNotFound = errors.New("drug not found")
)

// Definition is the immutable per-drug record. Rate constants are per
// minute; V1 is liters; EC50 is in Unit; Gamma is the Hill steepness.
type Definition struct {
	Name  string
	Unit  string
	K10   float64
	K12   float64
	K21   float64
	K13   float64
	K31   float64
	Ke0   float64
	V1    float64
	EC50  float64
	Gamma float64
	Color string
}

var catalog = struct {
	mu sync.RWMutex
	m  map[string]Definition
}{
	m: make(map[string]Definition),
}

func init() {
	initializeBuiltInDrugs()
}

// Catalog drug names.
const (
	Propofol        = "propofol"
	Midazolam       = "midazolam"
	Ketamine        = "ketamine"
	Dexmedetomidine = "dexmedetomidine"
	Fentanyl        = "fentanyl"
	Remifentanil    = "remifentanil"
	Naloxone        = "naloxone"
	Flumazenil      = "flumazenil"
	Lidocaine       = "lidocaine"
	Bupivacaine     = "bupivacaine"
	Ropivacaine     = "ropivacaine"
)

func initializeBuiltInDrugs() {
	MustRegister(Definition{
		Name: Propofol, Unit: "ug/mL", Color: "#f4f4f0",
		K10: 0.119, K12: 0.112, K21: 0.055, K13: 0.042, K31: 0.0033,
		Ke0: 0.456, V1: 15.9, EC50: 3.4, Gamma: 3.0,
	})
	MustRegister(Definition{
		Name: Midazolam, Unit: "ug/mL", Color: "#4f7cc9",
		K10: 0.066, K12: 0.083, K21: 0.078, K13: 0.022, K31: 0.0045,
		Ke0: 0.11, V1: 11.0, EC50: 0.25, Gamma: 2.4,
	})
	MustRegister(Definition{
		Name: Ketamine, Unit: "ug/mL", Color: "#7d3fb0",
		K10: 0.09, K12: 0.12, K21: 0.06, K13: 0.033, K31: 0.004,
		Ke0: 0.55, V1: 18.0, EC50: 1.1, Gamma: 1.6,
	})
	MustRegister(Definition{
		Name: Dexmedetomidine, Unit: "ng/mL", Color: "#2e8b6f",
		K10: 0.084, K12: 0.17, K21: 0.092, K13: 0.038, K31: 0.0055,
		Ke0: 0.12, V1: 9.0, EC50: 2.3, Gamma: 2.0,
	})
	MustRegister(Definition{
		Name: Fentanyl, Unit: "ng/mL", Color: "#c93f3f",
		K10: 0.083, K12: 0.471, K21: 0.102, K13: 0.225, K31: 0.006,
		Ke0: 0.147, V1: 12.7, EC50: 1.8, Gamma: 2.0,
	})
	MustRegister(Definition{
		Name: Remifentanil, Unit: "ng/mL", Color: "#d9763b",
		K10: 0.5, K12: 0.39, K21: 0.2, K13: 0.057, K31: 0.013,
		Ke0: 0.595, V1: 5.1, EC50: 12.0, Gamma: 2.5,
	})
	MustRegister(Definition{
		Name: Naloxone, Unit: "ng/mL", Color: "#3fa9c9",
		K10: 0.35, K12: 0.1, K21: 0.06, K13: 0.02, K31: 0.004,
		Ke0: 0.3, V1: 14.0, EC50: 1.5, Gamma: 2.0,
	})
	MustRegister(Definition{
		Name: Flumazenil, Unit: "ng/mL", Color: "#c9b23f",
		K10: 0.28, K12: 0.09, K21: 0.05, K13: 0.015, K31: 0.003,
		Ke0: 0.26, V1: 12.0, EC50: 8.0, Gamma: 2.0,
	})
	MustRegister(Definition{
		Name: Lidocaine, Unit: "ug/mL", Color: "#8a8f98",
		K10: 0.052, K12: 0.066, K21: 0.038, K13: 0.011, K31: 0.0024,
		Ke0: 0.12, V1: 30.0, EC50: 60.0, Gamma: 1.2,
	})
	MustRegister(Definition{
		Name: Bupivacaine, Unit: "ug/mL", Color: "#6b7280",
		K10: 0.038, K12: 0.058, K21: 0.031, K13: 0.009, K31: 0.002,
		Ke0: 0.1, V1: 25.0, EC50: 80.0, Gamma: 1.2,
	})
	MustRegister(Definition{
		Name: Ropivacaine, Unit: "ug/mL", Color: "#5f6570",
		K10: 0.044, K12: 0.06, K21: 0.034, K13: 0.01, K31: 0.0022,
		Ke0: 0.11, V1: 27.0, EC50: 75.0, Gamma: 1.2,
	})
}

// Register adds a drug to the catalog. The catalog is populated from init
// and treated as read-only afterwards; Register exists for archetype packs
// loaded at process start, never mid-session.
func Register(def Definition) error {
	if def.Name == "" {
		return errors.New("drug name is required")
	}
	if def.V1 <= 0 {
		return fmt.Errorf("drug %s: V1 must be positive", def.Name)
	}
	if def.EC50 <= 0 || def.Gamma <= 0 {
		return fmt.Errorf("drug %s: Hill parameters must be positive", def.Name)
	}

	catalog.mu.Lock()
	defer catalog.mu.Unlock()
	if _, exists := catalog.m[def.Name]; exists {
		return fmt.Errorf("%w: %s", ErrDrugExists, def.Name)
	}
	catalog.m[def.Name] = def
	return nil
}

func MustRegister(def Definition) {
	if err := Register(def); err != nil {
		panic(err)
	}
}

func Lookup(name string) (Definition, bool) {
	catalog.mu.RLock()
	defer catalog.mu.RUnlock()

	def, ok := catalog.m[name]
	return def, ok
}

func Names() []string {
	catalog.mu.RLock()
	defer catalog.mu.RUnlock()

	names := make([]string, 0, len(catalog.m))
	for name := range catalog.m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
