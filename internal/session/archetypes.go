package session

import (
	"fmt"
	"sort"

	"github.com/google/uuid"

	"somnus/internal/model"
)

const (
	ArchetypeHealthyAdult = "healthy-adult"
	ArchetypeElderlyFrail = "elderly-frail"
	ArchetypeObeseOSA     = "obese-osa"
	ArchetypeCOPD         = "copd"
)

var archetypes = map[string]model.Patient{
	ArchetypeHealthyAdult: {
		Name: "Healthy Adult", Age: 34, WeightKg: 76, HeightCm: 178,
		Sex: model.SexMale, ASAClass: 1, Mallampati: 1, Sensitivity: 1.0,
	},
	ArchetypeElderlyFrail: {
		Name: "Elderly Frail", Age: 84, WeightKg: 52, HeightCm: 160,
		Sex: model.SexFemale, ASAClass: 3, Mallampati: 2,
		RenalImpairment: true, Sensitivity: 1.6,
	},
	ArchetypeObeseOSA: {
		Name: "Obese OSA", Age: 48, WeightKg: 128, HeightCm: 172,
		Sex: model.SexMale, ASAClass: 3, Mallampati: 4,
		HasOSA: true, Sensitivity: 1.2,
	},
	ArchetypeCOPD: {
		Name: "COPD", Age: 67, WeightKg: 64, HeightCm: 168,
		Sex: model.SexFemale, ASAClass: 3, Mallampati: 2,
		HasCOPD: true, Sensitivity: 1.3,
	},
}

// Archetype instantiates a named preset patient with a fresh ID.
func Archetype(name string) (model.Patient, error) {
	p, ok := archetypes[name]
	if !ok {
		return model.Patient{}, fmt.Errorf("unknown patient archetype: %s", name)
	}
	p.ID = uuid.NewString()
	return p, nil
}

// ArchetypeNames lists the available presets in stable order.
func ArchetypeNames() []string {
	names := make([]string, 0, len(archetypes))
	for name := range archetypes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
