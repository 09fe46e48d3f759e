package main

import (
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"
)

func writeScenario(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write scenario: %v", err)
	}
	return path
}

const inductionScenario = `
name: induction
archetype: healthy-adult
duration_seconds: 300
seed: 42
events:
  - at: 10
    type: bolus
    drug: propofol
    amount: 100
  - at: 60
    type: infusion
    drug: propofol
    rate_per_minute: 10
  - at: 120
    type: fio2
    value: 0.5
`

func TestLoadScenario(t *testing.T) {
	sc, err := loadScenario(writeScenario(t, inductionScenario))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if sc.Name != "induction" || sc.DurationSeconds != 300 || len(sc.Events) != 3 {
		t.Fatalf("unexpected scenario: %+v", sc)
	}
	if sc.Events[0].Drug != "propofol" || sc.Events[0].Amount != 100 {
		t.Fatalf("unexpected first event: %+v", sc.Events[0])
	}

	p, err := sc.patient()
	if err != nil {
		t.Fatalf("patient: %v", err)
	}
	if p.Name != "Healthy Adult" || p.ID == "" {
		t.Fatalf("archetype not resolved: %+v", p)
	}
}

func TestLoadScenarioInlinePatient(t *testing.T) {
	sc, err := loadScenario(writeScenario(t, `
name: custom
duration_seconds: 60
patient:
  name: Test Subject
  age: 55
  weight_kg: 90
  height_cm: 180
  sex: male
  asa_class: 2
  osa: true
  sensitivity: 1.1
`))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	p, err := sc.patient()
	if err != nil {
		t.Fatalf("patient: %v", err)
	}
	if p.Name != "Test Subject" || !p.HasOSA || p.Sensitivity != 1.1 {
		t.Fatalf("inline patient not mapped: %+v", p)
	}
}

func TestScenarioValidation(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"missing name", "archetype: healthy-adult\nduration_seconds: 10\n"},
		{"missing patient", "name: x\nduration_seconds: 10\n"},
		{"both patient forms", `
name: x
archetype: healthy-adult
duration_seconds: 10
patient:
  name: y
  age: 30
  weight_kg: 70
  height_cm: 170
`},
		{"zero duration", "name: x\narchetype: healthy-adult\n"},
		{"bad fio2", "name: x\narchetype: healthy-adult\nduration_seconds: 10\nfio2: 0.05\n"},
		{"unknown drug", `
name: x
archetype: healthy-adult
duration_seconds: 10
events:
  - {at: 1, type: bolus, drug: ether, amount: 5}
`},
		{"event past end", `
name: x
archetype: healthy-adult
duration_seconds: 10
events:
  - {at: 60, type: bolus, drug: propofol, amount: 5}
`},
		{"bad event type", `
name: x
archetype: healthy-adult
duration_seconds: 10
events:
  - {at: 1, type: injection, drug: propofol, amount: 5}
`},
		{"negative bolus", `
name: x
archetype: healthy-adult
duration_seconds: 10
events:
  - {at: 1, type: bolus, drug: propofol, amount: -5}
`},
	}
	for _, tc := range cases {
		if _, err := loadScenario(writeScenario(t, tc.body)); err == nil {
			t.Fatalf("%s: expected validation error", tc.name)
		}
	}
}

func TestExecuteScenario(t *testing.T) {
	sc, err := loadScenario(writeScenario(t, `
name: smoke
archetype: healthy-adult
duration_seconds: 30
seed: 7
events:
  - {at: 5, type: bolus, drug: propofol, amount: 60}
`))
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	s, err := executeScenario(sc, zap.NewNop())
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if s.Elapsed() != 30 {
		t.Fatalf("expected 30s elapsed, got %f", s.Elapsed())
	}
	if len(s.History()) != 30 {
		t.Fatalf("expected 30 tick records, got %d", len(s.History()))
	}
	if s.States()["propofol"].Central <= 0 {
		t.Fatal("bolus event should have been applied")
	}
}

func TestParseOffsets(t *testing.T) {
	offsets, err := parseOffsets("60, 180,300")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(offsets) != 3 || offsets[0] != 60 || offsets[2] != 300 {
		t.Fatalf("unexpected offsets: %v", offsets)
	}

	for _, bad := range []string{"", "abc", "-5", "0"} {
		if _, err := parseOffsets(bad); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}
