package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"somnus/internal/model"
	"somnus/internal/predict"
	"somnus/internal/session"
	"somnus/internal/storage"
)

func main() {
	if err := run(context.Background(), os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usageError("missing command")
	}

	switch args[0] {
	case "run":
		return runScenario(ctx, args[1:])
	case "predict":
		return runPredict(ctx, args[1:])
	case "runs":
		return runRuns(ctx, args[1:])
	case "trend":
		return runTrend(ctx, args[1:])
	case "export":
		return runExport(ctx, args[1:])
	case "archetypes":
		return runArchetypes(args[1:])
	default:
		return usageError(fmt.Sprintf("unknown command: %s", args[0]))
	}
}

func usageError(msg string) error {
	return fmt.Errorf("%s\nusage: somnusctl <run|predict|runs|trend|export|archetypes> [flags]", msg)
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	return cfg.Build()
}

func openStore(kind, dbPath string) (storage.Store, func(), error) {
	store, err := storage.NewStore(kind, dbPath)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() { _ = storage.CloseIfSupported(store) }
	return store, cleanup, nil
}

// executeScenario plays a scenario to completion and returns the
// finished session.
func executeScenario(sc Scenario, log *zap.Logger) (*session.Session, error) {
	patient, err := sc.patient()
	if err != nil {
		return nil, err
	}
	s, err := session.New(session.Config{
		Patient: patient,
		FiO2:    sc.FiO2,
		Seed:    sc.Seed,
		Logger:  log,
	})
	if err != nil {
		return nil, err
	}

	events := append([]Event(nil), sc.Events...)
	sort.SliceStable(events, func(i, j int) bool { return events[i].At < events[j].At })

	next := 0
	for second := 0; second < sc.DurationSeconds; second++ {
		for next < len(events) && events[next].At <= float64(second) {
			if err := applyEvent(s, events[next]); err != nil {
				return nil, err
			}
			next++
		}
		if _, err := s.Tick(1); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func applyEvent(s *session.Session, ev Event) error {
	switch ev.Type {
	case "bolus":
		return s.Bolus(ev.Drug, ev.Amount)
	case "infusion":
		return s.SetInfusion(ev.Drug, ev.RatePerMinute)
	case "fio2":
		return s.SetFiO2(ev.Value)
	default:
		return fmt.Errorf("unknown event type: %s", ev.Type)
	}
}

func runScenario(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	configPath := fs.String("config", "", "scenario yaml path")
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "somnus.db", "sqlite database path")
	logLevel := fs.String("log-level", "info", "zap log level")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *configPath == "" {
		return fmt.Errorf("run: -config is required")
	}

	log, err := newLogger(*logLevel)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	sc, err := loadScenario(*configPath)
	if err != nil {
		return err
	}

	store, cleanup, err := openStore(*storeKind, *dbPath)
	if err != nil {
		return err
	}
	defer cleanup()
	if err := store.Init(ctx); err != nil {
		return err
	}

	started := time.Now()
	s, err := executeScenario(sc, log)
	if err != nil {
		return err
	}

	runID := uuid.NewString()
	vitals := s.Vitals()
	_, level := s.Effect()
	rec := model.RunRecord{
		VersionedRecord: model.VersionedRecord{
			SchemaVersion: storage.CurrentSchemaVersion,
			CodecVersion:  storage.CurrentCodecVersion,
		},
		ID:              runID,
		Scenario:        sc.Name,
		PatientName:     s.Patient().Name,
		CreatedAtUTC:    time.Now().UTC().Format(time.RFC3339),
		DurationSeconds: sc.DurationSeconds,
		FinalVitals:     vitals,
		FinalRhythm:     string(s.Rhythm()),
		FinalMOASS:      level,
	}
	if err := store.SaveRun(ctx, rec); err != nil {
		return err
	}
	if err := store.SaveTrend(ctx, runID, s.History()); err != nil {
		return err
	}

	log.Info("scenario complete",
		zap.String("run_id", runID),
		zap.String("scenario", sc.Name),
		zap.Duration("wall_time", time.Since(started)),
		zap.String("final_rhythm", rec.FinalRhythm),
		zap.Int("final_moass", rec.FinalMOASS))

	fmt.Printf("run %s: %s finished after %ds sim time\n", runID, sc.Name, sc.DurationSeconds)
	fmt.Printf("  HR %.0f  BP %.0f/%.0f  RR %.0f  SpO2 %.0f%%  EtCO2 %.0f  rhythm %s  MOASS %d\n",
		vitals.HeartRate, vitals.SystolicBP, vitals.DiastolicBP,
		vitals.RespiratoryRate, vitals.SpO2, vitals.EtCO2, rec.FinalRhythm, rec.FinalMOASS)
	return nil
}

func runPredict(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("predict", flag.ContinueOnError)
	configPath := fs.String("config", "", "scenario yaml path")
	doseDrug := fs.String("drug", "", "hypothetical bolus drug")
	doseAmount := fs.Float64("amount", 0, "hypothetical bolus amount")
	offsetsArg := fs.String("offsets", "60,180,300", "comma-separated offsets in seconds")
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "somnus.db", "sqlite database path")
	runID := fs.String("run-id", "", "attach the prediction to this run id")
	logLevel := fs.String("log-level", "warn", "zap log level")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *configPath == "" {
		return fmt.Errorf("predict: -config is required")
	}

	offsets, err := parseOffsets(*offsetsArg)
	if err != nil {
		return err
	}

	log, err := newLogger(*logLevel)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	sc, err := loadScenario(*configPath)
	if err != nil {
		return err
	}
	s, err := executeScenario(sc, log)
	if err != nil {
		return err
	}

	var dose *predict.HypotheticalDose
	if *doseDrug != "" {
		dose = &predict.HypotheticalDose{Drug: *doseDrug, Amount: *doseAmount}
	}
	snaps, err := s.Predict(offsets, dose)
	if err != nil {
		return err
	}

	if *runID != "" {
		store, cleanup, err := openStore(*storeKind, *dbPath)
		if err != nil {
			return err
		}
		defer cleanup()
		if err := store.Init(ctx); err != nil {
			return err
		}
		if err := store.SavePrediction(ctx, *runID, snaps); err != nil {
			return err
		}
	}

	fmt.Printf("forecast after %s (%d events applied)\n", sc.Name, len(sc.Events))
	for _, snap := range snaps {
		fmt.Printf("  +%3ds  MOASS %d  SpO2 %.1f%%  RR %.1f", snap.SecondsAhead,
			snap.MOASS, snap.SpO2, snap.RespiratoryRate)
		for _, name := range sortedKeys(snap.EffectSiteByDrug) {
			fmt.Printf("  %s=%.2f", name, snap.EffectSiteByDrug[name])
		}
		fmt.Println()
	}
	return nil
}

func runRuns(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("runs", flag.ContinueOnError)
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "somnus.db", "sqlite database path")
	if err := fs.Parse(args); err != nil {
		return err
	}

	store, cleanup, err := openStore(*storeKind, *dbPath)
	if err != nil {
		return err
	}
	defer cleanup()
	if err := store.Init(ctx); err != nil {
		return err
	}

	runs, err := store.ListRuns(ctx)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs recorded")
		return nil
	}
	for _, r := range runs {
		fmt.Printf("%s  %-20s  %-16s  %4ds  %s  MOASS %d\n",
			r.CreatedAtUTC, r.Scenario, r.PatientName,
			r.DurationSeconds, r.FinalRhythm, r.FinalMOASS)
	}
	return nil
}

func runTrend(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("trend", flag.ContinueOnError)
	runID := fs.String("run-id", "", "run id")
	every := fs.Int("every", 30, "print one sample every N seconds")
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "somnus.db", "sqlite database path")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *runID == "" {
		return fmt.Errorf("trend: -run-id is required")
	}
	if *every <= 0 {
		return fmt.Errorf("trend: -every must be positive")
	}

	store, cleanup, err := openStore(*storeKind, *dbPath)
	if err != nil {
		return err
	}
	defer cleanup()
	if err := store.Init(ctx); err != nil {
		return err
	}

	trend, ok, err := store.GetTrend(ctx, *runID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("no trend recorded for run %s", *runID)
	}

	for i, rec := range trend {
		if i%*every != 0 && i != len(trend)-1 {
			continue
		}
		fmt.Printf("%6.0fs  HR %.0f  BP %.0f/%.0f  RR %4.1f  SpO2 %5.1f  EtCO2 %5.1f  %s  MOASS %d  EEG %.0f\n",
			rec.Seconds, rec.Vitals.HeartRate, rec.Vitals.SystolicBP, rec.Vitals.DiastolicBP,
			rec.Vitals.RespiratoryRate, rec.Vitals.SpO2, rec.Vitals.EtCO2,
			rec.Rhythm, rec.MOASS, rec.EEGIndex)
	}
	return nil
}

func runExport(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	runID := fs.String("run-id", "", "run id")
	outDir := fs.String("out", "exports", "output directory")
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "somnus.db", "sqlite database path")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *runID == "" {
		return fmt.Errorf("export: -run-id is required")
	}

	store, cleanup, err := openStore(*storeKind, *dbPath)
	if err != nil {
		return err
	}
	defer cleanup()
	if err := store.Init(ctx); err != nil {
		return err
	}

	run, ok, err := store.GetRun(ctx, *runID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("run %s not found", *runID)
	}

	dir := filepath.Join(*outDir, *runID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	if err := writeJSON(filepath.Join(dir, "run.json"), run); err != nil {
		return err
	}

	if trend, ok, err := store.GetTrend(ctx, *runID); err != nil {
		return err
	} else if ok {
		if err := writeJSON(filepath.Join(dir, "trend.json"), trend); err != nil {
			return err
		}
	}
	if snaps, ok, err := store.GetPrediction(ctx, *runID); err != nil {
		return err
	} else if ok {
		if err := writeJSON(filepath.Join(dir, "prediction.json"), snaps); err != nil {
			return err
		}
	}

	fmt.Printf("exported run %s to %s\n", *runID, dir)
	return nil
}

func runArchetypes(args []string) error {
	fs := flag.NewFlagSet("archetypes", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}
	for _, name := range session.ArchetypeNames() {
		p, err := session.Archetype(name)
		if err != nil {
			return err
		}
		fmt.Printf("%-14s  %s, age %d, %.0f kg, ASA %d, sensitivity %.1f\n",
			name, p.Name, p.Age, p.WeightKg, p.ASAClass, p.Sensitivity)
	}
	return nil
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func parseOffsets(arg string) ([]int, error) {
	parts := strings.Split(arg, ",")
	offsets := make([]int, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		v, err := strconv.Atoi(part)
		if err != nil || v <= 0 {
			return nil, fmt.Errorf("invalid offset %q", part)
		}
		offsets = append(offsets, v)
	}
	if len(offsets) == 0 {
		return nil, fmt.Errorf("no offsets given")
	}
	return offsets, nil
}
