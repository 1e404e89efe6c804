package filtering

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spigell/talent-matcher/internal/domain"
)

var now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func testVacancies() []domain.Vacancy {
	return []domain.Vacancy{
		{ID: "1", Title: "Go developer", Category: "technical", Active: true, CreatedAt: now.Add(-24 * time.Hour)},
		{ID: "2", Title: "Sales manager", Category: "Sales", Active: true, CreatedAt: now.Add(-10 * 24 * time.Hour)},
		{ID: "3", Title: "Closed role", Category: "technical", Active: false, CreatedAt: now.Add(-2 * time.Hour)},
		{ID: "4", Title: "Undated role", Category: "management", Active: true},
	}
}

func ids(v []domain.Vacancy) []string {
	out := make([]string, 0, len(v))
	for _, vacancy := range v {
		out = append(out, vacancy.ID)
	}
	return out
}

func equalIDs(t *testing.T, got []domain.Vacancy, want ...string) {
	t.Helper()

	gotIDs := ids(got)
	if len(gotIDs) != len(want) {
		t.Fatalf("expected ids %v, got %v", want, gotIDs)
	}
	for i := range want {
		if gotIDs[i] != want[i] {
			t.Fatalf("expected ids %v, got %v", want, gotIDs)
		}
	}
}

func TestRunDefaultPipeline(t *testing.T) {
	dir := t.TempDir()
	excludePath := filepath.Join(dir, "exclude.json")
	if err := NewExcluded([]domain.Vacancy{{ID: "4"}}, now).ToFile(excludePath); err != nil {
		t.Fatalf("write exclude file: %v", err)
	}

	core, observed := observer.New(zapcore.InfoLevel)
	cfg := &Config{
		ExcludeFile:       excludePath,
		ExcludeCategories: []string{" sales "},
		MaxAge:            7 * 24 * time.Hour,
	}
	deps := Deps{Logger: zap.New(core), Now: func() time.Time { return now }}

	got, err := Run(context.Background(), cfg, deps, Default(), testVacancies())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	equalIDs(t, got, "1")

	if n := observed.FilterMessage("filter step").Len(); n != 4 {
		t.Fatalf("expected 4 step log entries, got %d", n)
	}
}

func TestRunEmptyInput(t *testing.T) {
	cfg := &Config{ExcludeCategories: []string{"technical"}, MaxAge: time.Hour}
	got, err := Run(context.Background(), cfg, Deps{}, Default(), nil)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected no vacancies, got %v", ids(got))
	}
}

func TestRunSkipsDisabledFilters(t *testing.T) {
	steps := Default()
	DisableByName(steps, "inactive", "include closed vacancies")

	got, err := Run(context.Background(), &Config{}, Deps{}, steps, testVacancies())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	equalIDs(t, got, "1", "2", "3", "4")

	for _, status := range Describe(steps, &Config{}) {
		if status.Name == "inactive" {
			if status.Enabled || status.Reason != "include closed vacancies" {
				t.Fatalf("unexpected inactive status: %+v", status)
			}
			continue
		}
		if !status.Enabled {
			t.Fatalf("expected %s to stay enabled", status.Name)
		}
	}
}

func TestRunRejectsNegativeMaxAge(t *testing.T) {
	if _, err := Run(context.Background(), &Config{MaxAge: -time.Hour}, Deps{}, Default(), testVacancies()); err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestExcludeFileFilter(t *testing.T) {
	dir := t.TempDir()

	t.Run("missing file excludes nothing", func(t *testing.T) {
		cfg := &Config{ExcludeFile: filepath.Join(dir, "missing.json")}
		got, step, err := NewExcludeFile().Apply(context.Background(), cfg, Deps{}, testVacancies())
		if err != nil {
			t.Fatalf("apply: %v", err)
		}
		if step.Dropped != 0 || len(got) != 4 {
			t.Fatalf("unexpected step %+v", step)
		}
	})

	t.Run("corrupt file fails", func(t *testing.T) {
		path := filepath.Join(dir, "broken.json")
		if err := os.WriteFile(path, []byte("{"), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
		if _, _, err := NewExcludeFile().Apply(context.Background(), &Config{ExcludeFile: path}, Deps{}, testVacancies()); err == nil {
			t.Fatalf("expected decode error")
		}
	})

	t.Run("appended entries", func(t *testing.T) {
		path := filepath.Join(dir, "exclude.json")
		excluded := NewExcluded([]domain.Vacancy{{ID: "1"}}, now)
		excluded.Append(NewExcluded([]domain.Vacancy{{ID: "2", Title: "Sales manager"}}, now))
		if err := excluded.ToFile(path); err != nil {
			t.Fatalf("write: %v", err)
		}

		got, step, err := NewExcludeFile().Apply(context.Background(), &Config{ExcludeFile: path}, Deps{}, testVacancies())
		if err != nil {
			t.Fatalf("apply: %v", err)
		}
		equalIDs(t, got, "3", "4")
		if step != (Step{Initial: 4, Dropped: 2, Left: 2}) {
			t.Fatalf("unexpected step %+v", step)
		}
	})
}

func TestMaxAgeKeepsUndatedVacancies(t *testing.T) {
	cfg := &Config{MaxAge: time.Hour}
	f := NewMaxAge()
	if err := f.Validate(cfg); err != nil {
		t.Fatalf("validate: %v", err)
	}

	got, _, err := f.Apply(context.Background(), cfg, Deps{Now: func() time.Time { return now }}, testVacancies())
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	equalIDs(t, got, "4")
}

func TestLoadExcludedEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.json")
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	excluded, err := LoadExcluded(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(excluded.IDs()) != 0 {
		t.Fatalf("expected no ids, got %v", excluded.IDs())
	}
}

func TestRunSharedPipelineConcurrently(t *testing.T) {
	steps := Default()
	configs := []*Config{
		{ExcludeCategories: []string{"sales"}},
		{ExcludeCategories: []string{"technical"}},
		{MaxAge: 48 * time.Hour},
		nil,
	}
	want := [][]string{
		{"1", "4"},
		{"2", "4"},
		{"1", "4"},
		{"1", "2", "4"},
	}
	deps := Deps{Now: func() time.Time { return now }}

	var wg sync.WaitGroup
	errs := make(chan error, 64)
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			idx := i % len(configs)
			got, err := Run(context.Background(), configs[idx], deps, steps, testVacancies())
			if err != nil {
				errs <- err
				return
			}
			gotIDs := ids(got)
			if len(gotIDs) != len(want[idx]) {
				errs <- fmt.Errorf("config %d: expected %v, got %v", idx, want[idx], gotIDs)
				return
			}
			for j := range gotIDs {
				if gotIDs[j] != want[idx][j] {
					errs <- fmt.Errorf("config %d: expected %v, got %v", idx, want[idx], gotIDs)
					return
				}
			}
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Fatalf("concurrent run: %v", err)
	}
}

func TestNewDisablesConfiguredSteps(t *testing.T) {
	cfg := &Config{Disabled: []string{" inactive ", "max_age"}, MaxAge: time.Hour, ExcludeCategories: []string{"Sales"}}
	steps := New(cfg)

	got, err := Run(context.Background(), cfg, Deps{Now: func() time.Time { return now }}, steps, testVacancies())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	equalIDs(t, got, "1", "3", "4")

	for _, status := range Describe(steps, cfg) {
		switch status.Name {
		case "inactive", "max_age":
			if status.Enabled || status.Reason != "disabled by configuration" {
				t.Fatalf("unexpected status %+v", status)
			}
		case "categories":
			if !status.Enabled || status.Details["categories"] != "sales" {
				t.Fatalf("unexpected status %+v", status)
			}
		}
	}

	if len(New(nil)) != 4 {
		t.Fatalf("expected default pipeline without config")
	}
}
