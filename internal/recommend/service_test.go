package recommend

import (
	"context"
	"errors"
	"math"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spigell/talent-matcher/internal/cache"
	"github.com/spigell/talent-matcher/internal/classifier"
	"github.com/spigell/talent-matcher/internal/domain"
	"github.com/spigell/talent-matcher/internal/filtering"
	"github.com/spigell/talent-matcher/internal/metrics"
)

var base = time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)

type fakeVacancies struct {
	items  []domain.Vacancy
	err    error
	filter domain.VacancyFilter
}

func (f *fakeVacancies) FindActiveVacancies(_ context.Context, filter domain.VacancyFilter) ([]domain.Vacancy, error) {
	f.filter = filter
	if f.err != nil {
		return nil, f.err
	}
	return f.items, nil
}

type fakeUnits struct {
	units []classifier.UnitConfig
	err   error
}

func (f *fakeUnits) FindBusinessUnits(context.Context) ([]classifier.UnitConfig, error) {
	return f.units, f.err
}

type countingCache struct {
	cache.Store

	mu   sync.Mutex
	gets int
	sets int
	err  error
}

func (c *countingCache) Get(ctx context.Context, key string) (domain.ScoreBreakdown, bool, error) {
	c.mu.Lock()
	c.gets++
	c.mu.Unlock()
	if c.err != nil {
		return domain.ScoreBreakdown{}, false, c.err
	}
	return c.Store.Get(ctx, key)
}

func (c *countingCache) Set(ctx context.Context, key string, b domain.ScoreBreakdown) error {
	c.mu.Lock()
	c.sets++
	c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	return c.Store.Set(ctx, key, b)
}

func candidate() *domain.Candidate {
	return &domain.Candidate{ID: "c1", Skills: []string{"Python", "SQL"}}
}

func vacancy(id string, created time.Time, skills ...string) domain.Vacancy {
	v := domain.Vacancy{ID: id, Title: "Vacancy " + id, Active: true, CreatedAt: created}
	for _, s := range skills {
		v.RequiredSkills = append(v.RequiredSkills, domain.Skill{Name: s})
	}
	return v
}

func rankedIDs(recs []Recommendation) []string {
	out := make([]string, 0, len(recs))
	for _, r := range recs {
		out = append(out, r.Vacancy.ID)
	}
	return out
}

func newService(t *testing.T, deps Deps, opts Options) *Service {
	t.Helper()

	s, err := New(deps, opts)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return s
}

func TestRankVacancies(t *testing.T) {
	s := newService(t, Deps{}, Options{Workers: 2})

	vacancies := []domain.Vacancy{
		vacancy("java", base, "Java"),
		vacancy("half", base, "Python", "Java"),
		vacancy("old-python", base, "Python"),
		vacancy("new-python", base.Add(time.Hour), "Python"),
	}

	recs, err := s.RankVacancies(context.Background(), candidate(), vacancies, 3)
	if err != nil {
		t.Fatalf("rank: %v", err)
	}

	want := []string{"new-python", "old-python", "half"}
	got := rankedIDs(recs)
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
		if recs[i].Rank != i+1 {
			t.Fatalf("expected rank %d, got %d", i+1, recs[i].Rank)
		}
	}

	if math.Abs(recs[0].Score-1) > 1e-9 || math.Abs(recs[2].Score-0.8) > 1e-9 {
		t.Fatalf("unexpected scores: %v, %v", recs[0].Score, recs[2].Score)
	}
	if recs[2].Breakdown.Skills != 0.5 || recs[2].Breakdown.Final != recs[2].Score {
		t.Fatalf("unexpected breakdown: %+v", recs[2].Breakdown)
	}
}

func TestRankVacanciesDefaults(t *testing.T) {
	s := newService(t, Deps{}, Options{})

	recs, err := s.RankVacancies(context.Background(), candidate(), nil, 0)
	if err != nil {
		t.Fatalf("rank: %v", err)
	}
	if recs == nil || len(recs) != 0 {
		t.Fatalf("expected empty non-nil result, got %v", recs)
	}

	var vacancies []domain.Vacancy
	for i := 0; i < 8; i++ {
		vacancies = append(vacancies, vacancy(string(rune('a'+i)), base.Add(time.Duration(i)*time.Minute), "Python"))
	}
	recs, err = s.RankVacancies(context.Background(), candidate(), vacancies, 0)
	if err != nil {
		t.Fatalf("rank: %v", err)
	}
	if len(recs) != DefaultTopN {
		t.Fatalf("expected %d results, got %d", DefaultTopN, len(recs))
	}
	if recs[0].Vacancy.ID != "h" {
		t.Fatalf("expected newest vacancy first on equal scores, got %s", recs[0].Vacancy.ID)
	}
}

func TestRankVacanciesRejectsInvalidInput(t *testing.T) {
	s := newService(t, Deps{}, Options{})

	bad := vacancy("bad", base, "Python")
	bad.Salary = &domain.SalaryRange{Min: -10}
	if _, err := s.RankVacancies(context.Background(), candidate(), []domain.Vacancy{bad}, 5); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}

	if _, err := s.RankVacancies(context.Background(), nil, nil, 5); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input for nil candidate, got %v", err)
	}
}

func TestRankVacanciesCancelled(t *testing.T) {
	s := newService(t, Deps{}, Options{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := s.RankVacancies(ctx, candidate(), []domain.Vacancy{vacancy("a", base, "Go")}, 5); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context cancellation, got %v", err)
	}
}

func TestRecommend(t *testing.T) {
	core, observed := observer.New(zapcore.InfoLevel)
	repo := &fakeVacancies{items: []domain.Vacancy{
		vacancy("open", base, "Python"),
		{ID: "closed", Active: false, CreatedAt: base},
		vacancy("sales", base, "SQL"),
	}}
	repo.items[2].Category = "sales"

	m := metrics.New()
	s := newService(t, Deps{
		Vacancies: repo,
		Logger:    zap.New(core),
		Metrics:   m,
		Filters:   filtering.Default(),
	}, Options{Filters: &filtering.Config{ExcludeCategories: []string{"sales"}}})

	filter := domain.VacancyFilter{Categories: []string{"technical", "sales"}, Limit: 50}
	recs, err := s.Recommend(context.Background(), candidate(), filter, 5)
	if err != nil {
		t.Fatalf("recommend: %v", err)
	}

	if got := rankedIDs(recs); len(got) != 1 || got[0] != "open" {
		t.Fatalf("expected only the open vacancy, got %v", got)
	}
	if repo.filter.Limit != 50 || len(repo.filter.Categories) != 2 {
		t.Fatalf("expected filter to reach the repository, got %+v", repo.filter)
	}

	done := observed.FilterMessage("recommendation completed").All()
	if len(done) != 1 {
		t.Fatalf("expected completion log, got %d entries", len(done))
	}
	if done[0].ContextMap()["run_id"] == "" {
		t.Fatalf("expected run id on log entry")
	}
}

type staticVacancies []domain.Vacancy

func (s staticVacancies) FindActiveVacancies(context.Context, domain.VacancyFilter) ([]domain.Vacancy, error) {
	return append([]domain.Vacancy(nil), s...), nil
}

func TestRecommendConcurrently(t *testing.T) {
	dir := t.TempDir()
	excludePath := filepath.Join(dir, "exclude.json")
	if err := filtering.NewExcluded([]domain.Vacancy{{ID: "excluded"}}, base).ToFile(excludePath); err != nil {
		t.Fatalf("write exclude file: %v", err)
	}

	repo := staticVacancies{
		vacancy("open", base, "Python"),
		vacancy("excluded", base, "Python"),
		{ID: "closed", Active: false, CreatedAt: base},
		vacancy("sales", base, "SQL"),
	}
	repo[3].Category = "sales"

	s := newService(t, Deps{
		Vacancies: repo,
		Metrics:   metrics.New(),
		Filters:   filtering.Default(),
	}, Options{Workers: 2, Filters: &filtering.Config{
		ExcludeFile:       excludePath,
		ExcludeCategories: []string{"sales"},
	}})

	var wg sync.WaitGroup
	results := make([][]string, 16)
	errs := make([]error, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			recs, err := s.Recommend(context.Background(), candidate(), domain.VacancyFilter{}, 5)
			results[i], errs[i] = rankedIDs(recs), err
		}(i)
	}
	wg.Wait()

	for i := range results {
		if errs[i] != nil {
			t.Fatalf("recommend %d: %v", i, errs[i])
		}
		if len(results[i]) != 1 || results[i][0] != "open" {
			t.Fatalf("recommend %d: expected only the open vacancy, got %v", i, results[i])
		}
	}
}

func TestRecommendSurfacesFetchError(t *testing.T) {
	boom := errors.New("database is down")
	s := newService(t, Deps{Vacancies: &fakeVacancies{err: boom}}, Options{})

	_, err := s.Recommend(context.Background(), candidate(), domain.VacancyFilter{}, 5)
	if err != boom {
		t.Fatalf("expected fetch error unchanged, got %v", err)
	}

	noRepo := newService(t, Deps{}, Options{})
	if _, err := noRepo.Recommend(context.Background(), candidate(), domain.VacancyFilter{}, 5); !errors.Is(err, errNoRepository) {
		t.Fatalf("expected missing repository error, got %v", err)
	}
}

func TestScorePairUsesCache(t *testing.T) {
	store := &countingCache{Store: cache.NewMemory(time.Hour)}
	s := newService(t, Deps{Cache: store}, Options{})

	v := vacancy("v1", base, "Python")
	first, err := s.ScorePair(context.Background(), candidate(), &v)
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	second, err := s.ScorePair(context.Background(), candidate(), &v)
	if err != nil {
		t.Fatalf("score: %v", err)
	}

	if first != second || math.Abs(first.Final-1) > 1e-9 {
		t.Fatalf("unexpected breakdowns %+v %+v", first, second)
	}
	if store.gets != 2 || store.sets != 1 {
		t.Fatalf("expected 2 lookups and 1 store, got %d and %d", store.gets, store.sets)
	}
}

func TestScorePairSurvivesCacheFailure(t *testing.T) {
	core, observed := observer.New(zapcore.WarnLevel)
	store := &countingCache{Store: cache.NewMemory(0), err: errors.New("redis unavailable")}
	s := newService(t, Deps{Cache: store, Logger: zap.New(core)}, Options{})

	v := vacancy("v1", base, "Python")
	b, err := s.ScorePair(context.Background(), candidate(), &v)
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	if math.Abs(b.Final-1) > 1e-9 {
		t.Fatalf("expected score despite cache failure, got %+v", b)
	}
	if observed.Len() != 2 {
		t.Fatalf("expected lookup and store warnings, got %d", observed.Len())
	}
	for _, entry := range observed.All() {
		fields := entry.ContextMap()
		if fields["candidate_id"] != "c1" || fields["vacancy_id"] != "v1" {
			t.Fatalf("expected pair ids on %q, got %v", entry.Message, fields)
		}
	}
}

func TestScorePairValidates(t *testing.T) {
	s := newService(t, Deps{}, Options{})

	v := vacancy("v1", base, "Python")
	v.Salary = &domain.SalaryRange{Min: 100, Max: 50}
	if _, err := s.ScorePair(context.Background(), candidate(), &v); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
	if _, err := s.ScorePair(context.Background(), candidate(), nil); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input for nil vacancy, got %v", err)
	}
}

func TestPrioritizeSkills(t *testing.T) {
	s := newService(t, Deps{}, Options{})

	c := &domain.Candidate{
		ID:        "c1",
		Skills:    []string{"Excel reporting", "Machine learning with Python"},
		Interests: []string{"machine learning"},
	}
	ranking, err := s.PrioritizeSkills(c)
	if err != nil {
		t.Fatalf("prioritize: %v", err)
	}
	if ranking.Skills[0] != "Machine learning with Python" {
		t.Fatalf("unexpected order %v", ranking.Skills)
	}

	if _, err := s.PrioritizeSkills(nil); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestClassifyBusinessUnit(t *testing.T) {
	posting := classifier.Posting{
		Title:    "Construction laborer, temporary visa sponsorship available",
		Location: "border region",
	}

	t.Run("configured units", func(t *testing.T) {
		s := newService(t, Deps{Metrics: metrics.New()}, Options{})
		res, err := s.ClassifyBusinessUnit(context.Background(), posting)
		if err != nil {
			t.Fatalf("classify: %v", err)
		}
		if res.Unit != classifier.UnitAmigro {
			t.Fatalf("expected amigro, got %+v", res)
		}
	})

	t.Run("repository units extend configured ones", func(t *testing.T) {
		units := &fakeUnits{units: []classifier.UnitConfig{
			{Name: classifier.UnitHuntRED},
			{Name: "logistics", Keywords: map[string]float64{"forklift": 3}},
		}}
		s := newService(t, Deps{Units: units}, Options{})

		res, err := s.ClassifyBusinessUnit(context.Background(), posting)
		if err != nil {
			t.Fatalf("classify: %v", err)
		}
		if res.Unit != classifier.UnitAmigro || res.Fallback {
			t.Fatalf("expected configured amigro to stay available, got %+v", res)
		}
		if len(res.Scores) != 5 {
			t.Fatalf("expected scores for configured and repository units, got %v", res.Scores)
		}

		res, err = s.ClassifyBusinessUnit(context.Background(), classifier.Posting{Title: "Forklift operator"})
		if err != nil {
			t.Fatalf("classify: %v", err)
		}
		if res.Unit != "logistics" {
			t.Fatalf("expected repository unit to win, got %+v", res)
		}
	})

	t.Run("repository error", func(t *testing.T) {
		boom := errors.New("units table missing")
		s := newService(t, Deps{Units: &fakeUnits{err: boom}}, Options{})
		if _, err := s.ClassifyBusinessUnit(context.Background(), posting); err != boom {
			t.Fatalf("expected repository error unchanged, got %v", err)
		}
	})

	t.Run("empty repository keeps configured units", func(t *testing.T) {
		s := newService(t, Deps{Units: &fakeUnits{}}, Options{})
		res, err := s.ClassifyBusinessUnit(context.Background(), posting)
		if err != nil {
			t.Fatalf("classify: %v", err)
		}
		if res.Unit != classifier.UnitAmigro {
			t.Fatalf("expected amigro, got %+v", res)
		}
	})

	t.Run("invalid repository unit", func(t *testing.T) {
		s := newService(t, Deps{Units: &fakeUnits{units: []classifier.UnitConfig{{Name: " "}}}}, Options{})
		if _, err := s.ClassifyBusinessUnit(context.Background(), posting); !errors.Is(err, domain.ErrInvalidInput) {
			t.Fatalf("expected invalid input, got %v", err)
		}
	})
}

func TestNewRejectsInvalidOverrides(t *testing.T) {
	_, err := New(Deps{}, Options{Overrides: map[string]classifier.Profile{"x": {}}})
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}
