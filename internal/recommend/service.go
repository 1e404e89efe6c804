// Package recommend ties the scorers, the classifier and the persistence collaborators together.
package recommend

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/spigell/talent-matcher/internal/cache"
	"github.com/spigell/talent-matcher/internal/classifier"
	"github.com/spigell/talent-matcher/internal/domain"
	"github.com/spigell/talent-matcher/internal/filtering"
	"github.com/spigell/talent-matcher/internal/logger"
	"github.com/spigell/talent-matcher/internal/matching"
	"github.com/spigell/talent-matcher/internal/metrics"
	"github.com/spigell/talent-matcher/internal/similarity"
	"github.com/spigell/talent-matcher/internal/utils"
)

const (
	DefaultTopN    = 5
	defaultWorkers = 4
)

var errNoRepository = errors.New("repository is not configured")

// VacancyRepository fetches open vacancies. Implementations return fully materialised values.
type VacancyRepository interface {
	FindActiveVacancies(ctx context.Context, filter domain.VacancyFilter) ([]domain.Vacancy, error)
}

// BusinessUnitRepository lists the units a posting can be routed to.
type BusinessUnitRepository interface {
	FindBusinessUnits(ctx context.Context) ([]classifier.UnitConfig, error)
}

// Recommendation is one ranked vacancy.
type Recommendation struct {
	Rank      int                   `json:"rank"`
	Vacancy   domain.Vacancy        `json:"vacancy"`
	Score     float64               `json:"score"`
	Breakdown domain.ScoreBreakdown `json:"breakdown"`
}

// Deps are the collaborators of a Service. Calculator and Classifier default to the built-in rule sets;
// everything else is optional.
type Deps struct {
	Vacancies  VacancyRepository
	Units      BusinessUnitRepository
	Calculator *matching.Calculator
	Classifier *classifier.Classifier
	Cache      cache.Store
	Metrics    *metrics.Metrics
	Logger     *zap.Logger
	Filters    []filtering.Filter
}

type Options struct {
	Workers   int
	TopN      int
	Filters   *filtering.Config
	Overrides map[string]classifier.Profile
}

// Service is safe for concurrent use once built.
type Service struct {
	vacancies  VacancyRepository
	units      BusinessUnitRepository
	calculator *matching.Calculator
	classifier *classifier.Classifier
	cache      cache.Store
	metrics    *metrics.Metrics
	logger     *zap.Logger
	filters    []filtering.Filter
	filterCfg  *filtering.Config
	workers    int
	topN       int
	overrides  map[string]classifier.Profile
	now        func() time.Time
}

func New(deps Deps, opts Options) (*Service, error) {
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}

	calculator := deps.Calculator
	if calculator == nil {
		var err error
		calculator, err = matching.NewCalculator(matching.DefaultConfig())
		if err != nil {
			return nil, fmt.Errorf("build calculator: %w", err)
		}
	}

	cls := deps.Classifier
	if cls == nil {
		var err error
		cls, err = classifier.New(classifier.DefaultConfig(), log)
		if err != nil {
			return nil, fmt.Errorf("build classifier: %w", err)
		}
	}

	for name, profile := range opts.Overrides {
		if err := profile.Validate(); err != nil {
			return nil, fmt.Errorf("override for unit %s: %w", name, err)
		}
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = defaultWorkers
	}
	topN := opts.TopN
	if topN <= 0 {
		topN = DefaultTopN
	}

	return &Service{
		vacancies:  deps.Vacancies,
		units:      deps.Units,
		calculator: calculator,
		classifier: cls,
		cache:      deps.Cache,
		metrics:    deps.Metrics,
		logger:     log,
		filters:    deps.Filters,
		filterCfg:  opts.Filters,
		workers:    workers,
		topN:       topN,
		overrides:  opts.Overrides,
		now:        time.Now,
	}, nil
}

// Recommend fetches the active vacancies matching filter, runs the filter pipeline and returns the topN
// best matches for the candidate. Fetch errors are returned as produced by the repository.
func (s *Service) Recommend(ctx context.Context, c *domain.Candidate, filter domain.VacancyFilter, topN int) ([]Recommendation, error) {
	started := s.now()
	log := logger.WithFields(s.logger, zap.String("run_id", uuid.NewString()))

	recs, scored, err := s.recommend(ctx, log, c, filter, topN)
	s.metrics.ObserveRank(s.now().Sub(started), scored, err)
	if err != nil {
		log.Error("recommendation failed", zap.Error(err))
		return nil, err
	}

	log.Info("recommendation completed",
		zap.String("candidate_id", c.ID),
		zap.Int("scored", scored),
		zap.Int("returned", len(recs)),
		zap.Duration("took", s.now().Sub(started)),
	)
	return recs, nil
}

func (s *Service) recommend(ctx context.Context, log *zap.Logger, c *domain.Candidate, filter domain.VacancyFilter, topN int) ([]Recommendation, int, error) {
	if err := c.Validate(); err != nil {
		return nil, 0, err
	}
	if s.vacancies == nil {
		return nil, 0, errNoRepository
	}

	vacancies, err := s.vacancies.FindActiveVacancies(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	log.Debug("vacancies fetched", zap.Int("count", len(vacancies)))

	if len(s.filters) > 0 {
		vacancies, err = filtering.Run(ctx, s.filterCfg, filtering.Deps{Logger: log, Now: s.now}, s.filters, vacancies)
		if err != nil {
			return nil, 0, fmt.Errorf("filter vacancies: %w", err)
		}
	}

	recs, err := s.rank(ctx, log, c, vacancies, topN)
	if err != nil {
		return nil, 0, err
	}
	return recs, len(vacancies), nil
}

// RankVacancies scores every vacancy for the candidate and returns the topN best, highest score first.
// Equal scores are ordered by creation time, newest first. A non-positive topN selects the default.
func (s *Service) RankVacancies(ctx context.Context, c *domain.Candidate, vacancies []domain.Vacancy, topN int) ([]Recommendation, error) {
	started := s.now()

	if err := c.Validate(); err != nil {
		s.metrics.ObserveRank(s.now().Sub(started), 0, err)
		return nil, err
	}

	recs, err := s.rank(ctx, s.logger, c, vacancies, topN)
	s.metrics.ObserveRank(s.now().Sub(started), len(vacancies), err)
	return recs, err
}

func (s *Service) rank(ctx context.Context, log *zap.Logger, c *domain.Candidate, vacancies []domain.Vacancy, topN int) ([]Recommendation, error) {
	if topN <= 0 {
		topN = s.topN
	}
	if len(vacancies) == 0 {
		return []Recommendation{}, nil
	}

	for i := range vacancies {
		if err := vacancies[i].Validate(); err != nil {
			return nil, err
		}
	}

	recs := make([]Recommendation, len(vacancies))
	g := new(errgroup.Group)
	g.SetLimit(s.workers)
	for i := range vacancies {
		i := i
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			b := s.breakdown(ctx, log, c, &vacancies[i])
			recs[i] = Recommendation{Vacancy: vacancies[i], Score: b.Final, Breakdown: b}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.SliceStable(recs, func(i, j int) bool {
		if recs[i].Score != recs[j].Score {
			return recs[i].Score > recs[j].Score
		}
		return recs[i].Vacancy.CreatedAt.After(recs[j].Vacancy.CreatedAt)
	})

	if len(recs) > topN {
		recs = recs[:topN]
	}
	for i := range recs {
		recs[i].Rank = i + 1
		log.Debug("ranked vacancy", append(logger.MatchFields(c.ID, recs[i].Vacancy.ID),
			zap.Int("rank", recs[i].Rank),
			zap.Float64("score", recs[i].Score),
			zap.String("title", utils.TruncateForLog(recs[i].Vacancy.Title, 80)),
		)...)
	}

	return recs, nil
}

// ScorePair returns the full score breakdown of one pair.
func (s *Service) ScorePair(ctx context.Context, c *domain.Candidate, v *domain.Vacancy) (domain.ScoreBreakdown, error) {
	if err := c.Validate(); err != nil {
		return domain.ScoreBreakdown{}, err
	}
	if err := v.Validate(); err != nil {
		return domain.ScoreBreakdown{}, err
	}
	return s.breakdown(ctx, s.logger, c, v), nil
}

// breakdown consults the cache when one is configured. Cache failures only cost the memoisation.
func (s *Service) breakdown(ctx context.Context, log *zap.Logger, c *domain.Candidate, v *domain.Vacancy) domain.ScoreBreakdown {
	if s.cache == nil {
		return s.calculator.Breakdown(c, v)
	}

	key := cache.Key(c, v)
	cached, ok, err := s.cache.Get(ctx, key)
	s.metrics.ObserveCacheLookup(ok, err)
	if err != nil {
		logger.WithMatchFields(log, c.ID, v.ID).Warn("score cache lookup failed", zap.Error(err))
	}
	if ok {
		return cached
	}

	b := s.calculator.Breakdown(c, v)
	if err := s.cache.Set(ctx, key, b); err != nil {
		logger.WithMatchFields(log, c.ID, v.ID).Warn("score cache store failed", zap.Error(err))
	}
	return b
}

// PrioritizeSkills orders the candidate's skills by relevance to their stated interests.
func (s *Service) PrioritizeSkills(c *domain.Candidate) (similarity.Ranking, error) {
	if err := c.Validate(); err != nil {
		return similarity.Ranking{}, err
	}
	return similarity.Rank(c.Skills, c.Interests), nil
}

// ClassifyBusinessUnit routes a posting to one of the configured units or the units returned by the unit
// repository. Repository units extend the configured table; a repository entry with the name of a configured
// unit replaces its keywords or profile when those are set.
func (s *Service) ClassifyBusinessUnit(ctx context.Context, p classifier.Posting) (classifier.Result, error) {
	cls := s.classifier

	if s.units != nil {
		units, err := s.units.FindBusinessUnits(ctx)
		if err != nil {
			return classifier.Result{}, err
		}
		cls, _, err = s.classifier.WithUnits(units)
		if err != nil {
			return classifier.Result{}, err
		}
	}
	names := cls.Units()

	result, err := cls.Classify(p, names, s.overrides)
	if err != nil {
		return classifier.Result{}, err
	}

	s.metrics.ObserveClassification(result.Unit, result.Fallback)
	s.logger.Info("posting classified",
		zap.String("title", utils.TruncateForLog(p.Title, 80)),
		zap.String("unit", result.Unit),
		zap.Int("seniority", result.Seniority),
		zap.String("dominant_industry", result.DominantIndustry),
		zap.Bool("fallback", result.Fallback),
	)
	return result, nil
}
