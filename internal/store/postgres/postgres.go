// Package postgres reads candidates, vacancies and business units from PostgreSQL through pgx.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/spigell/talent-matcher/internal/classifier"
	"github.com/spigell/talent-matcher/internal/domain"
	"github.com/spigell/talent-matcher/internal/geo"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

type Options struct {
	MaxOpenConns    int           `mapstructure:"max-open-conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn-max-lifetime"`
}

func OpenDB(ctx context.Context, dsn string, opts Options) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}

	maxOpen := opts.MaxOpenConns
	if maxOpen <= 0 {
		maxOpen = 10
	}
	lifetime := opts.ConnMaxLifetime
	if lifetime <= 0 {
		lifetime = 30 * time.Minute
	}
	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxOpen)
	db.SetConnMaxLifetime(lifetime)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) EnsureSchema(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

const schema = `
CREATE TABLE IF NOT EXISTS vacancies (
	id TEXT PRIMARY KEY,
	title TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	required_experience INTEGER,
	salary_min DOUBLE PRECISION,
	salary_max DOUBLE PRECISION,
	salary_currency TEXT,
	location_label TEXT,
	latitude DOUBLE PRECISION,
	longitude DOUBLE PRECISION,
	category TEXT NOT NULL DEFAULT '',
	urgency TEXT NOT NULL DEFAULT 'medium',
	active BOOLEAN NOT NULL DEFAULT TRUE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS vacancy_skills (
	vacancy_id TEXT NOT NULL REFERENCES vacancies(id) ON DELETE CASCADE,
	name TEXT NOT NULL,
	category TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (vacancy_id, name)
);

CREATE TABLE IF NOT EXISTS candidates (
	id TEXT PRIMARY KEY,
	experience_years INTEGER,
	expected_salary DOUBLE PRECISION,
	location_label TEXT,
	latitude DOUBLE PRECISION,
	longitude DOUBLE PRECISION
);

CREATE TABLE IF NOT EXISTS candidate_skills (
	candidate_id TEXT NOT NULL REFERENCES candidates(id) ON DELETE CASCADE,
	kind TEXT NOT NULL CHECK (kind IN ('skill', 'interest')),
	name TEXT NOT NULL,
	position INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (candidate_id, kind, name)
);

CREATE TABLE IF NOT EXISTS business_units (
	name TEXT PRIMARY KEY,
	location_weight DOUBLE PRECISION,
	hard_skills_weight DOUBLE PRECISION,
	soft_skills_weight DOUBLE PRECISION,
	contract_type_weight DOUBLE PRECISION,
	personality_weight DOUBLE PRECISION,
	active BOOLEAN NOT NULL DEFAULT TRUE
);

CREATE TABLE IF NOT EXISTS business_unit_keywords (
	business_unit TEXT NOT NULL REFERENCES business_units(name) ON DELETE CASCADE,
	keyword TEXT NOT NULL,
	weight DOUBLE PRECISION NOT NULL,
	PRIMARY KEY (business_unit, keyword)
);

CREATE INDEX IF NOT EXISTS idx_vacancies_active_created ON vacancies(active, created_at DESC);
`

const vacancyColumns = `id, title, description, required_experience, salary_min, salary_max, salary_currency,
	location_label, latitude, longitude, category, urgency, active, created_at`

// FindActiveVacancies returns active vacancies matching filter, newest first, with their skills.
func (s *Store) FindActiveVacancies(ctx context.Context, filter domain.VacancyFilter) ([]domain.Vacancy, error) {
	var (
		query strings.Builder
		args  []any
	)
	query.WriteString("SELECT " + vacancyColumns + "\nFROM vacancies\nWHERE active = TRUE")

	if len(filter.Categories) > 0 {
		query.WriteString(" AND lower(category) IN (")
		for i, c := range filter.Categories {
			if i > 0 {
				query.WriteString(", ")
			}
			args = append(args, strings.ToLower(strings.TrimSpace(c)))
			query.WriteString("$" + strconv.Itoa(len(args)))
		}
		query.WriteString(")")
	}
	if !filter.CreatedAfter.IsZero() {
		args = append(args, filter.CreatedAfter)
		query.WriteString(" AND created_at > $" + strconv.Itoa(len(args)))
	}
	query.WriteString("\nORDER BY created_at DESC")
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query.WriteString(" LIMIT $" + strconv.Itoa(len(args)))
	}

	rows, err := s.db.QueryContext(ctx, query.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("query vacancies: %w", err)
	}
	defer rows.Close()

	var vacancies []domain.Vacancy
	index := make(map[string]int)
	for rows.Next() {
		v, err := scanVacancy(rows)
		if err != nil {
			return nil, err
		}
		index[v.ID] = len(vacancies)
		vacancies = append(vacancies, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate vacancies: %w", err)
	}

	if len(vacancies) == 0 {
		return []domain.Vacancy{}, nil
	}
	if err := s.loadVacancySkills(ctx, vacancies, index); err != nil {
		return nil, err
	}
	return vacancies, nil
}

// FindVacancy returns a vacancy by id regardless of its active flag.
func (s *Store) FindVacancy(ctx context.Context, id string) (*domain.Vacancy, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+vacancyColumns+"\nFROM vacancies\nWHERE id = $1", id)
	v, err := scanVacancy(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrNotFound, "find vacancy "+id, err)
		}
		return nil, err
	}

	vacancies := []domain.Vacancy{v}
	if err := s.loadVacancySkills(ctx, vacancies, map[string]int{v.ID: 0}); err != nil {
		return nil, err
	}
	return &vacancies[0], nil
}

func (s *Store) loadVacancySkills(ctx context.Context, vacancies []domain.Vacancy, index map[string]int) error {
	ids := make([]any, 0, len(vacancies))
	placeholders := make([]string, 0, len(vacancies))
	for _, v := range vacancies {
		ids = append(ids, v.ID)
		placeholders = append(placeholders, "$"+strconv.Itoa(len(ids)))
	}

	rows, err := s.db.QueryContext(ctx, `SELECT vacancy_id, name, category
FROM vacancy_skills
WHERE vacancy_id IN (`+strings.Join(placeholders, ", ")+`)
ORDER BY vacancy_id, name`, ids...)
	if err != nil {
		return fmt.Errorf("query vacancy skills: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var vacancyID, name, category string
		if err := rows.Scan(&vacancyID, &name, &category); err != nil {
			return fmt.Errorf("scan vacancy skill: %w", err)
		}
		if i, ok := index[vacancyID]; ok {
			vacancies[i].RequiredSkills = append(vacancies[i].RequiredSkills, domain.Skill{
				Name:     name,
				Category: domain.SkillCategory(category),
			})
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate vacancy skills: %w", err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanVacancy(row scanner) (domain.Vacancy, error) {
	var (
		v                    domain.Vacancy
		experience           sql.NullInt64
		salaryMin, salaryMax sql.NullFloat64
		currency, label      sql.NullString
		lat, lon             sql.NullFloat64
		urgency              string
	)

	err := row.Scan(
		&v.ID, &v.Title, &v.Description, &experience, &salaryMin, &salaryMax, &currency,
		&label, &lat, &lon, &v.Category, &urgency, &v.Active, &v.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return v, err
		}
		return v, fmt.Errorf("scan vacancy: %w", err)
	}

	if experience.Valid {
		years := int(experience.Int64)
		v.RequiredExperience = &years
	}
	if salaryMin.Valid || salaryMax.Valid {
		v.Salary = &domain.SalaryRange{Min: salaryMin.Float64, Max: salaryMax.Float64, Currency: currency.String}
	}
	v.Location = location(label, lat, lon)
	v.Urgency = domain.Urgency(urgency)
	return v, nil
}

func location(label sql.NullString, lat, lon sql.NullFloat64) *domain.Location {
	if !label.Valid && !(lat.Valid && lon.Valid) {
		return nil
	}
	loc := &domain.Location{Label: label.String}
	if lat.Valid && lon.Valid {
		loc.Coordinates = &geo.Point{Lat: lat.Float64, Lon: lon.Float64}
	}
	return loc
}

func (s *Store) FindCandidate(ctx context.Context, id string) (*domain.Candidate, error) {
	var (
		c          domain.Candidate
		experience sql.NullInt64
		salary     sql.NullFloat64
		label      sql.NullString
		lat, lon   sql.NullFloat64
	)

	err := s.db.QueryRowContext(ctx, `SELECT id, experience_years, expected_salary, location_label, latitude, longitude
FROM candidates
WHERE id = $1`, id).Scan(&c.ID, &experience, &salary, &label, &lat, &lon)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrNotFound, "find candidate "+id, err)
		}
		return nil, fmt.Errorf("scan candidate: %w", err)
	}

	if experience.Valid {
		years := int(experience.Int64)
		c.ExperienceYears = &years
	}
	if salary.Valid {
		expected := salary.Float64
		c.ExpectedSalary = &expected
	}
	c.Location = location(label, lat, lon)

	rows, err := s.db.QueryContext(ctx, `SELECT kind, name
FROM candidate_skills
WHERE candidate_id = $1
ORDER BY position, name`, id)
	if err != nil {
		return nil, fmt.Errorf("query candidate skills: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var kind, name string
		if err := rows.Scan(&kind, &name); err != nil {
			return nil, fmt.Errorf("scan candidate skill: %w", err)
		}
		switch kind {
		case "interest":
			c.Interests = append(c.Interests, name)
		default:
			c.Skills = append(c.Skills, name)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate candidate skills: %w", err)
	}

	return &c, nil
}

// FindBusinessUnits returns the active units with their keyword tables. NULL weights leave the profile
// empty so the configured one applies.
func (s *Store) FindBusinessUnits(ctx context.Context) ([]classifier.UnitConfig, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name, location_weight, hard_skills_weight, soft_skills_weight,
	contract_type_weight, personality_weight
FROM business_units
WHERE active = TRUE
ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("query business units: %w", err)
	}
	defer rows.Close()

	var units []classifier.UnitConfig
	index := make(map[string]int)
	for rows.Next() {
		var (
			name                   string
			loc, hard, soft, contr sql.NullFloat64
			personality            sql.NullFloat64
		)
		if err := rows.Scan(&name, &loc, &hard, &soft, &contr, &personality); err != nil {
			return nil, fmt.Errorf("scan business unit: %w", err)
		}
		unit := classifier.UnitConfig{Name: name}
		if loc.Valid && hard.Valid && soft.Valid && contr.Valid && personality.Valid {
			unit.Profile = classifier.Profile{
				Location:     loc.Float64,
				HardSkills:   hard.Float64,
				SoftSkills:   soft.Float64,
				ContractType: contr.Float64,
				Personality:  personality.Float64,
			}
		}
		index[name] = len(units)
		units = append(units, unit)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate business units: %w", err)
	}
	if len(units) == 0 {
		return []classifier.UnitConfig{}, nil
	}

	kwRows, err := s.db.QueryContext(ctx, `SELECT business_unit, keyword, weight
FROM business_unit_keywords`)
	if err != nil {
		return nil, fmt.Errorf("query business unit keywords: %w", err)
	}
	defer kwRows.Close()

	for kwRows.Next() {
		var (
			unit, keyword string
			weight        float64
		)
		if err := kwRows.Scan(&unit, &keyword, &weight); err != nil {
			return nil, fmt.Errorf("scan business unit keyword: %w", err)
		}
		i, ok := index[unit]
		if !ok {
			continue
		}
		if units[i].Keywords == nil {
			units[i].Keywords = make(map[string]float64)
		}
		units[i].Keywords[keyword] = weight
	}
	if err := kwRows.Err(); err != nil {
		return nil, fmt.Errorf("iterate business unit keywords: %w", err)
	}

	return units, nil
}
