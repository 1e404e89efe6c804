package logger

import (
	"strings"

	"go.uber.org/zap"
)

const (
	// FieldCandidate is the structured log field key for candidate identifiers.
	FieldCandidate = "candidate_id"
	// FieldVacancy is the structured log field key for vacancy identifiers.
	FieldVacancy = "vacancy_id"
)

// StringField describes a string-valued structured logging field.
type StringField struct {
	Key   string
	Value string
}

// StringFields converts the provided key/value pairs into zap fields, trimming
// whitespace and omitting entries with empty keys or values.
func StringFields(fields ...StringField) []zap.Field {
	result := make([]zap.Field, 0, len(fields))
	for _, field := range fields {
		key := strings.TrimSpace(field.Key)
		if key == "" {
			continue
		}

		value := strings.TrimSpace(field.Value)
		if value == "" {
			continue
		}

		result = append(result, zap.String(key, value))
	}

	return result
}

// WithFields safely attaches the provided fields to the logger.
// A nil logger is replaced by a no-op one.
func WithFields(logger *zap.Logger, fields ...zap.Field) *zap.Logger {
	if logger == nil {
		logger = zap.NewNop()
	}

	if len(fields) == 0 {
		return logger
	}

	return logger.With(fields...)
}

// MatchFields identifies a candidate/vacancy pair. Empty ids are left out.
func MatchFields(candidateID, vacancyID string) []zap.Field {
	return StringFields(
		StringField{Key: FieldCandidate, Value: candidateID},
		StringField{Key: FieldVacancy, Value: vacancyID},
	)
}

// WithMatchFields attaches the pair identifiers to the logger.
func WithMatchFields(logger *zap.Logger, candidateID, vacancyID string) *zap.Logger {
	return WithFields(logger, MatchFields(candidateID, vacancyID)...)
}
