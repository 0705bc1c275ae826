package logger

import (
	"strings"

	"go.uber.org/zap"
)

const (
	// FieldProvider is the structured log field key for the AI provider name.
	FieldProvider = "ai_provider"
	// FieldModel is the structured log field key for the AI model identifier.
	FieldModel = "ai_model"
	// FieldCandidateID identifies a candidate record.
	FieldCandidateID = "candidate_id"
	// FieldIdentity is the messaging identity (e.g. whatsapp:+49...) of a candidate.
	FieldIdentity = "identity"
	FieldStage    = "stage"
	FieldRunID    = "run_id"
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
// A nil logger becomes a no-op logger.
func WithFields(logger *zap.Logger, fields ...zap.Field) *zap.Logger {
	if logger == nil {
		logger = zap.NewNop()
	}

	if len(fields) == 0 {
		return logger
	}

	return logger.With(fields...)
}

// CommonFields returns standard zap fields that describe the AI provider and model.
// Empty values are ignored to keep log entries compact when information is missing.
func CommonFields(provider, model string) []zap.Field {
	return StringFields(
		StringField{Key: FieldProvider, Value: provider},
		StringField{Key: FieldModel, Value: model},
	)
}

// WithCommonFields attaches the common AI fields to the provided logger.
func WithCommonFields(logger *zap.Logger, provider, model string) *zap.Logger {
	fields := CommonFields(provider, model)
	return WithFields(logger, fields...)
}

// CandidateFields describes a candidate in log entries. A zero id is omitted
// because records that were not loaded yet have none.
func CandidateFields(id uint, identity string) []zap.Field {
	fields := StringFields(StringField{Key: FieldIdentity, Value: identity})
	if id != 0 {
		fields = append([]zap.Field{zap.Uint(FieldCandidateID, id)}, fields...)
	}
	return fields
}

// WithCandidate attaches the candidate fields to the provided logger.
func WithCandidate(logger *zap.Logger, id uint, identity string) *zap.Logger {
	return WithFields(logger, CandidateFields(id, identity)...)
}
