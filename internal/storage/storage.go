package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/spigell/recruit-bot/internal/candidate"
	"github.com/spigell/recruit-bot/internal/logger"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// ErrNotFound is returned when no candidate matches the lookup.
var ErrNotFound = errors.New("candidate not found")

// Store persists candidate records through gorm.
type Store struct {
	db     *gorm.DB
	logger *zap.Logger
	now    func() time.Time
}

// Open connects to the configured database and migrates the schema.
func Open(ctx context.Context, driver, dsn string, log *zap.Logger) (*Store, error) {
	var dialector gorm.Dialector
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case DriverPostgres:
		dialector = postgres.Open(dsn)
	case DriverSQLite, "":
		if strings.TrimSpace(dsn) == "" {
			dsn = "recruit-bot.db"
		}
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger:                                   logger.NewGorm(log),
	})
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", dialector.Name(), err)
	}

	store := New(db, log)
	if err := store.Migrate(ctx); err != nil {
		return nil, err
	}

	return store, nil
}

// New wraps an existing gorm handle.
func New(db *gorm.DB, log *zap.Logger) *Store {
	return &Store{
		db:     db,
		logger: logger.WithFields(log).Named("storage"),
		now:    time.Now,
	}
}

func (s *Store) Migrate(ctx context.Context) error {
	if err := s.db.WithContext(ctx).AutoMigrate(&candidate.Candidate{}); err != nil {
		return fmt.Errorf("migrate candidates: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// GetOrCreate returns the record for identity, creating it on first contact.
// Concurrent first contacts converge on a single row through the unique index.
func (s *Store) GetOrCreate(ctx context.Context, identity string) (*candidate.Candidate, error) {
	identity = strings.TrimSpace(identity)
	if identity == "" {
		return nil, errors.New("identity is required")
	}

	c, err := s.findByIdentity(ctx, identity)
	if err == nil {
		return c, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	fresh := candidate.Candidate{
		Identity:       identity,
		Stage:          candidate.StageIdle,
		PipelineStatus: candidate.StatusNew,
	}
	res := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "identity"}}, DoNothing: true}).
		Create(&fresh)
	if res.Error != nil {
		return nil, fmt.Errorf("create candidate: %w", res.Error)
	}
	if res.RowsAffected > 0 {
		s.logger.Info("candidate created", logger.CandidateFields(fresh.ID, identity)...)
	}

	return s.findByIdentity(ctx, identity)
}

func (s *Store) findByIdentity(ctx context.Context, identity string) (*candidate.Candidate, error) {
	var c candidate.Candidate
	err := s.db.WithContext(ctx).Where("identity = ?", identity).First(&c).Error
	if err != nil {
		return nil, translate(err, "find candidate by identity")
	}
	return &c, nil
}

func (s *Store) Get(ctx context.Context, id uint) (*candidate.Candidate, error) {
	var c candidate.Candidate
	if err := s.db.WithContext(ctx).First(&c, id).Error; err != nil {
		return nil, translate(err, "get candidate")
	}
	return &c, nil
}

// Commit writes the stage together with the recorded fields in one transaction.
func (s *Store) Commit(ctx context.Context, id uint, stage candidate.Stage, upd candidate.Update) (*candidate.Candidate, error) {
	cols := upd.Columns()
	cols["stage"] = stage
	return s.update(ctx, id, cols)
}

// Update changes profile or derived fields without touching the stage.
func (s *Store) Update(ctx context.Context, id uint, upd candidate.Update) (*candidate.Candidate, error) {
	cols := upd.Columns()
	if len(cols) == 0 {
		return s.Get(ctx, id)
	}
	return s.update(ctx, id, cols)
}

// ResetStage is the only way to move a record back to IDLE outside the flow engine.
func (s *Store) ResetStage(ctx context.Context, id uint) (*candidate.Candidate, error) {
	return s.update(ctx, id, map[string]any{"stage": candidate.StageIdle})
}

// SetPipelineStatus records the reviewer's funnel decision.
func (s *Store) SetPipelineStatus(ctx context.Context, id uint, status candidate.Status) (*candidate.Candidate, error) {
	if _, err := candidate.ParseStatus(string(status)); err != nil {
		return nil, err
	}
	return s.update(ctx, id, map[string]any{"pipeline_status": status})
}

func (s *Store) update(ctx context.Context, id uint, cols map[string]any) (*candidate.Candidate, error) {
	var out candidate.Candidate
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&candidate.Candidate{}).Where("id = ?", id).Updates(cols)
		if res.Error != nil {
			return fmt.Errorf("update candidate %d: %w", id, res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("update candidate %d: %w", id, ErrNotFound)
		}
		if err := tx.First(&out, id).Error; err != nil {
			return translate(err, "reload candidate")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// AppendMessage adds one entry to the history. Existing entries are never rewritten.
func (s *Store) AppendMessage(ctx context.Context, id uint, role, content string) error {
	msg := candidate.Message{Role: role, Content: content, Timestamp: s.now().UTC()}

	if s.db.Dialector.Name() == DriverPostgres {
		entry, err := json.Marshal([]candidate.Message{msg})
		if err != nil {
			return fmt.Errorf("marshal history entry: %w", err)
		}
		res := s.db.WithContext(ctx).Exec(
			`UPDATE candidates SET history = COALESCE(history, '[]'::jsonb) || ?::jsonb, updated_at = ? WHERE id = ?`,
			string(entry), s.now(), id,
		)
		if res.Error != nil {
			return fmt.Errorf("append history: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("append history: %w", ErrNotFound)
		}
		return nil
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var c candidate.Candidate
		if err := tx.Select("id", "history").First(&c, id).Error; err != nil {
			return translate(err, "append history")
		}
		history := append(c.History, msg)
		if err := tx.Model(&candidate.Candidate{}).Where("id = ?", id).Update("history", history).Error; err != nil {
			return fmt.Errorf("append history: %w", err)
		}
		return nil
	})
}

// List returns all candidates, most recently updated first.
func (s *Store) List(ctx context.Context) ([]candidate.Candidate, error) {
	var out []candidate.Candidate
	if err := s.db.WithContext(ctx).Order("updated_at DESC").Order("id DESC").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list candidates: %w", err)
	}
	return out, nil
}

// PendingScoring returns completed candidates with a CV whose scoring never
// landed: default score, no stored assessment, fewer than maxAttempts swept
// retries, last touched before the cutoff. maxAttempts <= 0 disables the cap.
func (s *Store) PendingScoring(ctx context.Context, before time.Time, maxAttempts int) ([]uint, error) {
	q := s.db.WithContext(ctx).
		Model(&candidate.Candidate{}).
		Where("stage = ?", candidate.StageCompleted).
		Where("qualification_score = 0").
		Where("projects IS NULL").
		Where("cv_ref IS NOT NULL AND cv_ref <> ''").
		Where("updated_at < ?", before)
	if maxAttempts > 0 {
		q = q.Where("scoring_attempts < ?", maxAttempts)
	}

	var ids []uint
	if err := q.Order("id").Pluck("id", &ids).Error; err != nil {
		return nil, fmt.Errorf("list pending candidates: %w", err)
	}
	return ids, nil
}

// RecordScoringAttempt counts one swept scoring retry for the candidate.
func (s *Store) RecordScoringAttempt(ctx context.Context, id uint) error {
	res := s.db.WithContext(ctx).
		Model(&candidate.Candidate{}).
		Where("id = ?", id).
		Update("scoring_attempts", gorm.Expr("scoring_attempts + 1"))
	if res.Error != nil {
		return fmt.Errorf("record scoring attempt for %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("record scoring attempt for %d: %w", id, ErrNotFound)
	}
	return nil
}

func translate(err error, action string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s: %w", action, ErrNotFound)
	}
	return fmt.Errorf("%s: %w", action, err)
}
