package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"strings"
	"time"

	"spotbuddy/workout-bot/internal/domain"
	"spotbuddy/workout-bot/internal/repository"
	"spotbuddy/workout-bot/internal/storage"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// maxListedExports caps ListExports; each entry costs a presign.
const maxListedExports = 20

// Export is a stored CSV with a temporary download link.
type Export struct {
	Key       string     `json:"key"`
	URL       string     `json:"url"`
	Year      int        `json:"year"`
	Month     time.Month `json:"month"`
	Rows      int        `json:"rows"`
	CreatedAt time.Time  `json:"created_at"`
	ExpiresAt time.Time  `json:"expires_at"`
}

type ExportService interface {
	// ExportGroupMonth writes the month's group workouts as CSV to object
	// storage and returns a presigned download link.
	ExportGroupMonth(ctx context.Context, groupID domain.TelegramID, period domain.MonthPeriod) (*Export, error)
	// ListExports returns the group's recent exports with fresh links.
	ListExports(ctx context.Context, groupID domain.TelegramID) ([]Export, error)
}

type exportService struct {
	workouts WorkoutService
	records  repository.ExportRepository
	store    storage.FileStorage
	expiry   time.Duration
	logger   logrus.FieldLogger
}

func NewExportService(
	workouts WorkoutService,
	records repository.ExportRepository,
	store storage.FileStorage,
	expiry time.Duration,
	logger logrus.FieldLogger,
) ExportService {
	if expiry <= 0 {
		expiry = storage.DefaultPresignedURLExpiry
	}
	return &exportService{workouts: workouts, records: records, store: store, expiry: expiry, logger: logger}
}

var exportHeader = []string{"date", "username", "telegram_id", "exercises", "mood", "notes", "timezone"}

func writeWorkoutsCSV(workouts []domain.EnrichedWorkout) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(exportHeader); err != nil {
		return nil, err
	}
	// Oldest first reads naturally in a spreadsheet.
	for i := len(workouts) - 1; i >= 0; i-- {
		wo := workouts[i]
		parts := make([]string, 0, len(wo.Exercises))
		for _, ex := range wo.Exercises {
			parts = append(parts, ex.String())
		}
		if err := w.Write([]string{
			wo.Date.String(),
			wo.Users.Username,
			wo.Users.TelegramID.String(),
			strings.Join(parts, "; "),
			string(wo.Mood),
			wo.Notes,
			wo.Timezone,
		}); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

func (s *exportService) ExportGroupMonth(ctx context.Context, groupID domain.TelegramID, period domain.MonthPeriod) (*Export, error) {
	workouts, err := s.workouts.GetGroupWorkouts(ctx, groupID, &period)
	if err != nil {
		return nil, err
	}
	data, err := writeWorkoutsCSV(workouts)
	if err != nil {
		return nil, fmt.Errorf("encode export: %w", err)
	}

	key := fmt.Sprintf("exports/%s/%04d-%02d-%s.csv", groupID, period.Year, int(period.Month), uuid.NewString())
	if err := s.store.PutObject(ctx, key, "text/csv", bytes.NewReader(data)); err != nil {
		if errors.Is(err, storage.ErrStorageDisabled) {
			return nil, ErrExportDisabled
		}
		return nil, storeError("upload export", err)
	}

	url, err := s.store.GeneratePresignedDownloadURL(ctx, key, s.expiry)
	if err != nil {
		// Nobody can reach the object without a link.
		if delErr := s.store.DeleteObject(ctx, key); delErr != nil {
			s.logger.WithError(delErr).WithField("key", key).Warn("failed to remove orphaned export")
		}
		return nil, storeError("presign export", err)
	}

	record := &domain.ExportRecord{
		GroupID:   groupID,
		Year:      period.Year,
		Month:     period.Month,
		ObjectKey: key,
		Rows:      len(workouts),
	}
	if _, err := s.records.Create(ctx, record); err != nil {
		// The file and link are fine; only the history misses an entry.
		s.logger.WithError(err).WithField("key", key).Warn("failed to record export")
	}

	s.logger.WithFields(logrus.Fields{
		"group_id": groupID,
		"key":      key,
		"rows":     len(workouts),
	}).Info("group export written")
	return s.toExport(record, url), nil
}

func (s *exportService) toExport(record *domain.ExportRecord, url string) *Export {
	created := record.CreatedAt
	if created.IsZero() {
		created = time.Now().UTC()
	}
	return &Export{
		Key:       record.ObjectKey,
		URL:       url,
		Year:      record.Year,
		Month:     record.Month,
		Rows:      record.Rows,
		CreatedAt: created,
		ExpiresAt: time.Now().UTC().Add(s.expiry),
	}
}

func (s *exportService) ListExports(ctx context.Context, groupID domain.TelegramID) ([]Export, error) {
	if groupID == 0 {
		return nil, validationError("group id is required")
	}
	if _, disabled := s.store.(storage.Disabled); disabled {
		return nil, ErrExportDisabled
	}
	records, err := s.records.ListByGroup(ctx, groupID, maxListedExports)
	if err != nil {
		return nil, storeError("list exports", err)
	}

	exports := make([]Export, 0, len(records))
	for i := range records {
		url, err := s.store.GeneratePresignedDownloadURL(ctx, records[i].ObjectKey, s.expiry)
		if err != nil {
			return nil, storeError("presign export", err)
		}
		exports = append(exports, *s.toExport(&records[i], url))
	}
	return exports, nil
}
