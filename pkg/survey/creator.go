package survey

import (
	"context"
	"log/slog"
	"strings"

	"github.com/aretw0/fieldwork/internal/logging"
	"github.com/aretw0/fieldwork/pkg/domain"
	"github.com/aretw0/fieldwork/pkg/ports"
)

// CreateRequest carries the survey metadata written on first save.
type CreateRequest struct {
	ProjectID   string
	UserID      string
	Title       string
	Description string
	StartDate   *string
	Deadline    *string
	Status      domain.SurveyStatus
	Settings    domain.SurveySettings
}

// Creator inserts survey records.
type Creator struct {
	store  ports.RecordStore
	logger *slog.Logger
}

// CreatorOption configures the Creator.
type CreatorOption func(*Creator)

// WithCreatorLogger configures a logger for the Creator.
func WithCreatorLogger(logger *slog.Logger) CreatorOption {
	return func(c *Creator) {
		c.logger = logger
	}
}

// NewCreator creates a Creator writing to store.
func NewCreator(store ports.RecordStore, opts ...CreatorOption) *Creator {
	c := &Creator{store: store, logger: logging.NewNop()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CreateSurvey inserts one survey record and returns its id.
// Store failures are returned as *domain.PersistenceError.
func (c *Creator) CreateSurvey(ctx context.Context, req CreateRequest) (string, error) {
	if strings.TrimSpace(req.Title) == "" {
		return "", &domain.PreconditionError{Err: domain.ErrTitleRequired}
	}

	rec, err := c.store.Insert(ctx, ports.TableSurveys, surveyRecord(req))
	if err != nil {
		perr := domain.NewPersistenceError("insert", ports.TableSurveys, err)
		c.logger.Error("Failed to create survey", "project_id", req.ProjectID, "err", perr)
		return "", perr
	}

	id := rec.ID()
	c.logger.Info("Survey created", "survey_id", id, "project_id", req.ProjectID)
	return id, nil
}
