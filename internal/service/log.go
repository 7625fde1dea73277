package service

import (
	"context"

	"github.com/sakif/findsboard/internal/model"
	"github.com/sakif/findsboard/internal/repository"
)

// LogService reads the audit trail. Entries are written only through
// ActivityRecorder; there is no update or delete.
type LogService struct {
	logs repository.LogRepository
}

func NewLogService(logs repository.LogRepository) *LogService {
	return &LogService{logs: logs}
}

func (s *LogService) List(ctx context.Context, actor *model.User, page Page) ([]model.Log, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	return s.logs.List(ctx, page.Options())
}

func (s *LogService) Get(ctx context.Context, actor *model.User, id int64) (*model.Log, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	return s.logs.GetByID(ctx, id)
}
