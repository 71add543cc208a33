package service

import (
	"context"
	"time"

	"servicelink/internal/model"
	"servicelink/internal/repository"
)

type ActivityLogResponse struct {
	ID          string `json:"id"`
	PerformedBy string `json:"performed_by"`
	Performer   string `json:"performer"`
	Action      string `json:"action"`
	RequestType string `json:"request_type"`
	Target      string `json:"target"`
	Details     string `json:"details"`
	CreatedAt   string `json:"created_at"`
}

type ActivityService interface {
	GetActivityLogs(ctx context.Context, requestType string, page, limit int) ([]ActivityLogResponse, int64, error)
	GetRequestTrail(ctx context.Context, reference string) ([]ActivityLogResponse, error)
}

type activityService struct {
	repo repository.ActivityRepository
}

func NewActivityService(repo repository.ActivityRepository) ActivityService {
	return &activityService{repo: repo}
}

// GetActivityLogs returns paginated log entries, optionally filtered to one
// request type, with the performing user preloaded.
func (s *activityService) GetActivityLogs(ctx context.Context, requestType string, page, limit int) ([]ActivityLogResponse, int64, error) {
	logs, total, err := s.repo.List(ctx, requestType, page, limit)
	if err != nil {
		return nil, 0, err
	}
	return toActivityResponses(logs), total, nil
}

// GetRequestTrail returns the full history of one request, oldest first.
func (s *activityService) GetRequestTrail(ctx context.Context, reference string) ([]ActivityLogResponse, error) {
	logs, err := s.repo.ListByTarget(ctx, reference)
	if err != nil {
		return nil, err
	}
	return toActivityResponses(logs), nil
}

func toActivityResponses(logs []model.ActivityLog) []ActivityLogResponse {
	res := make([]ActivityLogResponse, 0, len(logs))
	for _, l := range logs {
		performer := "System"
		performedBy := ""
		if l.Performer != nil {
			performer = l.Performer.Username
		}
		if l.PerformedBy != nil {
			performedBy = l.PerformedBy.String()
		}
		res = append(res, ActivityLogResponse{
			ID:          l.ID.String(),
			PerformedBy: performedBy,
			Performer:   performer,
			Action:      l.Action,
			RequestType: l.RequestType,
			Target:      l.Target,
			Details:     l.Details,
			CreatedAt:   l.CreatedAt.Format(time.RFC3339),
		})
	}
	return res
}
