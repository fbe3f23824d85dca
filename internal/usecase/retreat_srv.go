package usecase

import (
	"context"
	"fmt"
	"time"

	"retreat-booking/internal/data/repository"
	"retreat-booking/internal/dto/response"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type RetreatService interface {
	ListUpcoming(ctx context.Context) (*response.RetreatListResponse, error)
	GetRetreat(ctx context.Context, id string) (*response.RetreatResponse, error)
}

type retreatService struct {
	repo *repository.Repository
	log  *zap.Logger
}

func NewRetreatService(repo *repository.Repository, log *zap.Logger) RetreatService {
	return &retreatService{
		repo: repo,
		log:  log.With(zap.String("service", "retreat")),
	}
}

func (s *retreatService) ListUpcoming(ctx context.Context) (*response.RetreatListResponse, error) {
	retreats, err := s.repo.Retreat.FindUpcoming(ctx, time.Now())
	if err != nil {
		return nil, err
	}

	resp := &response.RetreatListResponse{
		Retreats: make([]response.RetreatResponse, 0, len(retreats)),
	}
	for _, retreat := range retreats {
		resp.Retreats = append(resp.Retreats, toRetreatResponse(retreat, nil))
	}
	return resp, nil
}

func (s *retreatService) GetRetreat(ctx context.Context, id string) (*response.RetreatResponse, error) {
	retreatID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid retreat ID format %s: %w", id, err)
	}

	retreat, err := s.repo.Retreat.FindByID(ctx, retreatID)
	if err != nil {
		return nil, err
	}
	if retreat == nil {
		return nil, fmt.Errorf("retreat %s not found", id)
	}

	rooms, err := s.repo.Room.FindByRetreatID(ctx, retreatID)
	if err != nil {
		return nil, err
	}

	resp := toRetreatResponse(retreat, rooms)
	return &resp, nil
}
