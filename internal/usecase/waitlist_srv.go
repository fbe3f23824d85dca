package usecase

import (
	"context"
	"fmt"
	"time"

	"retreat-booking/internal/data/entity"
	"retreat-booking/internal/data/repository"
	"retreat-booking/internal/dto/request"
	"retreat-booking/internal/dto/response"
	"retreat-booking/pkg/notifier"
	"retreat-booking/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// OfferTokenStore holds single-use waitlist offer tokens. The redis-backed
// implementation lives in pkg/cache.
type OfferTokenStore interface {
	StoreOfferToken(ctx context.Context, token string, entryID uuid.UUID, ttl time.Duration) error
	LookupOfferToken(ctx context.Context, token string) (uuid.UUID, error)
	ConsumeOfferToken(ctx context.Context, token string) error
}

type WaitlistService interface {
	Join(ctx context.Context, req *request.JoinWaitlistRequest) (*response.WaitlistResponse, error)

	// OfferNext hands the freed slot to the head of the (retreat, room)
	// queue, unless another entry already holds an un-expired offer.
	OfferNext(ctx context.Context, retreatID uuid.UUID, roomID *uuid.UUID) error

	// Accept reserves capacity and moves the entry to accepted. The token
	// survives until checkout completes, so a capacity conflict here does
	// not burn the guest's offer.
	Accept(ctx context.Context, token string) (*response.WaitlistResponse, error)
	Decline(ctx context.Context, token string) error

	// ExpireOffers sweeps lapsed offers and cascades each freed offer to the
	// next entry in its queue.
	ExpireOffers(ctx context.Context) (int, error)

	// ResolveToken maps an offer token to its entry; nil without error when
	// the token is unknown or expired.
	ResolveToken(ctx context.Context, token string) (*entity.WaitlistEntry, error)

	// MarkBooked finishes the accepted -> booked edge at checkout completion
	// and consumes the token.
	MarkBooked(ctx context.Context, entryID uuid.UUID, token string) error
}

type waitlistService struct {
	repo   *repository.Repository
	notify notifier.Sender
	tokens OfferTokenStore
	config *utils.Config
	log    *zap.Logger
}

func NewWaitlistService(repo *repository.Repository, notify notifier.Sender, tokens OfferTokenStore, config *utils.Config, log *zap.Logger) WaitlistService {
	return &waitlistService{
		repo:   repo,
		notify: notify,
		tokens: tokens,
		config: config,
		log:    log.With(zap.String("service", "waitlist")),
	}
}

func (s *waitlistService) Join(ctx context.Context, req *request.JoinWaitlistRequest) (*response.WaitlistResponse, error) {
	now := time.Now()

	retreatID, err := uuid.Parse(req.RetreatID)
	if err != nil {
		return nil, fmt.Errorf("invalid retreat ID format %s: %w", req.RetreatID, err)
	}

	retreat, err := s.repo.Retreat.FindByID(ctx, retreatID)
	if err != nil {
		return nil, err
	}
	if retreat == nil {
		return nil, fmt.Errorf("retreat %s not found", req.RetreatID)
	}
	if retreat.HasStarted(now) {
		return nil, fmt.Errorf("retreat %s has already started", retreat.Name)
	}

	var roomID *uuid.UUID
	if req.RoomID != "" {
		parsed, err := uuid.Parse(req.RoomID)
		if err != nil {
			return nil, fmt.Errorf("invalid room ID format %s: %w", req.RoomID, err)
		}
		room, err := s.repo.Room.FindByID(ctx, parsed)
		if err != nil {
			return nil, err
		}
		if room == nil {
			return nil, fmt.Errorf("room %s not found", req.RoomID)
		}
		if room.RetreatID != retreat.ID {
			return nil, fmt.Errorf("room %s does not belong to retreat %s", room.Name, retreat.Name)
		}
		roomID = &room.ID
	}

	position, err := s.repo.Waitlist.NextPosition(ctx, retreatID, roomID)
	if err != nil {
		return nil, err
	}

	entry := &entity.WaitlistEntry{
		BaseNoDelete: entity.BaseNoDelete{
			ID:        uuid.New(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		RetreatID:   retreatID,
		RoomID:      roomID,
		GuestName:   req.GuestName,
		GuestEmail:  req.GuestEmail,
		GuestsCount: req.GuestsCount,
		Position:    position,
		Status:      entity.WaitlistStatusWaiting,
	}
	if err := s.repo.Waitlist.Create(ctx, entry); err != nil {
		return nil, err
	}

	s.log.Info("Waitlist entry created",
		zap.String("entry_id", entry.ID.String()),
		zap.String("retreat_id", retreatID.String()),
		zap.Int("position", position),
	)

	s.send(ctx, notifier.KindWaitlistJoined, entry.GuestEmail, map[string]any{
		"retreat_name": retreat.Name,
		"position":     position,
	})

	resp := toWaitlistResponse(entry)
	return &resp, nil
}

func (s *waitlistService) OfferNext(ctx context.Context, retreatID uuid.UUID, roomID *uuid.UUID) error {
	now := time.Now()

	// The offer is exclusive: while one entry holds an un-expired offer,
	// nobody else gets notified for this queue.
	active, err := s.repo.Waitlist.HasActiveOffer(ctx, retreatID, roomID, now)
	if err != nil {
		return err
	}
	if active {
		s.log.Debug("Waitlist offer already active, skipping",
			zap.String("retreat_id", retreatID.String()),
		)
		return nil
	}

	entry, err := s.repo.Waitlist.FindNextWaiting(ctx, retreatID, roomID)
	if err != nil {
		return err
	}
	if entry == nil {
		return nil
	}

	holdHours := s.config.Payments.WaitlistHoldHours
	if holdHours <= 0 {
		holdHours = 72
	}
	hold := time.Duration(holdHours) * time.Hour
	expiresAt := now.Add(hold)

	ok, err := s.repo.Waitlist.MarkNotified(ctx, entry.ID, expiresAt)
	if err != nil {
		return err
	}
	if !ok {
		// Lost a race with a concurrent offer; that run owns the notify.
		return nil
	}

	token := uuid.NewString()
	if err := s.tokens.StoreOfferToken(ctx, token, entry.ID, hold); err != nil {
		// The entry is notified either way; without a token the guest cannot
		// respond and the sweep will expire the offer.
		s.log.Error("Failed to store waitlist offer token",
			zap.Error(err),
			zap.String("entry_id", entry.ID.String()),
		)
	}

	s.log.Info("Waitlist offer sent",
		zap.String("entry_id", entry.ID.String()),
		zap.String("retreat_id", retreatID.String()),
		zap.Int("position", entry.Position),
		zap.Time("expires_at", expiresAt),
	)

	s.send(ctx, notifier.KindWaitlistOffer, entry.GuestEmail, map[string]any{
		"token":      token,
		"expires_at": expiresAt.Format(time.RFC3339),
		"hold_hours": holdHours,
	})

	return nil
}

func (s *waitlistService) Accept(ctx context.Context, token string) (*response.WaitlistResponse, error) {
	entry, err := s.ResolveToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, fmt.Errorf("offer token is invalid or expired")
	}

	now := time.Now()
	if entry.Status != entity.WaitlistStatusNotified || entry.OfferExpired(now) {
		return nil, fmt.Errorf("waitlist offer is no longer open")
	}

	decremented := false
	if entry.RoomID != nil {
		ok, err := s.repo.Room.TryDecrementAvailable(ctx, *entry.RoomID, entry.GuestsCount)
		if err != nil {
			return nil, err
		}
		if !ok {
			// The slot vanished again; the token stays valid so the guest can
			// retry if capacity frees up before the offer lapses.
			return nil, fmt.Errorf("waitlist offer: %w", ErrRoomUnavailable)
		}
		decremented = true
	}

	ok, err := s.repo.Waitlist.UpdateStatus(ctx, entry.ID, entity.WaitlistStatusNotified, entity.WaitlistStatusAccepted)
	if err != nil || !ok {
		if decremented {
			if incErr := s.repo.Room.IncrementAvailable(ctx, *entry.RoomID, entry.GuestsCount); incErr != nil {
				s.log.Error("Failed to release room after accept conflict",
					zap.Error(incErr),
					zap.String("room_id", entry.RoomID.String()),
				)
			}
		}
		if err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("waitlist offer is no longer open")
	}
	entry.Status = entity.WaitlistStatusAccepted

	s.log.Info("Waitlist offer accepted",
		zap.String("entry_id", entry.ID.String()),
		zap.String("retreat_id", entry.RetreatID.String()),
	)

	resp := toWaitlistResponse(entry)
	return &resp, nil
}

func (s *waitlistService) Decline(ctx context.Context, token string) error {
	entry, err := s.ResolveToken(ctx, token)
	if err != nil {
		return err
	}
	if entry == nil {
		return fmt.Errorf("offer token is invalid or expired")
	}
	if entry.Status != entity.WaitlistStatusNotified {
		return fmt.Errorf("waitlist offer is no longer open")
	}

	ok, err := s.repo.Waitlist.UpdateStatus(ctx, entry.ID, entity.WaitlistStatusNotified, entity.WaitlistStatusDeclined)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("waitlist offer is no longer open")
	}

	if err := s.tokens.ConsumeOfferToken(ctx, token); err != nil {
		s.log.Error("Failed to consume declined offer token", zap.Error(err))
	}

	s.log.Info("Waitlist offer declined",
		zap.String("entry_id", entry.ID.String()),
	)

	// The slot goes straight to the next entry in line.
	if err := s.OfferNext(ctx, entry.RetreatID, entry.RoomID); err != nil {
		s.log.Error("Failed to cascade offer after decline",
			zap.Error(err),
			zap.String("retreat_id", entry.RetreatID.String()),
		)
	}

	return nil
}

func (s *waitlistService) ExpireOffers(ctx context.Context) (int, error) {
	now := time.Now()

	entries, err := s.repo.Waitlist.FindExpiredOffers(ctx, now)
	if err != nil {
		return 0, err
	}

	expired := 0
	for _, entry := range entries {
		ok, err := s.repo.Waitlist.UpdateStatus(ctx, entry.ID, entity.WaitlistStatusNotified, entity.WaitlistStatusExpired)
		if err != nil {
			s.log.Error("Failed to expire waitlist offer",
				zap.Error(err),
				zap.String("entry_id", entry.ID.String()),
			)
			continue
		}
		if !ok {
			// The guest responded between the query and the update.
			continue
		}
		expired++

		s.send(ctx, notifier.KindWaitlistExpired, entry.GuestEmail, map[string]any{
			"position": entry.Position,
		})

		if err := s.OfferNext(ctx, entry.RetreatID, entry.RoomID); err != nil {
			s.log.Error("Failed to cascade offer after expiry",
				zap.Error(err),
				zap.String("retreat_id", entry.RetreatID.String()),
			)
		}
	}

	if expired > 0 {
		s.log.Info("Expired waitlist offers", zap.Int("count", expired))
	}

	return expired, nil
}

func (s *waitlistService) ResolveToken(ctx context.Context, token string) (*entity.WaitlistEntry, error) {
	entryID, err := s.tokens.LookupOfferToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if entryID == uuid.Nil {
		return nil, nil
	}
	return s.repo.Waitlist.FindByID(ctx, entryID)
}

func (s *waitlistService) MarkBooked(ctx context.Context, entryID uuid.UUID, token string) error {
	ok, err := s.repo.Waitlist.UpdateStatus(ctx, entryID, entity.WaitlistStatusAccepted, entity.WaitlistStatusBooked)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("waitlist entry %s is not in accepted state", entryID.String())
	}

	if err := s.tokens.ConsumeOfferToken(ctx, token); err != nil {
		s.log.Error("Failed to consume booked offer token", zap.Error(err))
	}

	return nil
}

func (s *waitlistService) send(ctx context.Context, kind notifier.Kind, recipient string, data map[string]any) {
	if err := s.notify.Send(ctx, kind, recipient, data); err != nil {
		s.log.Error("Failed to send notification",
			zap.Error(err),
			zap.String("kind", string(kind)),
			zap.String("recipient", recipient),
		)
	}
}
