// Package cache holds the redis-backed store for single-use waitlist offer
// tokens. The token TTL mirrors the offer hold window, so a token dies with
// the offer it belongs to.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

type TokenStore struct {
	client *redis.Client
}

func NewTokenStore(addr, password string, db int) (*TokenStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return &TokenStore{client: client}, nil
}

func offerKey(token string) string {
	return "waitlist:offer:" + token
}

// StoreOfferToken maps a token to a waitlist entry for the hold duration.
func (s *TokenStore) StoreOfferToken(ctx context.Context, token string, entryID uuid.UUID, ttl time.Duration) error {
	if err := s.client.Set(ctx, offerKey(token), entryID.String(), ttl).Err(); err != nil {
		return fmt.Errorf("store offer token: %w", err)
	}
	return nil
}

// LookupOfferToken resolves a token without consuming it; uuid.Nil and no
// error means the token is unknown or already expired.
func (s *TokenStore) LookupOfferToken(ctx context.Context, token string) (uuid.UUID, error) {
	val, err := s.client.Get(ctx, offerKey(token)).Result()
	if err == redis.Nil {
		return uuid.Nil, nil
	}
	if err != nil {
		return uuid.Nil, fmt.Errorf("lookup offer token: %w", err)
	}

	entryID, err := uuid.Parse(val)
	if err != nil {
		return uuid.Nil, fmt.Errorf("parse offer token value: %w", err)
	}

	return entryID, nil
}

// ConsumeOfferToken deletes the token after a successful accept or decline,
// making it single-use.
func (s *TokenStore) ConsumeOfferToken(ctx context.Context, token string) error {
	if err := s.client.Del(ctx, offerKey(token)).Err(); err != nil {
		return fmt.Errorf("consume offer token: %w", err)
	}
	return nil
}

func (s *TokenStore) Close() error {
	return s.client.Close()
}
