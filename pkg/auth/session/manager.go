// Package session keeps server-side admin sessions in Redis so issued JWTs
// can be revoked before they expire.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	redislib "github.com/redis/go-redis/v9"

	"github.com/angelmondragon/relacksation-backend/pkg/config"
	redisclient "github.com/angelmondragon/relacksation-backend/pkg/redis"
)

// ErrNoAccessID is returned for blank session identifiers.
var ErrNoAccessID = errors.New("access id is required")

type store interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
	AccessSessionKey(accessID string) string
}

// AccessSessionChecker is the read side used by the auth middleware.
type AccessSessionChecker interface {
	HasSession(ctx context.Context, accessID string) (bool, error)
}

// Record is the value stored per session.
type Record struct {
	AdminID   string    `json:"adminId"`
	CreatedAt time.Time `json:"createdAt"`
}

type Manager struct {
	store store
	ttl   time.Duration
	now   func() time.Time
}

// NewManager requires a session TTL at least as long as the access token TTL
// so a valid token never outlives its session.
func NewManager(client *redisclient.Client, cfg config.JWTConfig) (*Manager, error) {
	if client == nil {
		return nil, errors.New("redis client is required")
	}
	return newManager(client, cfg)
}

func newManager(s store, cfg config.JWTConfig) (*Manager, error) {
	ttl := cfg.SessionTTL()
	if ttl <= 0 {
		return nil, errors.New("session ttl must be positive")
	}
	if access := time.Duration(cfg.ExpirationMinutes) * time.Minute; ttl < access {
		return nil, fmt.Errorf("session ttl %s is shorter than access token ttl %s", ttl, access)
	}
	return &Manager{store: s, ttl: ttl, now: time.Now}, nil
}

// NewAccessID returns the identifier used as both JWT jti and Redis key suffix.
func NewAccessID() string {
	return uuid.NewString()
}

// Create opens a session for adminID and returns its access id.
func (m *Manager) Create(ctx context.Context, adminID string) (string, error) {
	adminID = strings.TrimSpace(adminID)
	if adminID == "" {
		return "", errors.New("admin id is required")
	}
	raw, err := json.Marshal(Record{AdminID: adminID, CreatedAt: m.now().UTC()})
	if err != nil {
		return "", err
	}
	accessID := NewAccessID()
	if err := m.store.Set(ctx, m.store.AccessSessionKey(accessID), raw, m.ttl); err != nil {
		return "", fmt.Errorf("store session: %w", err)
	}
	return accessID, nil
}

// Lookup returns the live session for accessID. ok is false once the session
// was revoked or its TTL lapsed.
func (m *Manager) Lookup(ctx context.Context, accessID string) (rec Record, ok bool, err error) {
	if strings.TrimSpace(accessID) == "" {
		return Record{}, false, ErrNoAccessID
	}
	raw, err := m.store.Get(ctx, m.store.AccessSessionKey(accessID))
	switch {
	case errors.Is(err, redislib.Nil):
		return Record{}, false, nil
	case err != nil:
		return Record{}, false, fmt.Errorf("load session: %w", err)
	}
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return Record{}, false, fmt.Errorf("decode session: %w", err)
	}
	return rec, true, nil
}

func (m *Manager) HasSession(ctx context.Context, accessID string) (bool, error) {
	_, ok, err := m.Lookup(ctx, accessID)
	return ok, err
}

// Revoke ends the session. Revoking an unknown id is not an error.
func (m *Manager) Revoke(ctx context.Context, accessID string) error {
	if strings.TrimSpace(accessID) == "" {
		return ErrNoAccessID
	}
	return m.store.Del(ctx, m.store.AccessSessionKey(accessID))
}
