package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/mborgeson/portfolio-reports-api/internal/models"
	appErrors "github.com/mborgeson/portfolio-reports-api/pkg/errors"
)

const wizardKeyPrefix = "wizard:session:"

// WizardSessionRepository stores wizard sessions in Redis with a TTL so
// abandoned wizards expire on their own. Closing a wizard deletes the key
// outright; there is no draft persistence across opens.
type WizardSessionRepository struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewWizardSessionRepository constructs a session repository.
func NewWizardSessionRepository(client *redis.Client, ttl time.Duration, logger *zap.Logger) *WizardSessionRepository {
	if ttl <= 0 {
		ttl = 2 * time.Hour
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WizardSessionRepository{client: client, ttl: ttl, logger: logger}
}

// Save persists the session, refreshing its TTL.
func (r *WizardSessionRepository) Save(ctx context.Context, session *models.WizardSession) error {
	if session == nil || session.ID == "" {
		return fmt.Errorf("session id required")
	}
	session.UpdatedAt = time.Now().UTC()
	payload, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("marshal wizard session: %w", err)
	}
	if err := r.client.Set(ctx, wizardKeyPrefix+session.ID, payload, r.ttl).Err(); err != nil {
		return fmt.Errorf("save wizard session %s: %w", session.ID, err)
	}
	return nil
}

// Get loads a session; a missing key maps to ErrSessionExpired since the
// caller cannot distinguish "never opened" from "expired".
func (r *WizardSessionRepository) Get(ctx context.Context, id string) (*models.WizardSession, error) {
	raw, err := r.client.Get(ctx, wizardKeyPrefix+id).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, appErrors.ErrSessionExpired
		}
		return nil, fmt.Errorf("get wizard session %s: %w", id, err)
	}
	var session models.WizardSession
	if err := json.Unmarshal(raw, &session); err != nil {
		return nil, fmt.Errorf("unmarshal wizard session %s: %w", id, err)
	}
	return &session, nil
}

// Delete removes a session. Deleting an absent session is not an error.
func (r *WizardSessionRepository) Delete(ctx context.Context, id string) error {
	if err := r.client.Del(ctx, wizardKeyPrefix+id).Err(); err != nil {
		return fmt.Errorf("delete wizard session %s: %w", id, err)
	}
	return nil
}
