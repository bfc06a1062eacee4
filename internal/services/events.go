package services

import (
	"context"
	"fmt"

	"github.com/labvault/backend/internal/models"
	"github.com/labvault/backend/pkg/logger"
	"gorm.io/gorm"
)

// EventService appends lifecycle events for the change-feed relay.
// Emission is synchronous: the row must exist before the triggering
// request is acknowledged, so qualifying transitions emit exactly once.
type EventService struct {
	DB *gorm.DB
}

func NewEventService(db *gorm.DB) *EventService {
	return &EventService{DB: db}
}

// UserJoined records the arrival of a login-eligible user. Bots and
// deleted accounts produce no event.
func (s *EventService) UserJoined(ctx context.Context, user *models.User) error {
	if !models.IsLoginEligible(user.Role) {
		return nil
	}

	event := models.Event{
		UserID:        user.ID,
		InterestedIDs: []string{},
		Title:         fmt.Sprintf("**%s** joined labvault", user.DisplayName),
		Content:       "",
	}
	if err := s.DB.WithContext(ctx).Create(&event).Error; err != nil {
		return err
	}

	logger.Info("user_joined_event", map[string]interface{}{
		"user_id":  user.ID.String(),
		"event_id": event.ID.String(),
	})

	return nil
}
