package slack

import (
	"context"
	"log/slog"
	"time"
)

// ServiceConfig holds the parameters needed to construct a Service.
type ServiceConfig struct {
	Token        string
	Channel      string
	DashboardURL string
}

// Service handles Slack notification delivery.
// Nil-safe: all methods are no-ops when service is nil.
type Service struct {
	client       *Client
	dashboardURL string
	logger       *slog.Logger
}

// NewService creates a new Slack notification service.
// Returns nil if Token or Channel is empty.
func NewService(cfg ServiceConfig) *Service {
	if cfg.Token == "" || cfg.Channel == "" {
		return nil
	}
	return &Service{
		client:       NewClient(cfg.Token, cfg.Channel),
		dashboardURL: cfg.DashboardURL,
		logger:       slog.Default().With("component", "slack-service"),
	}
}

// NewServiceWithClient creates a Service backed by a pre-built Client.
// Useful for testing with a mock API server.
func NewServiceWithClient(client *Client, dashboardURL string) *Service {
	return &Service{
		client:       client,
		dashboardURL: dashboardURL,
		logger:       slog.Default().With("component", "slack-service"),
	}
}

// resolveUserID returns the Slack user id to @-mention, falling back
// to an email lookup when no user id was supplied directly. Best
// effort: a lookup failure just means the notification goes out
// without a mention.
func (s *Service) resolveUserID(ctx context.Context, userID, email string) string {
	if userID != "" || email == "" {
		return userID
	}
	resolved, err := s.client.LookupUserByEmail(ctx, email)
	if err != nil {
		s.logger.Warn("Failed to resolve Slack user by email", "email", email, "error", err)
		return ""
	}
	return resolved
}

// NotifyValidationWaiting posts the immediate notification when a
// monday-validation node starts waiting on a human. Fail-open.
func (s *Service) NotifyValidationWaiting(ctx context.Context, input ValidationWaitingInput) {
	if s == nil {
		return
	}
	input.SlackUserID = s.resolveUserID(ctx, input.SlackUserID, input.SlackEmail)
	blocks := BuildValidationWaitingMessage(input)
	if err := s.client.PostMessage(ctx, blocks, "", 5*time.Second); err != nil {
		s.logger.Error("Failed to send validation-waiting notification", "validation_id", input.ValidationID, "error", err)
	}
}

// NotifyValidationReminder posts the one-shot reminder fired when
// ReminderDelay elapses with no reply. Fail-open.
func (s *Service) NotifyValidationReminder(ctx context.Context, input ValidationReminderInput) {
	if s == nil {
		return
	}
	input.SlackUserID = s.resolveUserID(ctx, input.SlackUserID, input.SlackEmail)
	blocks := BuildValidationReminderMessage(input)
	if err := s.client.PostMessage(ctx, blocks, "", 5*time.Second); err != nil {
		s.logger.Error("Failed to send validation-reminder notification", "validation_id", input.ValidationID, "error", err)
	}
}

// NotifyValidationTimeout posts the final notification once a wait
// resolves via the auto-approve policy. Fail-open.
func (s *Service) NotifyValidationTimeout(ctx context.Context, input ValidationTimeoutInput) {
	if s == nil {
		return
	}
	blocks := BuildValidationTimeoutMessage(input)
	if err := s.client.PostMessage(ctx, blocks, "", 5*time.Second); err != nil {
		s.logger.Error("Failed to send validation-timeout notification", "validation_id", input.ValidationID, "error", err)
	}
}
