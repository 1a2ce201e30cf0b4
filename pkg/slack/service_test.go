package slack

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestService_NilReceiver(t *testing.T) {
	var s *Service

	t.Run("NotifyValidationWaiting is no-op", func(_ *testing.T) {
		s.NotifyValidationWaiting(context.Background(), ValidationWaitingInput{
			ValidationID: "v-1",
			TaskTitle:    "Add main.txt",
		})
	})

	t.Run("NotifyValidationReminder is no-op", func(_ *testing.T) {
		s.NotifyValidationReminder(context.Background(), ValidationReminderInput{
			ValidationID: "v-1",
			TaskTitle:    "Add main.txt",
		})
	})

	t.Run("NotifyValidationTimeout is no-op", func(_ *testing.T) {
		s.NotifyValidationTimeout(context.Background(), ValidationTimeoutInput{
			ValidationID: "v-1",
			TaskTitle:    "Add main.txt",
		})
	})
}

func TestNewService(t *testing.T) {
	t.Run("returns nil when token empty", func(t *testing.T) {
		svc := NewService(ServiceConfig{Token: "", Channel: "C123"})
		assert.Nil(t, svc)
	})

	t.Run("returns nil when channel empty", func(t *testing.T) {
		svc := NewService(ServiceConfig{Token: "xoxb-test", Channel: ""})
		assert.Nil(t, svc)
	})

	t.Run("returns service when configured", func(t *testing.T) {
		svc := NewService(ServiceConfig{
			Token:        "xoxb-test",
			Channel:      "C123",
			DashboardURL: "https://example.com",
		})
		assert.NotNil(t, svc)
	})
}
