package orchestrator

// StatusTransitionInput is the inbound Monday status-column webhook
// event HandleStatusTransition accepts, per spec.md §6's work-item
// envelope.
type StatusTransitionInput struct {
	ExternalID    int
	BoardID       int
	Title         string
	Description   string
	RepositoryURL string
	Priority      string
	TaskType      string
	Creator       string
	OldStatus     string
	NewStatus     string
}

// MentionInput is the inbound Monday comment webhook event
// HandleComment accepts, per spec.md §6's mention envelope (the
// work-item envelope plus update-id and text-body).
type MentionInput struct {
	ExternalID  int
	BoardID     int
	UpdateID    int
	TextBody    string
	SlackUserID string
	SlackEmail  string
}

// Outcome summarizes what HandleStatusTransition/HandleComment did,
// for the caller (the webhook HTTP layer, or a test) to log or assert
// on without reaching into internal state.
type Outcome struct {
	// Action is one of: "ignored", "no-mention", "agent-message",
	// "question-answered", "reactivated", "rejected-duplicate".
	Action string
	RunID  int
	TaskID int
}
