package slack

import (
	"fmt"

	goslack "github.com/slack-go/slack"
)

// ValidationWaitingInput carries the data needed for the immediate
// "a human needs to look at this" notification posted when a
// monday-validation node starts waiting.
type ValidationWaitingInput struct {
	ValidationID string
	SlackUserID  string
	SlackEmail   string
	TaskTitle    string
	TaskID       int
	PRURL        string
}

// ValidationReminderInput carries the data needed for the one-shot
// reminder posted when ReminderDelay elapses with no human reply.
type ValidationReminderInput struct {
	ValidationID string
	SlackUserID  string
	SlackEmail   string
	TaskTitle    string
	TaskID       int
	PRURL        string
}

// ValidationTimeoutInput carries the data needed for the notification
// posted once FinalTimeout elapses and the auto-approve policy has run.
type ValidationTimeoutInput struct {
	ValidationID string
	TaskTitle    string
	TaskID       int
	AutoApproved bool
}

func mention(userID string) string {
	if userID == "" {
		return ""
	}
	return fmt.Sprintf("<@%s> ", userID)
}

// BuildValidationWaitingMessage builds the "waiting for your review"
// notification.
func BuildValidationWaitingMessage(in ValidationWaitingInput) []goslack.Block {
	text := fmt.Sprintf("%s:mag: *Review needed for task #%d — %s*", mention(in.SlackUserID), in.TaskID, in.TaskTitle)
	blocks := []goslack.Block{
		goslack.NewSectionBlock(goslack.NewTextBlockObject(goslack.MarkdownType, text, false, false), nil, nil),
	}
	if in.PRURL != "" {
		btn := goslack.NewButtonBlockElement("", "", goslack.NewTextBlockObject(goslack.PlainTextType, "View Pull Request", false, false))
		btn.URL = in.PRURL
		blocks = append(blocks, goslack.NewActionBlock("", btn))
	}
	return blocks
}

// BuildValidationReminderMessage builds the one-shot "timeout
// approaching" reminder.
func BuildValidationReminderMessage(in ValidationReminderInput) []goslack.Block {
	text := fmt.Sprintf("%s:hourglass_flowing_sand: *Reminder: task #%d — %s is still waiting on your review*", mention(in.SlackUserID), in.TaskID, in.TaskTitle)
	blocks := []goslack.Block{
		goslack.NewSectionBlock(goslack.NewTextBlockObject(goslack.MarkdownType, text, false, false), nil, nil),
	}
	if in.PRURL != "" {
		btn := goslack.NewButtonBlockElement("", "", goslack.NewTextBlockObject(goslack.PlainTextType, "View Pull Request", false, false))
		btn.URL = in.PRURL
		blocks = append(blocks, goslack.NewActionBlock("", btn))
	}
	return blocks
}

// BuildValidationTimeoutMessage builds the final notification sent
// once a wait times out, reporting whether the auto-approve policy
// merged the change or left it expired.
func BuildValidationTimeoutMessage(in ValidationTimeoutInput) []goslack.Block {
	var text string
	if in.AutoApproved {
		text = fmt.Sprintf(":white_check_mark: *Task #%d — %s auto-approved after timeout* (tests passed, no errors, files changed)", in.TaskID, in.TaskTitle)
	} else {
		text = fmt.Sprintf(":x: *Task #%d — %s expired waiting for review* — no human reply and the auto-approve policy did not apply", in.TaskID, in.TaskTitle)
	}
	return []goslack.Block{
		goslack.NewSectionBlock(goslack.NewTextBlockObject(goslack.MarkdownType, text, false, false), nil, nil),
	}
}
