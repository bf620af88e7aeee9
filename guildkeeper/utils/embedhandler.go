package utils

import (
	"errors"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/handler"

	"github.com/guildkeeper/guildkeeper/guildkeeper/config"
	"github.com/guildkeeper/guildkeeper/guildkeeper/xp"
)

// ResponseHandler provides standardized command replies
type ResponseHandler struct{}

var EH = &ResponseHandler{}

// ErrorType represents different categories of errors for consistent handling
type ErrorType int

const (
	// UserError - invalid options, settings or multipliers
	UserError ErrorType = iota
	// SystemError - storage failures and anything unclassified
	SystemError
	// NotFoundError - the member has no stored record
	NotFoundError
	// PermissionError - missing Manage Server
	PermissionError
)

// RetryMessage is shown for storage failures. Details stay in the logs.
const RetryMessage = "Action failed, please retry."

func getErrorPrefix(errorType ErrorType) string {
	switch errorType {
	case UserError:
		return "⚠️"
	case NotFoundError:
		return "🔍"
	case PermissionError:
		return "🚫"
	default:
		return "🔧"
	}
}

func getErrorColor(errorType ErrorType) int {
	switch errorType {
	case UserError:
		return config.WarningColor
	case NotFoundError:
		return config.InfoColor
	default:
		return config.ErrorColor
	}
}

// ClassifyError maps engine errors onto reply categories.
func ClassifyError(err error) ErrorType {
	switch {
	case errors.Is(err, xp.ErrInvalidSettings),
		errors.Is(err, xp.ErrInvalidMultiplier),
		errors.Is(err, xp.ErrInvalidReward),
		errors.Is(err, xp.ErrInvalidGrant),
		errors.Is(err, ErrInvalidDuration):
		return UserError
	case errors.Is(err, xp.ErrMemberNotFound):
		return NotFoundError
	}
	return SystemError
}

// ErrorMessage is the user-facing text for err. System errors never leak
// their cause.
func ErrorMessage(err error) string {
	switch ClassifyError(err) {
	case UserError:
		return err.Error()
	case NotFoundError:
		return "That member has no XP record yet."
	}
	return RetryMessage
}

func (h *ResponseHandler) CreateClassifiedError(event *handler.CommandEvent, errorType ErrorType, message string) error {
	return event.CreateMessage(discord.MessageCreate{
		Embeds: []discord.Embed{{
			Description: getErrorPrefix(errorType) + " " + message,
			Color:       getErrorColor(errorType),
		}},
		Flags: discord.MessageFlagEphemeral,
	})
}

// CreateErrorFor replies with the classified message for err.
func (h *ResponseHandler) CreateErrorFor(event *handler.CommandEvent, err error) error {
	return h.CreateClassifiedError(event, ClassifyError(err), ErrorMessage(err))
}

func (h *ResponseHandler) CreateUserError(event *handler.CommandEvent, message string) error {
	return h.CreateClassifiedError(event, UserError, message)
}

func (h *ResponseHandler) CreatePermissionError(event *handler.CommandEvent, action string) error {
	return h.CreateClassifiedError(event, PermissionError, "You need Manage Server to "+action)
}

func (h *ResponseHandler) CreateSuccessEmbed(event *handler.CommandEvent, message string) error {
	return event.CreateMessage(discord.MessageCreate{
		Embeds: []discord.Embed{{
			Description: "✅ " + message,
			Color:       config.SuccessColor,
		}},
	})
}
