package handlers

import (
	"regexp"

	tgbot "github.com/go-telegram/bot"
)

// RegisteredHandler represents a command handler with its match rule and
// middleware. When Regexp is set it is used instead of Pattern.
type RegisteredHandler struct {
	HandlerType tgbot.HandlerType
	Pattern     string
	Regexp      *regexp.Regexp
	Handler     tgbot.HandlerFunc
	Middleware  []tgbot.Middleware
	MatchType   tgbot.MatchType
}

// RegisterAllCommands returns every bot command keyed by its trigger.
func RegisterAllCommands(deps HandlerDeps) map[string]RegisteredHandler {
	handlers := make(map[string]RegisteredHandler)

	help := NewHelpHandler(deps)
	handlers["/start"] = RegisteredHandler{
		HandlerType: tgbot.HandlerTypeMessageText,
		Pattern:     "start",
		Handler:     help,
		MatchType:   tgbot.MatchTypeCommandStartOnly,
	}
	handlers["/help"] = RegisteredHandler{
		HandlerType: tgbot.HandlerTypeMessageText,
		Pattern:     "help",
		Handler:     help,
		MatchType:   tgbot.MatchTypeCommandStartOnly,
	}
	handlers["/画像"] = RegisteredHandler{
		HandlerType: tgbot.HandlerTypeMessageText,
		Regexp:      PortrayalPattern,
		Handler:     NewPortrayalHandler(deps),
	}

	adminMiddleware := []tgbot.Middleware{AdminOnly(deps)}

	handlers["/sketch_rename"] = RegisteredHandler{
		HandlerType: tgbot.HandlerTypeMessageText,
		Pattern:     "sketch_rename",
		Handler:     NewRenameHandler(deps),
		MatchType:   tgbot.MatchTypeCommandStartOnly,
		Middleware:  adminMiddleware,
	}
	handlers["/sketch_last"] = RegisteredHandler{
		HandlerType: tgbot.HandlerTypeMessageText,
		Pattern:     "sketch_last",
		Handler:     NewLastHandler(deps),
		MatchType:   tgbot.MatchTypeCommandStartOnly,
		Middleware:  adminMiddleware,
	}

	return handlers
}
