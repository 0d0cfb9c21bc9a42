package portrayal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"text/template"
	"time"

	"github.com/edgard/sketchbot/internal/config"
	"github.com/edgard/sketchbot/internal/database"
	"github.com/edgard/sketchbot/internal/gemini"
)

var (
	// ErrNoRecords means the target has no messages in the selected range.
	ErrNoRecords = errors.New("no message records")
	// ErrNoValidContent means every selected message was dropped while cleaning.
	ErrNoValidContent = errors.New("no valid message content")
)

// Settings tune a Command.
type Settings struct {
	ContextLength         int
	ContextLengthAfter    int
	MaxMessageCount       int
	RetrievalMessageCount int
	MaxMessageLength      int
	Lookback              time.Duration
	AllStreamsToken       string
	Location              *time.Location
	PromptTemplate        string

	// Model is used when it lists models, otherwise ModelGroup is looked up.
	Model      gemini.ModelConfig
	ModelGroup string

	Platform    string
	BotUserID   string
	BotNickname string
}

// NewSettings derives Settings from the loaded configuration. The bot
// identity is taken from cfg.Telegram.BotInfo when present.
func NewSettings(cfg *config.Config) (Settings, error) {
	loc, err := cfg.Portrayal.Location()
	if err != nil {
		return Settings{}, err
	}

	s := Settings{
		ContextLength:         cfg.Portrayal.ContextLength,
		ContextLengthAfter:    cfg.Portrayal.ContextLengthAfter,
		MaxMessageCount:       cfg.Portrayal.MaxMessageCount,
		RetrievalMessageCount: cfg.Portrayal.RetrievalMessageCount,
		MaxMessageLength:      cfg.Portrayal.MaxMessageLength,
		Lookback:              cfg.Portrayal.Lookback,
		AllStreamsToken:       cfg.Portrayal.AllStreamsToken,
		Location:              loc,
		PromptTemplate:        cfg.Portrayal.PromptTemplate,
		ModelGroup:            cfg.LLM.Group,
		Platform:              database.PlatformTelegram,
	}
	if mc, ok := gemini.ExplicitModelConfig(cfg.LLM); ok {
		s.Model = mc
	}
	if bi := cfg.Telegram.BotInfo; bi != nil {
		s.BotUserID = fmt.Sprintf("%d", bi.ID)
		s.BotNickname = strings.TrimSpace(bi.FirstName + " " + bi.LastName)
	}
	return s, nil
}

// Deps are the collaborators of a Command.
type Deps struct {
	Messages   MessageStore
	Persons    PersonDirectory
	Streams    StreamDirectory
	Portrayals PortrayalStore
	LLM        gemini.Client
	Policy     Policy
	Texts      config.MessagesConfig
	Logger     *slog.Logger
	Now        func() time.Time
}

// Args are the parsed command arguments.
type Args struct {
	Name   string
	ChatID string
}

// Invocation is one use of the command.
type Invocation struct {
	UserID   string
	Nickname string
	StreamID string
	Args     Args
	// Segments are the message text pieces; mentions are separate
	// segments of the form "@<display:id>".
	Segments []string
	Replier  Replier
}

// Result is the outcome reported to the host. Text repeats the notice sent
// to the chat, if any.
type Result struct {
	Handled bool
	Text    string
}

// Prepared is the prompt built for a target along with the counts behind it.
type Prepared struct {
	Prompt       string
	Lines        []string
	MessageCount int
	TargetCount  int
	OtherCount   int
}

// Command produces portrayals.
type Command struct {
	settings Settings
	deps     Deps
	log      *slog.Logger
}

// NewCommand creates a Command.
func NewCommand(settings Settings, deps Deps) *Command {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &Command{
		settings: settings,
		deps:     deps,
		log:      deps.Logger.With("component", "portrayal"),
	}
}

// Settings returns the command settings.
func (c *Command) Settings() Settings {
	return c.settings
}

// Execute runs the command. Failures become notices in the chat; the
// command always reports itself handled.
func (c *Command) Execute(ctx context.Context, inv *Invocation) Result {
	log := c.log.With("user_id", inv.UserID, "stream_id", inv.StreamID)

	if !c.deps.Policy.Allowed(inv.UserID) {
		log.InfoContext(ctx, "User not allowed to request portrayals")
		return c.notify(ctx, inv, c.deps.Texts.NotAuthorized)
	}

	mc, err := c.ModelConfig()
	if err != nil {
		log.ErrorContext(ctx, "No model configuration", "group", c.settings.ModelGroup, "error", err)
		return c.notify(ctx, inv, fmt.Sprintf(c.deps.Texts.NoModelConfigFmt, c.settings.ModelGroup))
	}

	tmpl, err := ParsePrompt(c.settings.PromptTemplate)
	if errors.Is(err, ErrEmptyTemplate) {
		log.ErrorContext(ctx, "Prompt template is empty")
		return c.notify(ctx, inv, c.deps.Texts.EmptyPrompt)
	}
	if err != nil {
		log.ErrorContext(ctx, "Invalid prompt template", "error", err)
		return Result{Handled: true}
	}

	target, err := ResolveTarget(ctx, c.deps.Persons, inv, c.settings.BotUserID)
	if err != nil {
		log.ErrorContext(ctx, "Failed to resolve target", "error", err)
		return c.notify(ctx, inv, c.deps.Texts.GeneralError)
	}
	target.StreamID = c.resolveStreamArg(ctx, log, inv)
	log = log.With("target_user_id", target.UserID, "target_stream_id", target.StreamID)
	log.DebugContext(ctx, "Resolved portrayal target", "person_name", target.PersonName, "nickname", target.Nickname)

	if target.UserID == "" {
		return c.notify(ctx, inv, c.deps.Texts.NoTarget)
	}

	if !c.deps.Policy.IsAdmin(inv.UserID) && target.StreamID != inv.StreamID {
		log.InfoContext(ctx, "Non-admin requested another stream")
		return c.notify(ctx, inv, c.deps.Texts.StreamDenied)
	}

	prepared, err := c.prepare(ctx, target, tmpl)
	switch {
	case errors.Is(err, ErrNoRecords):
		return c.notify(ctx, inv, fmt.Sprintf(c.deps.Texts.NoRecordsFmt, target.PersonName))
	case errors.Is(err, ErrNoValidContent):
		return c.notify(ctx, inv, c.deps.Texts.NoValidContent)
	case err != nil:
		log.ErrorContext(ctx, "Failed to prepare portrayal prompt", "error", err)
		return Result{Handled: true}
	}

	c.notify(ctx, inv, fmt.Sprintf(c.deps.Texts.ProgressFmt, len(prepared.Lines), prepared.TargetCount, prepared.OtherCount))

	resp, err := c.deps.LLM.Generate(ctx, prepared.Prompt, mc)
	if err != nil {
		log.ErrorContext(ctx, "Model call failed", "error", err)
		return Result{Handled: true}
	}
	log.InfoContext(ctx, "Portrayal generated", "model", resp.Model, "duration", resp.Duration, "lines", len(prepared.Lines))

	node := ForwardNode{UserID: c.settings.BotUserID, Nickname: c.settings.BotNickname, Text: resp.Text}
	if err := inv.Replier.SendForward(ctx, []ForwardNode{node}); err != nil {
		log.ErrorContext(ctx, "Failed to send portrayal", "error", err)
		return Result{Handled: true}
	}

	c.save(ctx, log, target, prepared, resp)
	return Result{Handled: true}
}

// ModelConfig returns the explicit model list, or the configured group.
func (c *Command) ModelConfig() (gemini.ModelConfig, error) {
	if len(c.settings.Model.Models) > 0 {
		return c.settings.Model, nil
	}
	if c.deps.LLM != nil {
		if mc, ok := c.deps.LLM.ModelGroup(c.settings.ModelGroup); ok {
			return mc, nil
		}
	}
	return gemini.ModelConfig{}, fmt.Errorf("%w: group %q", ErrNoModelConfig, c.settings.ModelGroup)
}

// Prepare fetches, filters and formats the messages of target and renders
// the prompt. It returns ErrNoRecords or ErrNoValidContent when there is
// nothing to profile.
func (c *Command) Prepare(ctx context.Context, target Target) (Prepared, error) {
	tmpl, err := ParsePrompt(c.settings.PromptTemplate)
	if err != nil {
		return Prepared{}, err
	}
	return c.prepare(ctx, target, tmpl)
}

func (c *Command) prepare(ctx context.Context, target Target, tmpl *template.Template) (Prepared, error) {
	now := c.deps.Now()
	msgs, err := FetchMessages(ctx, c.deps.Messages, FetchQuery{
		Start:    now.Add(-c.settings.Lookback),
		End:      now,
		StreamID: target.StreamID,
		Limit:    c.settings.RetrievalMessageCount,
	})
	if err != nil {
		return Prepared{}, err
	}
	retrieved := len(msgs)

	msgs = FilterWithContext(msgs, target.UserID, c.settings.ContextLength, c.settings.ContextLengthAfter, 2*c.settings.MaxMessageCount)
	c.log.DebugContext(ctx, "Selected messages", "retrieved", retrieved, "selected", len(msgs), "target_user_id", target.UserID)
	if len(msgs) == 0 {
		return Prepared{}, ErrNoRecords
	}

	names := NameCache{target.UserID: target.PersonName}
	if c.settings.BotUserID != "" {
		names[c.settings.BotUserID] = c.settings.BotNickname
	}
	f := &Formatter{Persons: c.deps.Persons, Location: c.settings.Location, Log: c.log}
	lines, targetCount, otherCount, err := f.Prepare(ctx, msgs, c.settings.MaxMessageCount, target.UserID, names, c.settings.MaxMessageLength)
	if err != nil {
		return Prepared{}, err
	}
	if len(lines) == 0 {
		return Prepared{}, ErrNoValidContent
	}

	prompt, err := RenderPrompt(tmpl, PromptData{
		PersonName:         target.PersonName,
		Nickname:           target.Nickname,
		MessageCount:       len(msgs),
		Messages:           strings.Join(lines, "\n"),
		ContextLength:      c.settings.ContextLength,
		ContextLengthAfter: c.settings.ContextLengthAfter,
	})
	if err != nil {
		return Prepared{}, err
	}

	return Prepared{
		Prompt:       prompt,
		Lines:        lines,
		MessageCount: len(msgs),
		TargetCount:  targetCount,
		OtherCount:   otherCount,
	}, nil
}

// resolveStreamArg applies the chat id argument: empty means the current
// stream, the all-streams token means every stream ("") and anything that
// does not resolve falls back to the current stream.
func (c *Command) resolveStreamArg(ctx context.Context, log *slog.Logger, inv *Invocation) string {
	arg := strings.TrimSpace(inv.Args.ChatID)
	switch {
	case arg == "":
		return inv.StreamID
	case arg == c.settings.AllStreamsToken:
		return ""
	}

	id, err := ResolveStream(ctx, c.deps.Streams, arg)
	if err != nil {
		log.WarnContext(ctx, "Stream lookup failed, using current stream", "chat_id", arg, "error", err)
		return inv.StreamID
	}
	if id == "" {
		log.WarnContext(ctx, "Unknown chat id, using current stream", "chat_id", arg)
		return inv.StreamID
	}
	return id
}

func (c *Command) notify(ctx context.Context, inv *Invocation, text string) Result {
	if inv.Replier != nil && text != "" {
		if err := inv.Replier.SendText(ctx, text); err != nil {
			c.log.ErrorContext(ctx, "Failed to send notice", "error", err)
		}
	}
	return Result{Handled: true, Text: text}
}

func (c *Command) save(ctx context.Context, log *slog.Logger, target Target, p Prepared, resp gemini.Response) {
	if c.deps.Portrayals == nil {
		return
	}
	err := c.deps.Portrayals.SavePortrayal(ctx, &database.Portrayal{
		PersonID:     database.PersonID(c.settings.Platform, target.UserID),
		StreamID:     target.StreamID,
		Model:        resp.Model,
		MessageCount: p.MessageCount,
		TargetCount:  p.TargetCount,
		OtherCount:   p.OtherCount,
		Content:      resp.Text,
	})
	if err != nil {
		log.ErrorContext(ctx, "Failed to save portrayal", "error", err)
	}
}
