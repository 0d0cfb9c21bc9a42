package portrayal_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgard/sketchbot/internal/config"
	"github.com/edgard/sketchbot/internal/database"
	"github.com/edgard/sketchbot/internal/gemini"
	"github.com/edgard/sketchbot/internal/portrayal"
)

const (
	currentStream = "stream-current"
	otherStream   = "stream-other"
	invokerID     = "1"
	adminID       = "100"
	botID         = "99"
)

var now = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

type commandFixture struct {
	messages   *fakeMessages
	persons    *fakePersons
	streams    *fakeStreams
	llm        *fakeLLM
	portrayals *fakePortrayals
	replier    *fakeReplier
	settings   portrayal.Settings
	policy     portrayal.Policy
}

func newFixture() *commandFixture {
	return &commandFixture{
		messages: &fakeMessages{msgs: []*database.Message{
			{UserID: "2", UserNickname: "Bob", ProcessedPlainText: "有人吗", Time: database.UnixSeconds(now.Add(-3 * time.Hour))},
			{UserID: invokerID, UserNickname: "Inv", ProcessedPlainText: "我在", Time: database.UnixSeconds(now.Add(-2 * time.Hour))},
			{UserID: botID, UserNickname: "bot", ProcessedPlainText: "欢迎", Time: database.UnixSeconds(now.Add(-1 * time.Hour))},
		}},
		persons: newFakePersons(
			&database.Person{UserID: invokerID, Nickname: "Inv", PersonName: "调用者"},
			&database.Person{UserID: "2", Nickname: "Bob", PersonName: "鲍勃"},
		),
		streams: &fakeStreams{
			byGroup: map[string]string{"-200": otherStream},
			byUser:  map[string]string{},
		},
		llm: &fakeLLM{
			text:   "画像结果",
			groups: map[string]gemini.ModelConfig{"utils": {Models: []string{"gemini-2.5-flash"}}},
		},
		portrayals: &fakePortrayals{},
		replier:    &fakeReplier{},
		settings: portrayal.Settings{
			ContextLength:         1,
			ContextLengthAfter:    1,
			MaxMessageCount:       10,
			RetrievalMessageCount: 100,
			Lookback:              30 * 24 * time.Hour,
			AllStreamsToken:       "全部",
			Location:              time.UTC,
			PromptTemplate:        "{person_name}|{user_nickname}|{message_count}\n{messages}",
			ModelGroup:            "utils",
			Platform:              database.PlatformTelegram,
			BotUserID:             botID,
			BotNickname:           "SketchBot",
		},
		policy: portrayal.Policy{Mode: config.PermissionBlacklist, AdminIDs: []string{adminID}},
	}
}

func (f *commandFixture) command() *portrayal.Command {
	return portrayal.NewCommand(f.settings, portrayal.Deps{
		Messages:   f.messages,
		Persons:    f.persons,
		Streams:    f.streams,
		Portrayals: f.portrayals,
		LLM:        f.llm,
		Policy:     f.policy,
		Texts:      config.DefaultMessages,
		Logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		Now:        func() time.Time { return now },
	})
}

func (f *commandFixture) invoke(userID string, args portrayal.Args, segments ...string) portrayal.Result {
	return f.command().Execute(context.Background(), &portrayal.Invocation{
		UserID:   userID,
		Nickname: "Inv",
		StreamID: currentStream,
		Args:     args,
		Segments: segments,
		Replier:  f.replier,
	})
}

func TestExecuteSuccess(t *testing.T) {
	t.Parallel()

	f := newFixture()
	res := f.invoke(invokerID, portrayal.Args{}, "/画像")

	assert.True(t, res.Handled)
	assert.Empty(t, res.Text)

	require.Len(t, f.messages.filters, 1)
	filter := f.messages.filters[0]
	assert.Equal(t, currentStream, filter.StreamID)
	assert.Equal(t, 100, filter.Limit)
	assert.True(t, filter.ExcludeCommands)
	assert.Empty(t, filter.UserIDs)
	assert.InDelta(t, database.UnixSeconds(now), filter.Before, 1e-3)
	assert.InDelta(t, database.UnixSeconds(now.Add(-30*24*time.Hour)), filter.After, 1e-3)

	require.Equal(t, []string{fmt.Sprintf(config.DefaultMessages.ProgressFmt, 3, 1, 2)}, f.replier.texts)

	require.Len(t, f.llm.prompts, 1)
	assert.Equal(t, "调用者|Inv|3\n"+
		"[2024-03-01 09:00:00] 鲍勃: 有人吗\n"+
		"[2024-03-01 10:00:00] 调用者: 我在\n"+
		"[2024-03-01 11:00:00] SketchBot: 欢迎", f.llm.prompts[0])
	assert.Equal(t, []string{"gemini-2.5-flash"}, f.llm.configs[0].Models)

	require.Len(t, f.replier.forwards, 1)
	assert.Equal(t, []portrayal.ForwardNode{{UserID: botID, Nickname: "SketchBot", Text: "画像结果"}}, f.replier.forwards[0])

	require.Len(t, f.portrayals.saved, 1)
	saved := f.portrayals.saved[0]
	assert.Equal(t, database.PersonID(database.PlatformTelegram, invokerID), saved.PersonID)
	assert.Equal(t, currentStream, saved.StreamID)
	assert.Equal(t, "画像结果", saved.Content)
	assert.Equal(t, 3, saved.MessageCount)
	assert.Equal(t, 1, saved.TargetCount)
	assert.Equal(t, 2, saved.OtherCount)
}

func TestExecuteExplicitModelsWinOverGroup(t *testing.T) {
	t.Parallel()

	f := newFixture()
	f.settings.Model = gemini.ModelConfig{Models: []string{"explicit-model"}}
	f.invoke(invokerID, portrayal.Args{})

	require.Len(t, f.llm.configs, 1)
	assert.Equal(t, []string{"explicit-model"}, f.llm.configs[0].Models)
}

func TestExecuteShortCircuits(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		setup    func(f *commandFixture)
		userID   string
		args     portrayal.Args
		segments []string
		notice   string
		fetches  int
	}{
		{
			name:   "not authorized",
			setup:  func(f *commandFixture) { f.policy.UserIDs = []string{invokerID} },
			userID: invokerID,
			notice: config.DefaultMessages.NotAuthorized,
		},
		{
			name:   "no model config",
			setup:  func(f *commandFixture) { f.llm.groups = nil },
			userID: invokerID,
			notice: fmt.Sprintf(config.DefaultMessages.NoModelConfigFmt, "utils"),
		},
		{
			name:   "empty prompt template",
			setup:  func(f *commandFixture) { f.settings.PromptTemplate = " " },
			userID: invokerID,
			notice: config.DefaultMessages.EmptyPrompt,
		},
		{
			name:   "unknown target name",
			userID: invokerID,
			args:   portrayal.Args{Name: "路人甲"},
			notice: config.DefaultMessages.NoTarget,
		},
		{
			name:   "non-admin asks for another stream",
			userID: invokerID,
			args:   portrayal.Args{Name: "鲍勃", ChatID: "-200"},
			notice: config.DefaultMessages.StreamDenied,
		},
		{
			name:   "non-admin asks for all streams",
			userID: invokerID,
			args:   portrayal.Args{Name: "鲍勃", ChatID: "全部"},
			notice: config.DefaultMessages.StreamDenied,
		},
		{
			name:    "no records",
			setup:   func(f *commandFixture) { f.messages.msgs = nil },
			userID:  invokerID,
			notice:  fmt.Sprintf(config.DefaultMessages.NoRecordsFmt, "调用者"),
			fetches: 1,
		},
		{
			name: "target never spoke",
			setup: func(f *commandFixture) {
				f.messages.msgs = f.messages.msgs[:1]
			},
			userID:  invokerID,
			notice:  fmt.Sprintf(config.DefaultMessages.NoRecordsFmt, "调用者"),
			fetches: 1,
		},
		{
			name: "no valid content",
			setup: func(f *commandFixture) {
				f.messages.msgs = []*database.Message{
					{UserID: invokerID, ProcessedPlainText: "[文件:a.txt]", Time: database.UnixSeconds(now.Add(-time.Hour))},
					{UserID: invokerID, ProcessedPlainText: "[表情包：😀]", Time: database.UnixSeconds(now.Add(-time.Minute))},
				}
			},
			userID:  invokerID,
			notice:  config.DefaultMessages.NoValidContent,
			fetches: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			f := newFixture()
			if tt.setup != nil {
				tt.setup(f)
			}
			res := f.invoke(tt.userID, tt.args, tt.segments...)

			assert.True(t, res.Handled)
			assert.Equal(t, tt.notice, res.Text)
			assert.Equal(t, []string{tt.notice}, f.replier.texts)
			assert.Len(t, f.messages.filters, tt.fetches)
			assert.Empty(t, f.llm.prompts)
			assert.Empty(t, f.replier.forwards)
			assert.Empty(t, f.portrayals.saved)
		})
	}
}

func TestExecuteAdminStreams(t *testing.T) {
	t.Parallel()

	tests := []struct {
		chatID string
		want   string
	}{
		{chatID: "-200", want: otherStream},
		{chatID: "全部", want: ""},
		{chatID: "-404", want: currentStream},
	}

	for _, tt := range tests {
		t.Run(tt.chatID, func(t *testing.T) {
			t.Parallel()

			f := newFixture()
			res := f.invoke(adminID, portrayal.Args{Name: "鲍勃", ChatID: tt.chatID})
			assert.True(t, res.Handled)
			require.Len(t, f.messages.filters, 1)
			assert.Equal(t, tt.want, f.messages.filters[0].StreamID)
			assert.Len(t, f.llm.prompts, 1)
		})
	}
}

func TestExecuteUnknownChatFallsBackForNonAdmin(t *testing.T) {
	t.Parallel()

	f := newFixture()
	f.invoke(invokerID, portrayal.Args{Name: "鲍勃", ChatID: "-404"})

	require.Len(t, f.messages.filters, 1)
	assert.Equal(t, currentStream, f.messages.filters[0].StreamID)
	assert.Len(t, f.replier.forwards, 1)
}

func TestExecuteMentionTarget(t *testing.T) {
	t.Parallel()

	f := newFixture()
	f.invoke(invokerID, portrayal.Args{Name: "@<2>"}, "/画像 ", "@<Bob:2>")

	require.Len(t, f.llm.prompts, 1)
	assert.Contains(t, f.llm.prompts[0], "鲍勃|Bob|")
}

func TestExecuteLLMFailure(t *testing.T) {
	t.Parallel()

	f := newFixture()
	f.llm.err = errors.New("quota exceeded")
	res := f.invoke(invokerID, portrayal.Args{})

	assert.Equal(t, portrayal.Result{Handled: true}, res)
	assert.Len(t, f.replier.texts, 1, "only the progress notice")
	assert.Empty(t, f.replier.forwards)
	assert.Empty(t, f.portrayals.saved)
}

func TestExecuteSaveFailureStillDispatches(t *testing.T) {
	t.Parallel()

	f := newFixture()
	f.portrayals.err = errStore
	res := f.invoke(invokerID, portrayal.Args{})

	assert.True(t, res.Handled)
	assert.Len(t, f.replier.forwards, 1)
}

func TestPrepareForPreview(t *testing.T) {
	t.Parallel()

	f := newFixture()
	p, err := f.command().Prepare(context.Background(), portrayal.Target{
		UserID: "2", PersonName: "鲍勃", Nickname: "Bob", StreamID: currentStream,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, p.MessageCount)
	assert.Equal(t, 1, p.TargetCount)
	assert.Equal(t, 1, p.OtherCount)
	assert.Len(t, p.Lines, 2)
	assert.Empty(t, f.llm.prompts)
}
