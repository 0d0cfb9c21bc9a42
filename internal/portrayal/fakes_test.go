package portrayal_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/edgard/sketchbot/internal/database"
	"github.com/edgard/sketchbot/internal/gemini"
	"github.com/edgard/sketchbot/internal/portrayal"
)

type fakeMessages struct {
	msgs    []*database.Message
	err     error
	filters []database.MessageFilter
}

func (f *fakeMessages) FindMessages(_ context.Context, filter database.MessageFilter) ([]*database.Message, error) {
	f.filters = append(f.filters, filter)
	return f.msgs, f.err
}

type fakePersons struct {
	byID   map[string]*database.Person
	err    error
	lookup atomic.Int64
}

func newFakePersons(people ...*database.Person) *fakePersons {
	f := &fakePersons{byID: make(map[string]*database.Person)}
	for _, p := range people {
		f.byID[p.UserID] = p
	}
	return f
}

func (f *fakePersons) PersonByUserID(_ context.Context, userID string) (*database.Person, error) {
	f.lookup.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	if p, ok := f.byID[userID]; ok {
		return p, nil
	}
	return nil, database.ErrNotFound
}

func (f *fakePersons) PersonByName(_ context.Context, name string) (*database.Person, error) {
	if f.err != nil {
		return nil, f.err
	}
	for _, p := range f.byID {
		if p.PersonName == name {
			return p, nil
		}
	}
	return nil, database.ErrNotFound
}

type fakeStreams struct {
	byGroup map[string]string
	byUser  map[string]string
}

func (f *fakeStreams) StreamByGroupID(_ context.Context, groupID string) (*database.Stream, error) {
	if id, ok := f.byGroup[groupID]; ok {
		return &database.Stream{StreamID: id, GroupID: groupID}, nil
	}
	return nil, database.ErrNotFound
}

func (f *fakeStreams) StreamByUserID(_ context.Context, userID string) (*database.Stream, error) {
	if id, ok := f.byUser[userID]; ok {
		return &database.Stream{StreamID: id, UserID: userID}, nil
	}
	return nil, database.ErrNotFound
}

type fakeLLM struct {
	text    string
	err     error
	groups  map[string]gemini.ModelConfig
	prompts []string
	configs []gemini.ModelConfig
}

func (f *fakeLLM) Generate(_ context.Context, prompt string, mc gemini.ModelConfig) (gemini.Response, error) {
	f.prompts = append(f.prompts, prompt)
	f.configs = append(f.configs, mc)
	if f.err != nil {
		return gemini.Response{}, f.err
	}
	return gemini.Response{Text: f.text, Model: mc.Models[0]}, nil
}

func (f *fakeLLM) ModelGroup(name string) (gemini.ModelConfig, bool) {
	mc, ok := f.groups[name]
	return mc, ok
}

type fakeReplier struct {
	mu       sync.Mutex
	texts    []string
	forwards [][]portrayal.ForwardNode
}

func (f *fakeReplier) SendText(_ context.Context, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.texts = append(f.texts, text)
	return nil
}

func (f *fakeReplier) SendForward(_ context.Context, nodes []portrayal.ForwardNode) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.forwards = append(f.forwards, nodes)
	return nil
}

type fakePortrayals struct {
	saved []*database.Portrayal
	err   error
}

func (f *fakePortrayals) SavePortrayal(_ context.Context, p *database.Portrayal) error {
	if f.err != nil {
		return f.err
	}
	f.saved = append(f.saved, p)
	return nil
}

var errStore = errors.New("store unavailable")
