package handlers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterAllCommands(t *testing.T) {
	t.Parallel()

	deps, _ := newTestDeps(t)
	registered := RegisterAllCommands(deps)

	keys := make([]string, 0, len(registered))
	for k := range registered {
		keys = append(keys, k)
	}
	assert.ElementsMatch(t, []string{"/start", "/help", "/画像", "/sketch_rename", "/sketch_last"}, keys)

	for key, h := range registered {
		assert.NotNil(t, h.Handler, key)
	}
	assert.Same(t, PortrayalPattern, registered["/画像"].Regexp)
	assert.Empty(t, registered["/画像"].Middleware, "the portrayal command applies its own access policy")
	assert.Len(t, registered["/sketch_rename"].Middleware, 1)
	assert.Len(t, registered["/sketch_last"].Middleware, 1)
}

func TestPortrayalPattern(t *testing.T) {
	t.Parallel()

	for _, text := range []string{"/画像", "#画像", "/画像 鲍勃", "/画像 鲍勃 12345", "/画像@sketch_bot"} {
		assert.True(t, PortrayalPattern.MatchString(text), text)
	}
	for _, text := range []string{"画像", "hello /画像", "/sketch_last", "/help"} {
		assert.False(t, PortrayalPattern.MatchString(text), text)
	}
}

func TestIsAdmin(t *testing.T) {
	t.Parallel()

	deps, _ := newTestDeps(t)
	deps.Config.Permissions.AdminIDs = []string{"1", "2"}

	require.True(t, isAdmin(deps, "2"))
	assert.False(t, isAdmin(deps, "3"))
}
