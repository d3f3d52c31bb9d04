package commands

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/communitykit/suggestbox/src/suggestions/engine"
)

// stubDiscord records interaction responses instead of sending them.
type stubDiscord struct {
	mu     sync.Mutex
	bodies []string
}

func (st *stubDiscord) RoundTrip(req *http.Request) (*http.Response, error) {
	var body []byte
	if req.Body != nil {
		body, _ = io.ReadAll(req.Body)
	}
	st.mu.Lock()
	st.bodies = append(st.bodies, string(body))
	st.mu.Unlock()
	return &http.Response{
		StatusCode: http.StatusNoContent,
		Header:     make(http.Header),
		Body:       io.NopCloser(strings.NewReader("")),
		Request:    req,
	}, nil
}

func (st *stubDiscord) sent() []string {
	st.mu.Lock()
	defer st.mu.Unlock()
	return append([]string(nil), st.bodies...)
}

func newStubSession(t *testing.T) (*discordgo.Session, *stubDiscord) {
	t.Helper()
	s, err := discordgo.New("Bot test-token")
	require.NoError(t, err)
	st := &stubDiscord{}
	s.Client = &http.Client{Transport: st}
	return s, st
}

func componentInteraction(customID string) *discordgo.InteractionCreate {
	return &discordgo.InteractionCreate{Interaction: &discordgo.Interaction{
		ID:    "1",
		Token: "tok",
		Type:  discordgo.InteractionMessageComponent,
		Data:  discordgo.MessageComponentInteractionData{CustomID: customID},
	}}
}

func commandInteraction(name string) *discordgo.InteractionCreate {
	return &discordgo.InteractionCreate{Interaction: &discordgo.Interaction{
		ID:    "1",
		Token: "tok",
		Type:  discordgo.InteractionApplicationCommand,
		Data:  discordgo.ApplicationCommandInteractionData{Name: name},
	}}
}

func TestParseEmoji(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"unicode glyph passes through", "✅", "✅"},
		{"custom emoji", "<:upvote:123456789>", "upvote:123456789"},
		{"animated custom emoji", "<a:party:987654321>", "party:987654321"},
		{"underscored name", "<:thumbs_up:42>", "thumbs_up:42"},
		{"malformed markup passes through", "<:nope>", "<:nope>"},
		{"plain text passes through", "yes", "yes"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, parseEmoji(tc.input))
		})
	}
}

func TestDisplayEmoji(t *testing.T) {
	assert.Equal(t, "✅", displayEmoji("✅"))
	assert.Equal(t, "<:upvote:123>", displayEmoji("upvote:123"))
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(50 * time.Millisecond)

	assert.True(t, rl.CanUse("g1:alice"))
	assert.False(t, rl.CanUse("g1:alice"), "second use inside the window is blocked")
	assert.True(t, rl.CanUse("g1:bob"), "other members have their own window")
	assert.Greater(t, rl.TimeUntilNext("g1:alice"), time.Duration(0))

	time.Sleep(60 * time.Millisecond)
	assert.True(t, rl.CanUse("g1:alice"))
	assert.Zero(t, rl.TimeUntilNext("g1:carol"), "unknown keys are not throttled")
}

func TestRespondErrorOnButtonPress(t *testing.T) {
	s, st := newStubSession(t)
	i := componentInteraction("clearbans:confirm:42")

	// A collaborator failure during a button press must produce the generic
	// reply, not a crash.
	assert.NotPanics(t, func() {
		respondError(s, i, errors.New("redis: connection refused"))
	})

	sent := st.sent()
	require.Len(t, sent, 1)
	assert.Contains(t, sent[0], "Something went wrong")
}

func TestInteractionLabel(t *testing.T) {
	assert.Equal(t, CommandApprove, interactionLabel(commandInteraction(CommandApprove)))
	assert.Equal(t, "clearbans:cancel:7", interactionLabel(componentInteraction("clearbans:cancel:7")))
}

func TestUserFacingError(t *testing.T) {
	content, known := userFacingError(engine.ErrAlreadyFinished)
	assert.True(t, known)
	assert.Equal(t, "This suggestion has been finished already.", content)

	content, known = userFacingError(errors.New("dial tcp: connection refused"))
	assert.False(t, known)
	assert.Equal(t, "Something went wrong, please try again later.", content)
}

func TestHandlersRequireGuildMember(t *testing.T) {
	s, st := newStubSession(t)
	h := &Handler{}

	handlers := map[string]func(){
		"approve":   func() { h.handleResolve(s, commandInteraction(CommandApprove), true) },
		"ban":       func() { h.handleBan(s, commandInteraction(CommandBan)) },
		"unban":     func() { h.handleUnban(s, commandInteraction(CommandUnban)) },
		"clearbans": func() { h.handleClearBans(s, commandInteraction(CommandClearBans)) },
	}

	calls := 0
	for name, call := range handlers {
		t.Run(name, func(t *testing.T) {
			assert.NotPanics(t, call)
			calls++
			sent := st.sent()
			require.Len(t, sent, calls)
			assert.Contains(t, sent[calls-1], "only works inside a server")
		})
	}
}

func TestRateLimiterCleanup(t *testing.T) {
	rl := NewRateLimiter(time.Millisecond)
	rl.CanUse("g1:alice")

	time.Sleep(5 * time.Millisecond)
	rl.Cleanup()

	rl.mu.Lock()
	defer rl.mu.Unlock()
	assert.Empty(t, rl.users)
}

func TestRateLimiterStop(t *testing.T) {
	rl := NewRateLimiter(time.Minute)
	rl.StartCleanup(time.Millisecond)

	rl.Stop()
	rl.Stop() // idempotent
}
