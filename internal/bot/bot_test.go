package bot

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"delib-reply-bot/internal/domain"
	"delib-reply-bot/internal/ledger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTokens struct {
	token string
	err   error
}

func (f *fakeTokens) Valid(ctx context.Context) (string, error) {
	return f.token, f.err
}

type fakeAPI struct {
	searchResults []domain.Message
	searchErr     error
	history       []domain.Message
	historyErr    error
	postErr       error

	searchCalls   int
	historyCalls  []string
	postedReplies map[string]string
}

func (f *fakeAPI) SearchRecent(ctx context.Context, token, query string) ([]domain.Message, error) {
	f.searchCalls++
	return f.searchResults, f.searchErr
}

func (f *fakeAPI) ConversationHistory(ctx context.Context, token, tweetID string, maxTweets int) ([]domain.Message, error) {
	f.historyCalls = append(f.historyCalls, tweetID)
	return f.history, f.historyErr
}

func (f *fakeAPI) PostReply(ctx context.Context, token, inReplyToID, text string) error {
	if f.postErr != nil {
		return f.postErr
	}
	if f.postedReplies == nil {
		f.postedReplies = make(map[string]string)
	}
	f.postedReplies[inReplyToID] = text
	return nil
}

type fakeGenerator struct {
	reply string
	err   error

	calls []generateCall
}

type generateCall struct {
	text       string
	historyLen int
}

func (f *fakeGenerator) Generate(ctx context.Context, text string, history []domain.Message) (string, error) {
	f.calls = append(f.calls, generateCall{text: text, historyLen: len(history)})
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

func newTestBot(t *testing.T, api *fakeAPI, gen *fakeGenerator) (*Bot, *ledger.Ledger) {
	t.Helper()
	dir := t.TempDir()

	targetFile := filepath.Join(dir, "targets.txt")
	require.NoError(t, os.WriteFile(targetFile, []byte("# none\n"), 0o644))

	replied := ledger.New(filepath.Join(dir, "replied.txt"))

	b := New(&fakeTokens{token: "token-1"}, api, replied, gen, Config{
		TargetUsername:  "bot",
		TargetIDsFile:   targetFile,
		PollingInterval: time.Minute,
		MaxHistory:      10,
	})
	return b, replied
}

func TestCycle_PostsAndRecordsReply(t *testing.T) {
	api := &fakeAPI{
		searchResults: []domain.Message{
			{ID: "100", Username: "alice", Text: "@bot what do you think?"},
		},
	}
	gen := &fakeGenerator{reply: "here is a thought"}
	b, replied := newTestBot(t, api, gen)

	require.NoError(t, b.cycle(context.Background()))

	assert.Equal(t, "here is a thought", api.postedReplies["100"])

	set, err := replied.Load()
	require.NoError(t, err)
	assert.Contains(t, set, "100")
}

func TestCycle_SkipsAlreadyReplied(t *testing.T) {
	api := &fakeAPI{
		searchResults: []domain.Message{
			{ID: "100", Username: "alice", Text: "@bot hello"},
		},
	}
	gen := &fakeGenerator{reply: "hi"}
	b, replied := newTestBot(t, api, gen)

	require.NoError(t, replied.Record("100"))

	require.NoError(t, b.cycle(context.Background()))

	assert.Empty(t, api.postedReplies)
	assert.Empty(t, gen.calls)
}

func TestCycle_EmptyQuerySkipsSearch(t *testing.T) {
	api := &fakeAPI{}
	gen := &fakeGenerator{reply: "hi"}
	b, _ := newTestBot(t, api, gen)
	b.cfg.TargetUsername = ""

	require.NoError(t, b.cycle(context.Background()))

	assert.Equal(t, 0, api.searchCalls)
}

func TestCycle_TokenFailureAborts(t *testing.T) {
	api := &fakeAPI{}
	b, _ := newTestBot(t, api, &fakeGenerator{})
	b.tokens = &fakeTokens{err: domain.ErrAuthRequired}

	err := b.cycle(context.Background())

	assert.ErrorIs(t, err, domain.ErrAuthRequired)
	assert.Equal(t, 0, api.searchCalls)
}

func TestProcess_NoReplyOnGeneratorError(t *testing.T) {
	api := &fakeAPI{
		searchResults: []domain.Message{
			{ID: "100", Username: "alice", Text: "@bot hello"},
		},
	}
	gen := &fakeGenerator{err: errors.New("backend down")}
	b, replied := newTestBot(t, api, gen)

	require.NoError(t, b.cycle(context.Background()))

	assert.Empty(t, api.postedReplies)
	set, err := replied.Load()
	require.NoError(t, err)
	assert.NotContains(t, set, "100")
}

func TestProcess_FailedPostIsNotRecorded(t *testing.T) {
	api := &fakeAPI{
		searchResults: []domain.Message{
			{ID: "100", Username: "alice", Text: "@bot hello"},
		},
		postErr: domain.ErrPostFailed,
	}
	gen := &fakeGenerator{reply: "hi"}
	b, replied := newTestBot(t, api, gen)

	require.NoError(t, b.cycle(context.Background()))

	set, err := replied.Load()
	require.NoError(t, err)
	assert.NotContains(t, set, "100", "unconfirmed posts must not be recorded")
}

func TestProcess_HistoryFailureTreatedAsEmpty(t *testing.T) {
	api := &fakeAPI{
		searchResults: []domain.Message{
			{ID: "100", Username: "alice", Text: "@bot hello"},
		},
		historyErr: errors.New("lookup quota exhausted"),
	}
	gen := &fakeGenerator{reply: "hi"}
	b, _ := newTestBot(t, api, gen)

	require.NoError(t, b.cycle(context.Background()))

	require.Len(t, gen.calls, 1)
	assert.Equal(t, 0, gen.calls[0].historyLen)
	assert.Equal(t, "hi", api.postedReplies["100"])
}

func TestProcess_StripsMentionAndTruncates(t *testing.T) {
	api := &fakeAPI{
		searchResults: []domain.Message{
			{ID: "100", Username: "alice", Text: "@bot hello"},
		},
	}
	gen := &fakeGenerator{reply: "@alice " + strings.Repeat("x", 300)}
	b, _ := newTestBot(t, api, gen)

	require.NoError(t, b.cycle(context.Background()))

	posted := api.postedReplies["100"]
	assert.False(t, strings.HasPrefix(posted, "@"))
	assert.Len(t, []rune(posted), 280)
	assert.True(t, strings.HasSuffix(posted, "..."))
}

func TestCycle_ProcessesMultipleTweetsInSearchOrder(t *testing.T) {
	api := &fakeAPI{
		searchResults: []domain.Message{
			{ID: "100", Username: "alice", Text: "@bot first"},
			{ID: "101", Username: "carol", Text: "@bot second"},
		},
	}
	gen := &fakeGenerator{reply: "hi"}
	b, _ := newTestBot(t, api, gen)

	require.NoError(t, b.cycle(context.Background()))

	assert.Equal(t, []string{"100", "101"}, api.historyCalls)
	assert.Len(t, api.postedReplies, 2)
}

func TestCycle_TargetIDsWidenTheQuery(t *testing.T) {
	dir := t.TempDir()
	targetFile := filepath.Join(dir, "targets.txt")
	require.NoError(t, os.WriteFile(targetFile, []byte("111\n222\n"), 0o644))

	api := &fakeAPI{}
	b := New(&fakeTokens{token: "token-1"}, api, ledger.New(filepath.Join(dir, "replied.txt")), &fakeGenerator{}, Config{
		TargetIDsFile:   targetFile,
		PollingInterval: time.Minute,
	})

	// Username empty but targets present: the query is non-empty, search runs
	require.NoError(t, b.cycle(context.Background()))
	assert.Equal(t, 1, api.searchCalls)
}

func TestRun_StopsOnContextCancel(t *testing.T) {
	api := &fakeAPI{}
	gen := &fakeGenerator{reply: "hi"}
	b, _ := newTestBot(t, api, gen)
	b.cfg.PollingInterval = 10 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		done <- b.Run(ctx)
	}()

	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("Run did not stop after cancellation")
	}

	assert.GreaterOrEqual(t, api.searchCalls, 1)
}

func TestRun_CreatesStateFiles(t *testing.T) {
	dir := t.TempDir()
	targetFile := filepath.Join(dir, "targets.txt")
	repliedFile := filepath.Join(dir, "replied.txt")

	b := New(&fakeTokens{token: "token-1"}, &fakeAPI{}, ledger.New(repliedFile), &fakeGenerator{}, Config{
		TargetUsername:  "bot",
		TargetIDsFile:   targetFile,
		PollingInterval: 10 * time.Millisecond,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_ = b.Run(ctx)

	for _, path := range []string{targetFile, repliedFile} {
		_, err := os.Stat(path)
		assert.NoError(t, err, fmt.Sprintf("expected %s to be created", path))
	}
}
