package e2e_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fftools/likebot/internal/config"
	"github.com/fftools/likebot/internal/handlers"
	"github.com/fftools/likebot/internal/services"
	"github.com/fftools/likebot/internal/store"
	"github.com/fftools/likebot/tests"
)

// recordingChat captures completion messages instead of talking to Telegram.
type recordingChat struct {
	mu    sync.Mutex
	edits []string
	sends []string
}

func (c *recordingChat) SendMessage(chatID int64, text string) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sends = append(c.sends, text)
	return len(c.sends), nil
}

func (c *recordingChat) EditMessage(chatID int64, messageID int, text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.edits = append(c.edits, text)
	return nil
}

func (c *recordingChat) delivered() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := append([]string(nil), c.edits...)
	return append(out, c.sends...)
}

// TestVerificationFlow drives the full pipeline against real MongoDB and
// Redis: link issue, link consume over HTTP, asynchronous like delivery,
// and repeat-click idempotence.
func TestVerificationFlow(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping e2e test in short mode")
	}

	tc := tests.SetupTestContainers(t)
	t.Cleanup(tc.Cleanup)

	ctx := context.Background()
	require.NoError(t, config.EnsureVerificationIndexes(ctx, tc.MongoDB, "verifications"))

	var likeCalls int64
	likeServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&likeCalls, 1)
		uid := r.URL.Query().Get("uid")
		fmt.Fprintf(w, `{"status":1,"PlayerNickname":"Tester","UID":%q,"LikesbeforeCommand":10,"LikesafterCommand":11,"LikesGivenByAPI":1}`, uid)
	}))
	t.Cleanup(likeServer.Close)

	verifications := store.New(tc.MongoDB, "verifications", nil)
	issuer := services.NewLinkIssuer(verifications, nil, "http://localhost:8080", 10*time.Minute, nil)
	likeClient := services.NewLikeClient(likeServer.URL+"/like?uid={uid}", nil)
	chat := &recordingChat{}
	notifier := services.NewNotifier(2, 16, likeClient, chat, nil)
	t.Cleanup(notifier.Stop)

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/verify/:code", handlers.NewVerifyHandler(verifications, notifier, nil).VerifyLink)

	get := func(code string) *httptest.ResponseRecorder {
		req, err := http.NewRequest(http.MethodGet, "/verify/"+code, nil)
		require.NoError(t, err)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	link, err := issuer.Issue(ctx, 500100, "Alice", "123456789", nil)
	require.NoError(t, err)
	require.NotEmpty(t, link.Code)
	assert.Equal(t, "http://localhost:8080/verify/"+link.Code, link.URL)

	t.Run("first click consumes and delivers the like", func(t *testing.T) {
		w := get(link.Code)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "✅ Verification successful!")

		require.Eventually(t, func() bool {
			return len(chat.delivered()) == 1
		}, 5*time.Second, 50*time.Millisecond, "completion message should arrive")

		assert.Contains(t, chat.delivered()[0], "✅ *Like Sent Successfully!*")
		assert.Contains(t, chat.delivered()[0], "123456789")
		assert.EqualValues(t, 1, atomic.LoadInt64(&likeCalls))
	})

	t.Run("second click is already verified, no second like", func(t *testing.T) {
		w := get(link.Code)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "⚠️ You have already verified.")

		// Give a mistakenly queued job time to surface before asserting
		time.Sleep(200 * time.Millisecond)
		assert.EqualValues(t, 1, atomic.LoadInt64(&likeCalls))
		assert.Len(t, chat.delivered(), 1)
	})

	t.Run("unknown code rejected", func(t *testing.T) {
		w := get("doesnotexist")
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "Invalid or expired")
	})

	t.Run("cooldown blocks a second request within the window", func(t *testing.T) {
		cooldown := services.NewCooldown(tc.Redis, 2*time.Second, nil)

		ok, _ := cooldown.Allow(ctx, 500100)
		require.True(t, ok, "first request should pass")

		ok, wait := cooldown.Allow(ctx, 500100)
		assert.False(t, ok, "second request inside the window should be blocked")
		assert.Greater(t, wait, time.Duration(0))

		ok, _ = cooldown.Allow(ctx, 999999)
		assert.True(t, ok, "other users are unaffected")
	})
}
