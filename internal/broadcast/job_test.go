package broadcast

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vladvlasov256/YourDutchBot/internal/lesson"
)

type fakePlanner struct {
	profiles []lesson.Profile
	messages map[int64]string
	failFor  map[int64]error
}

func (p *fakePlanner) ActiveProfiles(_ context.Context) ([]lesson.Profile, error) {
	return p.profiles, nil
}

func (p *fakePlanner) BroadcastMessage(_ context.Context, userID int64) (string, string, error) {
	if err := p.failFor[userID]; err != nil {
		return "", "", err
	}
	return "new", p.messages[userID], nil
}

type fakeSender struct {
	sent    map[int64]string
	failFor map[int64]error
}

func (s *fakeSender) SendText(_ context.Context, userID int64, text string) error {
	if err := s.failFor[userID]; err != nil {
		return err
	}
	if s.sent == nil {
		s.sent = make(map[int64]string)
	}
	s.sent[userID] = text
	return nil
}

func TestJobRunIsolatesFailures(t *testing.T) {
	planner := &fakePlanner{
		profiles: []lesson.Profile{{TelegramID: 1}, {TelegramID: 2}, {TelegramID: 3}},
		messages: map[int64]string{1: "hoi 1", 2: "hoi 2", 3: "hoi 3"},
		failFor:  map[int64]error{2: errors.New("state unreadable")},
	}
	sender := &fakeSender{failFor: map[int64]error{3: errors.New("bot was blocked by the user")}}

	stats, err := NewJob(planner, sender, 1).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, 1, stats.Sent)
	assert.Equal(t, 2, stats.Failed)
	assert.Equal(t, "hoi 1", sender.sent[1])
	assert.Equal(t, 1, stats.Categories["new"])
}

func TestDailyPushEndpoint(t *testing.T) {
	planner := &fakePlanner{
		profiles: []lesson.Profile{{TelegramID: 1}},
		messages: map[int64]string{1: "goedemorgen"},
	}
	sender := &fakeSender{}
	srv := NewServer(Config{Secret: "s3cret"}, NewJob(planner, sender, 1))

	req := httptest.NewRequest(http.MethodPost, "/api/daily-push", nil)
	req.Header.Set("Authorization", "Bearer s3cret")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"sent":1`)
	assert.Equal(t, "goedemorgen", sender.sent[1])
}

func TestDailyPushRejectsBadSecret(t *testing.T) {
	srv := NewServer(Config{Secret: "s3cret"}, NewJob(&fakePlanner{}, &fakeSender{}, 1))

	for _, auth := range []string{"", "Bearer wrong", "Basic s3cret"} {
		req := httptest.NewRequest(http.MethodPost, "/api/daily-push", nil)
		if auth != "" {
			req.Header.Set("Authorization", auth)
		}
		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, auth)
	}
}

func TestDailyPushNoSecretConfigured(t *testing.T) {
	// An empty secret disables the endpoint rather than opening it.
	srv := NewServer(Config{}, NewJob(&fakePlanner{}, &fakeSender{}, 1))
	req := httptest.NewRequest(http.MethodPost, "/api/daily-push", strings.NewReader(""))
	req.Header.Set("Authorization", "Bearer ")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
