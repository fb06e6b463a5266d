package mw

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"diynow/pkg/logger"
	"diynow/pkg/session"
)

func ok(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}

func TestNoCache(t *testing.T) {
	rec := httptest.NewRecorder()
	NoCache(http.HandlerFunc(ok)).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Contains(t, rec.Header().Get("Cache-Control"), "no-store")
	assert.Equal(t, "no-cache", rec.Header().Get("Pragma"))
}

func TestRequireLogin(t *testing.T) {
	h := RequireLogin(http.HandlerFunc(ok))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/home", nil))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))

	req := httptest.NewRequest(http.MethodGet, "/home", nil)
	req = req.WithContext(WithSession(req.Context(), &session.Session{ID: "x", UserID: 1}))
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestSession(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	store := session.NewStore(client, time.Hour)

	sess, err := store.Create(context.Background(), 42)
	require.NoError(t, err)

	var seen *session.Session
	h := Session(store, "sid", logger.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = SessionFrom(r.Context())
	}))

	tests := []struct {
		name   string
		cookie string
		userID int64
	}{
		{"no cookie", "", 0},
		{"unknown id", "8f7a4a46-3c1d-4c0e-9a4c-2f1b8f0f6b1a", 0},
		{"garbage id", "not-a-uuid", 0},
		{"valid", sess.ID, 42},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen = nil
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: "sid", Value: tt.cookie})
			}
			h.ServeHTTP(httptest.NewRecorder(), req)

			if tt.userID == 0 {
				assert.Nil(t, seen)
				return
			}
			require.NotNil(t, seen)
			assert.Equal(t, tt.userID, seen.UserID)
		})
	}
}

type entry struct {
	level  string
	msg    string
	fields map[string]interface{}
}

// recordingLogger keeps structured entries in memory.
type recordingLogger struct {
	mu      sync.Mutex
	entries []entry
}

func (l *recordingLogger) record(level, msg string, fields []logger.Field) {
	enc := zapcore.NewMapObjectEncoder()
	for _, f := range fields {
		f.AddTo(enc)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, entry{level: level, msg: msg, fields: enc.Fields})
}

func (l *recordingLogger) last(t *testing.T) entry {
	t.Helper()
	l.mu.Lock()
	defer l.mu.Unlock()
	require.NotEmpty(t, l.entries)
	return l.entries[len(l.entries)-1]
}

func (l *recordingLogger) Debug(msg string, f ...logger.Field) { l.record("debug", msg, f) }
func (l *recordingLogger) Info(msg string, f ...logger.Field)  { l.record("info", msg, f) }
func (l *recordingLogger) Warn(msg string, f ...logger.Field)  { l.record("warn", msg, f) }
func (l *recordingLogger) Error(msg string, f ...logger.Field) { l.record("error", msg, f) }
func (l *recordingLogger) Debugf(string, ...interface{})       {}
func (l *recordingLogger) Infof(string, ...interface{})        {}
func (l *recordingLogger) Warnf(string, ...interface{})        {}
func (l *recordingLogger) Errorf(string, ...interface{})       {}
func (l *recordingLogger) With(...logger.Field) logger.Logger  { return l }
func (l *recordingLogger) Sync() error                         { return nil }

func TestLog_DefaultsStatus(t *testing.T) {
	rec := &recordingLogger{}
	h := Log(rec)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("hi"))
	}))
	resp := httptest.NewRecorder()
	h.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "hi", resp.Body.String())

	got := rec.last(t)
	assert.Equal(t, "info", got.level)
	assert.Equal(t, "http request", got.msg)
	assert.EqualValues(t, http.StatusOK, got.fields["status"])
	assert.EqualValues(t, 2, got.fields["bytes"])
	assert.NotContains(t, got.fields, "user_id")
}

func TestLog_Levels(t *testing.T) {
	tests := []struct {
		path   string
		status int
		level  string
	}{
		{"/home", http.StatusOK, "info"},
		{"/home", http.StatusSeeOther, "info"},
		{"/login", http.StatusForbidden, "warn"},
		{"/home", http.StatusBadGateway, "error"},
		{"/healthz", http.StatusOK, "debug"},
		{"/healthz", http.StatusServiceUnavailable, "debug"},
	}
	for _, tt := range tests {
		rec := &recordingLogger{}
		h := Log(rec)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tt.status)
		}))
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, tt.path, nil))
		assert.Equal(t, tt.level, rec.last(t).level, "%s %d", tt.path, tt.status)
	}
}

func TestLog_SessionUser(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	store := session.NewStore(client, time.Hour)

	sess, err := store.Create(context.Background(), 7)
	require.NoError(t, err)

	rec := &recordingLogger{}
	h := Log(rec)(Session(store, "sid", logger.NewNop())(http.HandlerFunc(ok)))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "sid", Value: sess.ID})
	h.ServeHTTP(httptest.NewRecorder(), req)

	got := rec.last(t)
	assert.EqualValues(t, 7, got.fields["user_id"])
	assert.EqualValues(t, http.StatusNoContent, got.fields["status"])
}
