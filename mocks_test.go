package auth_test

import (
	"context"
	"fmt"
	"strings"
	"sync"

	auth "github.com/goliatone/go-auth-gate"
	"github.com/stretchr/testify/mock"
)

// MockTokenVerifier implements auth.TokenVerifier
type MockTokenVerifier struct {
	mock.Mock
}

func (m *MockTokenVerifier) Verify(ctx context.Context, token string) (*auth.Claims, error) {
	args := m.Called(ctx, token)
	claims, _ := args.Get(0).(*auth.Claims)
	return claims, args.Error(1)
}

type logEntry struct {
	level string
	msg   string
	args  []any
}

// recordingLogger captures log calls for assertions
type recordingLogger struct {
	mu      sync.Mutex
	entries []logEntry
}

func (l *recordingLogger) log(level, msg string, args []any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, logEntry{level: level, msg: msg, args: args})
}

func (l *recordingLogger) Debug(msg string, args ...any) { l.log("debug", msg, args) }
func (l *recordingLogger) Info(msg string, args ...any)  { l.log("info", msg, args) }
func (l *recordingLogger) Warn(msg string, args ...any)  { l.log("warn", msg, args) }
func (l *recordingLogger) Error(msg string, args ...any) { l.log("error", msg, args) }

func (l *recordingLogger) levels() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, 0, len(l.entries))
	for _, e := range l.entries {
		out = append(out, e.level)
	}
	return out
}

// field returns the value logged under key by the last entry.
func (l *recordingLogger) field(key string) string {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.entries) == 0 {
		return ""
	}
	args := l.entries[len(l.entries)-1].args
	for i := 0; i+1 < len(args); i += 2 {
		if k, ok := args[i].(string); ok && strings.EqualFold(k, key) {
			return fmt.Sprint(args[i+1])
		}
	}
	return ""
}

func sampleClaims(sub string) *auth.Claims {
	return auth.NewClaims(auth.ClaimsData{
		Subject: sub,
		Name:    "Ann Example",
		Email:   "ann@example.com",
	})
}
