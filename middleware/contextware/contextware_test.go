package contextware_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/gofiber/fiber/v2"
	auth "github.com/goliatone/go-auth-gate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-auth-gate/middleware/contextware"
)

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}

// newBuilder accepts the token "good" and rejects everything else.
func newBuilder(calls *int32) *auth.ContextBuilder {
	verifier := auth.TokenVerifierFunc(func(_ context.Context, token string) (*auth.Claims, error) {
		atomic.AddInt32(calls, 1)
		if token != "good" {
			return nil, auth.ErrInvalidToken
		}
		return auth.NewClaims(auth.ClaimsData{Subject: "u1", Name: "Ann"}), nil
	})
	return auth.NewContextBuilder(auth.NewCredentialVerifier(verifier, auth.WithVerifierLogger(nopLogger{})))
}

func whoami(c *fiber.Ctx) error {
	rc := auth.RequestContextFrom(c.UserContext())
	if claims, ok := rc.User(); ok {
		return c.SendString(claims.UserID())
	}
	return c.SendString("anonymous")
}

func body(t *testing.T, resp *http.Response) string {
	t.Helper()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(raw)
}

func TestContextware_AttachesContext(t *testing.T) {
	tests := []struct {
		name     string
		header   string
		expected string
		calls    int32
	}{
		{name: "valid bearer token", header: "Bearer good", expected: "u1", calls: 1},
		{name: "rejected token", header: "Bearer bad", expected: "anonymous", calls: 1},
		{name: "missing header", header: "", expected: "anonymous", calls: 0},
		{name: "wrong scheme", header: "Basic good", expected: "anonymous", calls: 0},
		{name: "lower case scheme", header: "bearer good", expected: "anonymous", calls: 0},
		{name: "empty token", header: "Bearer ", expected: "anonymous", calls: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls int32
			app := fiber.New()
			app.Use(contextware.New(contextware.Config{Builder: newBuilder(&calls)}))
			app.Get("/", whoami)

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}

			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, http.StatusOK, resp.StatusCode)
			assert.Equal(t, tt.expected, body(t, resp))
			assert.Equal(t, tt.calls, atomic.LoadInt32(&calls))
		})
	}
}

func TestContextware_LocalsAndListeners(t *testing.T) {
	var calls int32
	var seen []string

	app := fiber.New()
	app.Use(contextware.New(contextware.Config{
		Builder: newBuilder(&calls),
		Logger:  nopLogger{},
		ValidationListeners: []contextware.ValidationListener{
			func(_ *fiber.Ctx, claims *auth.Claims) error {
				seen = append(seen, claims.UserID())
				return errors.New("listener failure does not abort")
			},
			nil,
		},
	}))
	app.Get("/", func(c *fiber.Ctx) error {
		rc := contextware.FromFiber(c)
		if rc.IsAnonymous() {
			return c.SendString("anonymous")
		}
		claims, _ := rc.User()
		return c.SendString(claims.Name())
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer good")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, "Ann", body(t, resp))
	assert.Equal(t, []string{"u1"}, seen)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	assert.Equal(t, "anonymous", body(t, resp))
	assert.Len(t, seen, 1)
}

func TestContextware_Filter(t *testing.T) {
	var calls int32
	app := fiber.New()
	app.Use(contextware.New(contextware.Config{
		Builder: newBuilder(&calls),
		Filter: func(c *fiber.Ctx) bool {
			return c.Path() == "/health"
		},
	}))
	app.Get("/health", whoami)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Authorization", "Bearer good")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, "anonymous", body(t, resp))
	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))
}

func TestContextware_QueryAndCookieLookup(t *testing.T) {
	var calls int32
	app := fiber.New()
	app.Use(contextware.New(contextware.Config{
		Builder:     newBuilder(&calls),
		TokenLookup: "header:Authorization,cookie:id_token,query:id_token",
	}))
	app.Get("/", whoami)

	req := httptest.NewRequest(http.MethodGet, "/?id_token=good", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, "u1", body(t, resp))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "id_token", Value: "good"})
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, "u1", body(t, resp))
}

func TestContextware_VerifiesOncePerRequest(t *testing.T) {
	var calls int32
	builder := newBuilder(&calls)

	app := fiber.New()
	app.Use(contextware.New(contextware.Config{Builder: builder}))
	app.Use(contextware.New(contextware.Config{Builder: builder}))
	app.Get("/", whoami)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer good")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, "u1", body(t, resp))
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestHTTP(t *testing.T) {
	var calls int32
	mw := contextware.HTTP(contextware.Config{Builder: newBuilder(&calls)})

	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := auth.ClaimsFromContext(r.Context())
		if !ok {
			_, _ = io.WriteString(w, "anonymous")
			return
		}
		_, _ = io.WriteString(w, claims.UserID())
	}))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer good")
	handler.ServeHTTP(rec, req)
	assert.Equal(t, "u1", rec.Body.String())

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, "anonymous", rec.Body.String())
}

func TestNew_PanicsWithoutBuilder(t *testing.T) {
	assert.Panics(t, func() {
		contextware.New(contextware.Config{})
	})
}
