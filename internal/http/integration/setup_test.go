package integration_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/geocoder89/noteflow/internal/auth"
	"github.com/geocoder89/noteflow/internal/cache"
	"github.com/geocoder89/noteflow/internal/config"
	"github.com/geocoder89/noteflow/internal/db"
	apphttp "github.com/geocoder89/noteflow/internal/http"
	"github.com/geocoder89/noteflow/internal/observability"
	"github.com/geocoder89/noteflow/internal/repo/memory"
	"github.com/geocoder89/noteflow/internal/repo/postgres"
	"github.com/geocoder89/noteflow/internal/security"
	"github.com/geocoder89/noteflow/internal/service"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/crypto/bcrypt"
)

const testSecret = "test-secret-key"

func testConfig() config.Config {
	return config.Config{
		Env:            "test",
		StoreDriver:    config.StoreDriverMemory,
		JWTSecret:      testSecret,
		JWTTTL:         auth.DefaultTTL,
		BcryptCost:     bcrypt.MinCost,
		AllowedOrigins: []string{"http://localhost:3000"},
		MaxBodyBytes:   1 << 20,
		NotesCacheTTL:  time.Minute,
		ServiceName:    "noteflow-test",
	}
}

type stores struct {
	users service.UserStore
	notes service.NoteStore

	// dropUser removes an account behind the API's back
	dropUser func(t *testing.T, id string)
}

// backends yields the memory stores always, plus postgres when TEST_DB_DSN is set.
func backends(t *testing.T) map[string]func(t *testing.T) stores {
	out := map[string]func(t *testing.T) stores{
		"memory": func(t *testing.T) stores {
			users := memory.NewUsersRepo()

			return stores{
				users: users,
				notes: memory.NewNotesRepo(),
				dropUser: func(_ *testing.T, id string) {
					users.Delete(id)
				},
			}
		},
	}

	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		return out
	}

	out["postgres"] = func(t *testing.T) stores {
		t.Helper()

		ctx := context.Background()

		pool, err := db.NewPool(ctx, dsn, 4)
		if err != nil {
			t.Fatalf("Failed to create pgx pool: %v", err)
		}
		t.Cleanup(pool.Close)

		if err := db.Migrate(ctx, pool); err != nil {
			t.Fatalf("migrate: %v", err)
		}

		if _, err := pool.Exec(ctx, `TRUNCATE notes, users`); err != nil {
			t.Fatalf("failed to truncate tables: %v", err)
		}

		return stores{
			users: postgres.NewUsersRepo(pool, nil),
			notes: postgres.NewNotesRepo(pool, nil),
			dropUser: func(t *testing.T, id string) {
				if _, err := pool.Exec(context.Background(), `DELETE FROM users WHERE id = $1`, id); err != nil {
					t.Fatalf("delete user: %v", err)
				}
			},
		}
	}

	return out
}

func newServer(t *testing.T, s stores) *httptest.Server {
	t.Helper()

	cfg := testConfig()
	logger := slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelDebug}))

	reg := prometheus.NewRegistry()
	prom := observability.NewProm(reg)

	authSvc := service.NewAuthService(s.users, security.NewHasher(cfg.BcryptCost), auth.NewManager(cfg.JWTSecret, cfg.JWTTTL), logger, prom)
	noteSvc := service.NewNoteService(s.notes, cache.NewMemory(cfg.NotesCacheTTL), logger, prom)

	router := apphttp.NewRouter(logger, cfg, apphttp.Deps{
		Auth:     authSvc,
		Notes:    noteSvc,
		Prom:     prom,
		Gatherer: reg,
	})

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	return srv
}

// helpers

type client struct {
	t     *testing.T
	base  string
	token string
}

func (c *client) do(method, path string, body any) (*http.Response, []byte) {
	c.t.Helper()

	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			c.t.Fatalf("marshal: %v", err)
		}
		rdr = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, c.base+path, rdr)
	if err != nil {
		c.t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	res, err := http.DefaultClient.Do(req)
	if err != nil {
		c.t.Fatalf("%s %s: %v", method, path, err)
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(res.Body)
	if err != nil {
		c.t.Fatalf("read body: %v", err)
	}

	return res, raw
}

func (c *client) expect(method, path string, body any, status int, out any) {
	c.t.Helper()

	res, raw := c.do(method, path, body)

	if res.StatusCode != status {
		c.t.Fatalf("%s %s: status = %d, want %d, body=%s", method, path, res.StatusCode, status, raw)
	}

	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			c.t.Fatalf("%s %s: decode %s: %v", method, path, raw, err)
		}
	}
}

type authResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Token   string `json:"token"`
	User    struct {
		ID    string `json:"id"`
		Name  string `json:"name"`
		Email string `json:"email"`
	} `json:"user"`
}

type errorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func register(t *testing.T, base, name, email, password string) *client {
	t.Helper()

	c := &client{t: t, base: base}

	var res authResponse
	c.expect(http.MethodPost, "/api/auth/register", map[string]string{
		"name":     name,
		"email":    email,
		"password": password,
	}, http.StatusCreated, &res)

	c.token = res.Token
	return c
}
