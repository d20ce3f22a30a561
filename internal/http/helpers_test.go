package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"easybuy/internal/domain"
	"easybuy/internal/events"
	"easybuy/internal/http/handlers"
	applog "easybuy/internal/log"
	"easybuy/internal/repos"
	"easybuy/internal/services"
	"easybuy/internal/token"
)

const (
	adminEmail  = "admin@easybuy.test"
	sellerEmail = "seller@easybuy.test"
	buyerEmail  = "buyer@easybuy.test"
)

type fakeProcessor struct {
	mu      sync.Mutex
	intents map[string]domain.Intent
	err     error
}

func (f *fakeProcessor) CreateIntent(_ context.Context, amount int64, currency string) (domain.Intent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return domain.Intent{}, &domain.UpstreamError{Op: "create intent", Err: f.err}
	}
	return domain.Intent{ID: "pi_1", ClientSecret: "pi_1_secret_x", Amount: amount, Currency: currency}, nil
}

func (f *fakeProcessor) GetIntent(_ context.Context, id string) (domain.Intent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return domain.Intent{}, &domain.UpstreamError{Op: "get intent", Err: f.err}
	}
	in, ok := f.intents[id]
	if !ok {
		return domain.Intent{}, domain.Invalidf("unknown transaction %s", id)
	}
	return in, nil
}

type testEnv struct {
	app    *fiber.App
	db     *sqlx.DB
	tokens *token.Issuer
	proc   *fakeProcessor
}

type envOptions struct {
	limits    handlers.Limits
	noPayment bool
}

func newTestEnv(t *testing.T, opts envOptions) *testEnv {
	t.Helper()
	db, err := repos.OpenDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	tokens, err := token.NewIssuer("test-secret", time.Hour)
	require.NoError(t, err)

	env := &testEnv{db: db, tokens: tokens, proc: &fakeProcessor{intents: map[string]domain.Intent{}}}
	pay := handlers.PaymentOptions{Currency: "usd", Timeout: time.Second}
	if !opts.noPayment {
		pay.Processor = env.proc
	}
	st := services.Stores{
		Users:      repos.NewUserRepo(db),
		Categories: repos.NewCategoryRepo(db),
		Products:   repos.NewProductRepo(db),
		Bookings:   repos.NewBookingRepo(db),
		Payments:   repos.NewPaymentRepo(db),
	}
	deps := handlers.NewDeps(st, tokens, pay, events.NewBus())

	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler,
		Views:        handlers.Views(),
		BodyLimit:    1 << 20,
	})
	app.Use(requestid.New())
	handlers.Mount(app, deps, opts.limits, handlers.StatusInfo{Store: "sqlite", Payments: !opts.noPayment, Started: time.Now()})
	env.app = app
	return env
}

func (e *testEnv) bearer(t *testing.T, email string) string {
	t.Helper()
	tok, err := e.tokens.Issue(email)
	require.NoError(t, err)
	return "Bearer " + tok
}

// do sends body as JSON (strings are sent verbatim) with an optional
// bearer for email.
func (e *testEnv) do(t *testing.T, method, path, email string, body any) *http.Response {
	t.Helper()
	var r io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		r = strings.NewReader(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		r = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	if email != "" {
		req.Header.Set("Authorization", e.bearer(t, email))
	}
	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func (e *testEnv) product(t *testing.T, id string, price domain.Price) {
	t.Helper()
	_, err := repos.NewProductRepo(e.db).Insert(context.Background(), domain.Product{
		ID: id, SellerEmail: sellerEmail, CategoryID: "phones", Name: "Phone " + id, Price: price,
	})
	require.NoError(t, err)
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

type logEntry struct {
	Level   string         `json:"level"`
	Kind    string         `json:"kind"`
	Message string         `json:"message"`
	Email   string         `json:"email"`
	ReqID   string         `json:"req_id"`
	Fields  map[string]any `json:"fields"`
}

type lockedWriter struct {
	mu sync.Mutex
	w  bytes.Buffer
}

func (lw *lockedWriter) Write(p []byte) (int, error) {
	lw.mu.Lock()
	defer lw.mu.Unlock()
	return lw.w.Write(p)
}

// captureLogs points the package logger at a buffer while fn runs.
func captureLogs(t *testing.T, fn func()) []logEntry {
	t.Helper()
	lw := &lockedWriter{}
	applog.SetOutput(lw)
	defer applog.SetOutput(io.Discard)

	fn()

	var entries []logEntry
	for _, line := range strings.Split(strings.TrimSpace(lw.w.String()), "\n") {
		var e logEntry
		if err := json.Unmarshal([]byte(line), &e); err == nil {
			entries = append(entries, e)
		}
	}
	return entries
}

func findLog(entries []logEntry, action string) (logEntry, bool) {
	for _, e := range entries {
		if e.Message == action {
			return e, true
		}
	}
	return logEntry{}, false
}
