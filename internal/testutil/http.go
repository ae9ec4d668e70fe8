package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/dalemusser/basecamp/internal/app/system/mailer"
	"github.com/dalemusser/basecamp/internal/app/system/tokens"
	"github.com/dalemusser/basecamp/internal/domain/models"
)

// NewJSONRequest builds a request with body marshalled as JSON. A nil body
// sends no body.
func NewJSONRequest(method, target string, body any) *http.Request {
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			panic(err)
		}
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, target, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req
}

var (
	tokOnce sync.Once
	tok     *tokens.Service
)

// Tokens returns the token service shared by handler tests. Routers built
// with it accept requests prepared by WithBearer.
func Tokens() *tokens.Service {
	tokOnce.Do(func() {
		s, err := tokens.New(tokens.Config{AccessSecret: "test-access-secret", RefreshSecret: "test-refresh-secret"})
		if err != nil {
			panic(err)
		}
		tok = s
	})
	return tok
}

// WithBearer adds an Authorization header carrying an access token for u.
// u must exist in the database the router reads from.
func WithBearer(r *http.Request, u models.User) *http.Request {
	raw, err := Tokens().IssueAccess(u)
	if err != nil {
		panic(err)
	}
	r.Header.Set("Authorization", "Bearer "+raw)
	return r
}

// Envelope is the decoded API response.
type Envelope struct {
	Status  int             `json:"status"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
	Success bool            `json:"success"`
}

// DecodeEnvelope parses the response body and, when dst is non-nil,
// unmarshals Data into it.
func DecodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder, dst any) Envelope {
	t.Helper()
	var env Envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("failed to parse response %q: %v", rec.Body.String(), err)
	}
	if dst != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, dst); err != nil {
			t.Fatalf("failed to parse data %s: %v", env.Data, err)
		}
	}
	return env
}

// AssertStatus checks the response status code.
func AssertStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Errorf("status code: got %d, want %d (body: %s)", rec.Code, want, rec.Body.String())
	}
}

// MailRecorder is a mailer.Sender that keeps messages in memory.
type MailRecorder struct {
	mu   sync.Mutex
	Sent []mailer.Email
}

func (m *MailRecorder) Send(_ context.Context, msg mailer.Email) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Sent = append(m.Sent, msg)
	return nil
}

// Last returns the most recent message, or false when none was sent.
func (m *MailRecorder) Last() (mailer.Email, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Sent) == 0 {
		return mailer.Email{}, false
	}
	return m.Sent[len(m.Sent)-1], true
}
