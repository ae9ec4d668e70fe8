package bootstrap

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dalemusser/basecamp/internal/domain/models"
	"github.com/dalemusser/basecamp/internal/testutil"
	"go.mongodb.org/mongo-driver/mongo"
)

type apiClient struct {
	t      *testing.T
	router http.Handler
}

func newAPI(t *testing.T, db *mongo.Database, opts ...func(*AppConfig)) apiClient {
	t.Helper()
	ctx, cancel := testutil.TestContext()
	defer cancel()

	appCfg := AppConfig{
		AccessTokenSecret:  "e2e-access",
		RefreshTokenSecret: "e2e-refresh",
		AuditLogAuth:       "db",
		AuditLogProject:    "db",
		BaseURL:            "http://basecamp.test",
	}
	for _, opt := range opts {
		opt(&appCfg)
	}
	deps := DBDeps{MongoClient: db.Client(), MongoDatabase: db}
	if err := EnsureSchema(ctx, nil, appCfg, deps, testLogger()); err != nil {
		t.Fatalf("EnsureSchema failed: %v", err)
	}

	h, err := buildRouter(nil, appCfg, deps, &testutil.MailRecorder{}, testLogger())
	if err != nil {
		t.Fatalf("buildRouter failed: %v", err)
	}
	return apiClient{t: t, router: h}
}

func (c apiClient) do(method, path, bearer string, body any) *httptest.ResponseRecorder {
	req := testutil.NewJSONRequest(method, path, body)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	c.router.ServeHTTP(rec, req)
	return rec
}

// signUp registers and logs in, returning the user and its access token.
func (c apiClient) signUp(username, email string) (models.User, string) {
	c.t.Helper()
	rec := c.do(http.MethodPost, "/api/v1/users/register", "", map[string]string{
		"username": username,
		"email":    email,
		"password": "password123",
	})
	testutil.AssertStatus(c.t, rec, http.StatusCreated)

	rec = c.do(http.MethodPost, "/api/v1/users/login", "", map[string]string{
		"email":    email,
		"password": "password123",
	})
	testutil.AssertStatus(c.t, rec, http.StatusOK)
	var out struct {
		User        models.User `json:"user"`
		AccessToken string      `json:"accessToken"`
	}
	testutil.DecodeEnvelope(c.t, rec, &out)
	if out.AccessToken == "" {
		c.t.Fatalf("login for %s returned no access token", email)
	}
	return out.User, out.AccessToken
}

func TestMembershipLifecycle(t *testing.T) {
	db := testutil.SetupTestDB(t)
	api := newAPI(t, db)

	_, aliceToken := api.signUp("alice", "alice@example.com")
	bob, bobToken := api.signUp("bob", "bob@example.com")

	rec := api.do(http.MethodPost, "/api/v1/projects", aliceToken, map[string]string{"name": "Apollo"})
	testutil.AssertStatus(t, rec, http.StatusCreated)
	var project struct {
		ID string `json:"_id"`
	}
	testutil.DecodeEnvelope(t, rec, &project)
	notesPath := "/api/v1/notes/" + project.ID

	// Not yet a member.
	rec = api.do(http.MethodGet, notesPath, bobToken, nil)
	testutil.AssertStatus(t, rec, http.StatusForbidden)

	rec = api.do(http.MethodPost, "/api/v1/projects/"+project.ID+"/members", aliceToken,
		map[string]string{"email": "bob@example.com", "role": models.MemberRoleMember})
	testutil.AssertStatus(t, rec, http.StatusOK)

	rec = api.do(http.MethodGet, notesPath, bobToken, nil)
	testutil.AssertStatus(t, rec, http.StatusOK)

	rec = api.do(http.MethodPost, notesPath, bobToken, map[string]string{"content": "from bob"})
	testutil.AssertStatus(t, rec, http.StatusForbidden)

	rec = api.do(http.MethodPost, notesPath, aliceToken, map[string]string{"content": "kickoff notes"})
	testutil.AssertStatus(t, rec, http.StatusCreated)

	rec = api.do(http.MethodGet, notesPath, bobToken, nil)
	testutil.AssertStatus(t, rec, http.StatusOK)
	var notes []models.Note
	testutil.DecodeEnvelope(t, rec, &notes)
	if len(notes) != 1 || notes[0].Content != "kickoff notes" {
		t.Fatalf("expected bob to read alice's note, got %+v", notes)
	}

	rec = api.do(http.MethodDelete, "/api/v1/projects/"+project.ID+"/members/"+bob.ID.Hex(), aliceToken, nil)
	testutil.AssertStatus(t, rec, http.StatusOK)

	rec = api.do(http.MethodGet, notesPath, bobToken, nil)
	testutil.AssertStatus(t, rec, http.StatusForbidden)
}

func TestBuildRouter_Health(t *testing.T) {
	db := testutil.SetupTestDB(t)
	api := newAPI(t, db)

	for _, path := range []string{"/api/v1/health", "/api/v1/healthcheck"} {
		rec := api.do(http.MethodGet, path, "", nil)
		testutil.AssertStatus(t, rec, http.StatusOK)
		if rec.Header().Get("Content-Type") == "" {
			t.Errorf("%s: expected a content type", path)
		}
	}
}

func TestBuildRouter_Unauthenticated(t *testing.T) {
	db := testutil.SetupTestDB(t)
	api := newAPI(t, db)

	for _, path := range []string{"/api/v1/projects", "/api/v1/users/me", "/api/v1/admin/users"} {
		rec := api.do(http.MethodGet, path, "", nil)
		testutil.AssertStatus(t, rec, http.StatusUnauthorized)
	}
}

func TestBuildRouter_BodyLimit(t *testing.T) {
	db := testutil.SetupTestDB(t)
	api := newAPI(t, db)

	rec := api.do(http.MethodPost, "/api/v1/users/register", "", map[string]string{
		"username": "big",
		"email":    "big@example.com",
		"password": "password123",
		"fullName": strings.Repeat("x", maxBodyBytes),
	})
	testutil.AssertStatus(t, rec, http.StatusRequestEntityTooLarge)
}

// failedLogins sends one bad login per email, each claiming a different
// forwarded address, and returns the status codes.
func (c apiClient) failedLogins(emails ...string) []int {
	var codes []int
	for i, email := range emails {
		req := testutil.NewJSONRequest(http.MethodPost, "/api/v1/users/login", map[string]string{
			"email":    email,
			"password": "wrong-password",
		})
		req.RemoteAddr = "203.0.113.7:40000"
		req.Header.Set("X-Forwarded-For", fmt.Sprintf("10.0.0.%d", i+1))
		rec := httptest.NewRecorder()
		c.router.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	return codes
}

func TestBuildRouter_LoginLimitIgnoresForwardedFor(t *testing.T) {
	db := testutil.SetupTestDB(t)
	api := newAPI(t, db, func(c *AppConfig) { c.LoginRateLimit = 2 })

	codes := api.failedLogins("a@example.com", "b@example.com", "c@example.com")
	want := []int{http.StatusBadRequest, http.StatusBadRequest, http.StatusTooManyRequests}
	for i := range want {
		if codes[i] != want[i] {
			t.Errorf("attempt %d: got %d, want %d", i+1, codes[i], want[i])
		}
	}
}

func TestBuildRouter_TrustProxyHeaders(t *testing.T) {
	db := testutil.SetupTestDB(t)
	api := newAPI(t, db, func(c *AppConfig) {
		c.LoginRateLimit = 2
		c.TrustProxyHeaders = true
	})

	for i, code := range api.failedLogins("a@example.com", "b@example.com", "c@example.com") {
		if code != http.StatusBadRequest {
			t.Errorf("attempt %d: got %d, want %d", i+1, code, http.StatusBadRequest)
		}
	}
}
