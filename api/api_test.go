package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	goSeal "github.com/MrEthical07/goSeal"
	"github.com/MrEthical07/goSeal/store"
)

var (
	testAuthKey    = []byte("api-test-auth-key-0123456789abcdef")
	testContentKey = []byte("api-test-content-key-0123456789abcd")
)

type testServer struct {
	handler http.Handler
	engine  *goSeal.Engine
	posts   *store.Posts
}

func newTestServer(t *testing.T, mutate func(*goSeal.Config, *goSeal.Builder)) *testServer {
	t.Helper()

	cfg := goSeal.DefaultConfig()
	cfg.Token.AuthKey = testAuthKey
	cfg.Token.ContentKey = testContentKey
	cfg.Password.Memory = 8 * 1024
	cfg.Password.Time = 1
	cfg.Password.Parallelism = 1

	b := goSeal.New().WithPrincipalStore(store.NewMemoryPrincipals())
	if mutate != nil {
		mutate(&cfg, b)
	}
	engine, err := b.WithConfig(cfg).Build()
	require.NoError(t, err)
	t.Cleanup(engine.Close)

	posts := store.NewPosts(nil)
	return &testServer{
		handler: NewRouter(Deps{
			Engine:       engine,
			Posts:        posts,
			Logger:       zap.NewNop(),
			MaxBodyBytes: 4096,
		}),
		engine: engine,
		posts:  posts,
	}
}

func (s *testServer) do(t *testing.T, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.handler.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(bytes.NewReader(w.Body.Bytes())).Decode(&v), w.Body.String())
	return v
}

type errorBody struct {
	Error   string                     `json:"error"`
	Message string                     `json:"message"`
	Details map[string]json.RawMessage `json:"details"`
}

func (s *testServer) registerAndLogin(t *testing.T, username string) (goSeal.Principal, string) {
	t.Helper()
	w := s.do(t, http.MethodPost, "/auth/register", "",
		`{"username":"`+username+`","email":"`+username+`@example.com","password":"correct horse battery"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	principal := decode[goSeal.Principal](t, w)

	w = s.do(t, http.MethodPost, "/auth/login", "",
		`{"username":"`+username+`","password":"correct horse battery"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	tok := decode[tokenResponse](t, w)
	require.Equal(t, "Bearer", tok.TokenType)
	return principal, tok.Token
}

func (s *testServer) signContent(t *testing.T, token, body string) string {
	t.Helper()
	w := s.do(t, http.MethodPost, "/auth/sign-content", token, body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	return decode[tokenResponse](t, w).Token
}

func TestHealthAndSecurityReport(t *testing.T) {
	s := newTestServer(t, nil)

	w := s.do(t, http.MethodGet, "/healthz", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "healthy", decode[map[string]string](t, w)["status"])

	w = s.do(t, http.MethodGet, "/security", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	report := decode[map[string]any](t, w)
	assert.Equal(t, false, report["replay_protection"])
	assert.Equal(t, true, report["order_sensitive_payload"])
	assert.NotContains(t, w.Body.String(), string(testAuthKey))
}

func TestRegisterValidation(t *testing.T) {
	s := newTestServer(t, nil)

	w := s.do(t, http.MethodPost, "/auth/register", "", `{"username":"a!","email":"nope","password":"x"}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	body := decode[errorBody](t, w)
	assert.Equal(t, "invalid_request", body.Error)
	assert.Contains(t, body.Details, "Username")
	assert.Contains(t, body.Details, "Email")

	w = s.do(t, http.MethodPost, "/auth/register", "", `{"username":`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid_json", decode[errorBody](t, w).Error)

	w = s.do(t, http.MethodPost, "/auth/register", "", `{"username":"alice","email":"a@example.com","password":"short"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "password_policy", decode[errorBody](t, w).Error)
}

func TestRegisterDuplicate(t *testing.T) {
	s := newTestServer(t, nil)
	s.registerAndLogin(t, "alice")

	w := s.do(t, http.MethodPost, "/auth/register", "",
		`{"username":"alice","email":"other@example.com","password":"correct horse battery"}`)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "principal_exists", decode[errorBody](t, w).Error)
}

func TestLoginInvalidCredentials(t *testing.T) {
	s := newTestServer(t, nil)
	s.registerAndLogin(t, "alice")

	w := s.do(t, http.MethodPost, "/auth/login", "", `{"username":"alice","password":"wrong password"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "invalid_credentials", decode[errorBody](t, w).Error)
	assert.NotEmpty(t, w.Header().Get("WWW-Authenticate"))

	w = s.do(t, http.MethodPost, "/auth/login", "", `{"username":"nobody","password":"whatever123"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "invalid_credentials", decode[errorBody](t, w).Error)
}

func TestUsersRequireBearer(t *testing.T) {
	s := newTestServer(t, nil)
	alice, token := s.registerAndLogin(t, "alice")

	w := s.do(t, http.MethodGet, "/users", "", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "missing_token", decode[errorBody](t, w).Error)

	w = s.do(t, http.MethodGet, "/users", "not.a.jwt", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(t, http.MethodGet, "/users", token, "")
	require.Equal(t, http.StatusOK, w.Code)
	users := decode[[]goSeal.Principal](t, w)
	require.Len(t, users, 1)
	assert.Equal(t, alice.ID, users[0].ID)

	w = s.do(t, http.MethodGet, "/users/"+alice.ID, token, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "alice", decode[goSeal.Principal](t, w).Username)
	assert.NotContains(t, w.Body.String(), "argon2id")

	w = s.do(t, http.MethodGet, "/users/missing", token, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "principal_not_found", decode[errorBody](t, w).Error)
}

func TestContentIntegrityScenario(t *testing.T) {
	s := newTestServer(t, nil)
	alice, token := s.registerAndLogin(t, "alice")

	signed := `{"title":"A","content":"B"}`
	bound := s.signContent(t, token, signed)

	w := s.do(t, http.MethodPost, "/posts", bound, signed)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	post := decode[store.Post](t, w)
	assert.Equal(t, alice.ID, post.AuthorID)
	assert.Equal(t, "A", post.Title)

	// No replay protection: the same bound token is accepted again.
	w = s.do(t, http.MethodPost, "/posts", bound, signed)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Len(t, s.posts.List(), 2)

	w = s.do(t, http.MethodPost, "/posts", bound, `{"title":"A","content":"C"}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	body := decode[errorBody](t, w)
	assert.Equal(t, "payload_mismatch", body.Error)
	assert.JSONEq(t, `{"title":"A","content":"C"}`, string(body.Details["submitted"]))
	assert.JSONEq(t, signed, string(body.Details["signed"]))
	assert.Len(t, s.posts.List(), 2)
}

func TestReorderedBodyIsRejected(t *testing.T) {
	s := newTestServer(t, nil)
	_, token := s.registerAndLogin(t, "alice")

	bound := s.signContent(t, token, `{"title":"A","content":"B"}`)
	w := s.do(t, http.MethodPost, "/posts", bound, `{"content":"B","title":"A"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "payload_mismatch", decode[errorBody](t, w).Error)
}

func TestWhitespaceDifferencesAreAccepted(t *testing.T) {
	s := newTestServer(t, nil)
	_, token := s.registerAndLogin(t, "alice")

	bound := s.signContent(t, token, `{"title":"A","content":"B"}`)
	w := s.do(t, http.MethodPost, "/posts", bound, "{ \"title\": \"A\",\n  \"content\": \"B\" }")
	assert.Equal(t, http.StatusCreated, w.Code, w.Body.String())
}

func TestPlainTokenOnMutation(t *testing.T) {
	s := newTestServer(t, nil)
	_, token := s.registerAndLogin(t, "alice")

	w := s.do(t, http.MethodPost, "/posts", token, `{"title":"A","content":"B"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "missing_content_signature", decode[errorBody](t, w).Error)
}

func TestTamperedTokenOnMutation(t *testing.T) {
	s := newTestServer(t, nil)
	_, token := s.registerAndLogin(t, "alice")
	bound := s.signContent(t, token, `{"title":"A","content":"B"}`)

	parts := strings.Split(bound, ".")
	sig := []byte(parts[2])
	if sig[0] == 'A' {
		sig[0] = 'B'
	} else {
		sig[0] = 'A'
	}
	tampered := parts[0] + "." + parts[1] + "." + string(sig)

	w := s.do(t, http.MethodPost, "/posts", tampered, `{"title":"A","content":"C"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "invalid_token_signature", decode[errorBody](t, w).Error)
}

func TestSignContentErrors(t *testing.T) {
	s := newTestServer(t, nil)
	_, token := s.registerAndLogin(t, "alice")

	w := s.do(t, http.MethodPost, "/auth/sign-content", "", `{"title":"A"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(t, http.MethodPost, "/auth/sign-content", token, `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "empty_content", decode[errorBody](t, w).Error)

	w = s.do(t, http.MethodPost, "/auth/sign-content", token, `{"title":`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "serialization_error", decode[errorBody](t, w).Error)

	w = s.do(t, http.MethodPost, "/auth/sign-content", token, `{"title":"`+strings.Repeat("x", 5000)+`"}`)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestUpdatePost(t *testing.T) {
	s := newTestServer(t, nil)
	_, aliceToken := s.registerAndLogin(t, "alice")
	_, bobToken := s.registerAndLogin(t, "bob")

	created := `{"title":"A","content":"B"}`
	w := s.do(t, http.MethodPost, "/posts", s.signContent(t, aliceToken, created), created)
	require.Equal(t, http.StatusCreated, w.Code)
	post := decode[store.Post](t, w)

	edit := `{"title":"A2","content":"B2"}`

	w = s.do(t, http.MethodPut, "/posts/"+post.ID, s.signContent(t, bobToken, edit), edit)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "forbidden", decode[errorBody](t, w).Error)

	w = s.do(t, http.MethodPut, "/posts/missing", s.signContent(t, aliceToken, edit), edit)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(t, http.MethodPut, "/posts/"+post.ID, s.signContent(t, aliceToken, edit), edit)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "A2", decode[store.Post](t, w).Title)

	w = s.do(t, http.MethodGet, "/posts/"+post.ID, "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "B2", decode[store.Post](t, w).Content)
}

func TestCreatePostValidation(t *testing.T) {
	s := newTestServer(t, nil)
	_, token := s.registerAndLogin(t, "alice")

	body := `{"title":"","content":"B"}`
	w := s.do(t, http.MethodPost, "/posts", s.signContent(t, token, body), body)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid_request", decode[errorBody](t, w).Error)

	body = `{"title":"A","content":"B","extra":1}`
	w = s.do(t, http.MethodPost, "/posts", s.signContent(t, token, body), body)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid_json", decode[errorBody](t, w).Error)
}

func TestPublicPostRoutes(t *testing.T) {
	s := newTestServer(t, nil)

	w := s.do(t, http.MethodGet, "/posts", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())

	w = s.do(t, http.MethodGet, "/posts/missing", "", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(t, http.MethodGet, "/nowhere", "", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "not_found", decode[errorBody](t, w).Error)
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t, nil)
	_, token := s.registerAndLogin(t, "alice")
	_ = s.do(t, http.MethodGet, "/users", token, "")

	w := s.do(t, http.MethodGet, "/metrics", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/plain")
	assert.Contains(t, w.Body.String(), "goseal_login_success_total 1")
}

func TestRequestThrottle(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		_ = rdb.Close()
		mr.Close()
	})

	s := newTestServer(t, func(c *goSeal.Config, b *goSeal.Builder) {
		c.RateLimit.Enabled = true
		c.RateLimit.MaxRequests = 2
		c.RateLimit.RequestWindow = time.Minute
		b.WithRedis(rdb)
	})

	for i := 0; i < 2; i++ {
		w := s.do(t, http.MethodGet, "/posts", "", "")
		require.Equal(t, http.StatusOK, w.Code)
	}
	w := s.do(t, http.MethodGet, "/posts", "", "")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "rate_limited", decode[errorBody](t, w).Error)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))

	// Health and metrics are outside the throttle.
	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/healthz", "", "").Code)

	// Redis outage fails open.
	mr.Close()
	w = s.do(t, http.MethodGet, "/posts", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
}
