package router

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/oksasatya/go-user-service/config"
	"github.com/oksasatya/go-user-service/internal/container"
	"github.com/oksasatya/go-user-service/internal/domain/entity"
	"github.com/oksasatya/go-user-service/internal/infrastructure/memory"
	"github.com/oksasatya/go-user-service/internal/interface/middleware"
	"github.com/oksasatya/go-user-service/pkg/helpers"
	"github.com/oksasatya/go-user-service/pkg/validation"
)

type testApp struct {
	t      *testing.T
	engine *gin.Engine
	repo   *memory.UserRepository
	jwt    *helpers.JWTManager
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	gin.SetMode(gin.TestMode)
	validation.Init()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	privDER, err := x509.MarshalPKCS8PrivateKey(key)
	require.NoError(t, err)
	pubDER, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	require.NoError(t, err)
	jwtm, err := helpers.NewJWTManager("RS256",
		pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: privDER}),
		pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubDER}),
		"user-service", time.Hour)
	require.NoError(t, err)
	hasher, err := helpers.NewPasswordHasher(bcrypt.MinCost)
	require.NoError(t, err)

	repo := memory.NewUserRepository()
	container.SetConfig(&config.Config{ESUsersIndex: "users", DebugMetricsEnabled: true})
	container.SetLogger(helpers.NewNopLogger())
	container.SetUserRepo(repo)
	container.SetHasher(hasher)
	container.SetJWT(jwtm)

	r := gin.New()
	r.Use(middleware.RequestID())
	reg := NewRegistry(r, "")
	InitModules(reg)
	reg.RegisterAll()
	t.Cleanup(reg.Close)

	return &testApp{t: t, engine: r, repo: repo, jwt: jwtm}
}

func (a *testApp) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	a.engine.ServeHTTP(w, req)
	return w
}

func (a *testApp) json(method, path, token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return a.do(req)
}

func (a *testApp) login(username, password string) *httptest.ResponseRecorder {
	form := url.Values{}
	if username != "" {
		form.Set("username", username)
	}
	if password != "" {
		form.Set("password", password)
	}
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return a.do(req)
}

func (a *testApp) register(email, password string) *httptest.ResponseRecorder {
	return a.json(http.MethodPost, "/register", "", `{"email":"`+email+`","password":"`+password+`"}`)
}

func (a *testApp) token(email, password string) string {
	a.t.Helper()
	w := a.login(email, password)
	require.Equal(a.t, http.StatusOK, w.Code, w.Body.String())
	var body struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
	}
	require.NoError(a.t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(a.t, "bearer", body.TokenType)
	return body.AccessToken
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestRegisterLoginFlow(t *testing.T) {
	app := newTestApp(t)

	w := app.register("King.Arthur@Camelot.bt", "guinevere1")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	user := decode(t, w)
	assert.Equal(t, "king.arthur@camelot.bt", user["email"])
	assert.Equal(t, true, user["is_active"])
	assert.Equal(t, false, user["is_superuser"])
	assert.Equal(t, false, user["is_verified"])
	assert.NotContains(t, w.Body.String(), "hashed_password")

	token := app.token("king.arthur@camelot.bt", "guinevere1")
	assert.Len(t, strings.Split(token, "."), 3)
	claims, err := app.jwt.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, user["id"], claims.Subject)

	w = app.json(http.MethodGet, "/users/me", token, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, user["id"], decode(t, w)["id"])
}

func TestRegisterErrors(t *testing.T) {
	app := newTestApp(t)
	require.Equal(t, http.StatusCreated, app.register("lancelot@camelot.bt", "guinevere1").Code)

	w := app.register("LANCELOT@camelot.bt", "guinevere2")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"detail":"REGISTER_USER_ALREADY_EXISTS"}`, w.Body.String())

	w = app.register("gawain@camelot.bt", "abcdefgh")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"detail":{"error_code":"REGISTER_INVALID_PASSWORD","message":"Password must contain at least 1 number."}}`, w.Body.String())

	w = app.register("gawain@camelot.bt", strings.Repeat("a1", 40))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"detail":{"error_code":"REGISTER_INVALID_PASSWORD","message":"Password must be at most 72 bytes long."}}`, w.Body.String())

	w = app.register("gawain@camelot.bt", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"detail":{"error_code":"REGISTER_INVALID_PASSWORD","message":"Password must be at least 8 characters long."}}`, w.Body.String())

	w = app.json(http.MethodPost, "/register", "", `{"email":"gawain@camelot.bt"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, decode(t, w)["detail"], "password")

	w = app.register("not-an-email", "guinevere1")
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, decode(t, w)["detail"], "email")

	w = app.json(http.MethodPost, "/register", "", `{"email":`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestLoginErrors(t *testing.T) {
	app := newTestApp(t)
	require.Equal(t, http.StatusCreated, app.register("percival@camelot.bt", "holygrail1").Code)
	badCreds := `{"detail":"LOGIN_BAD_CREDENTIALS"}`

	w := app.login("percival@camelot.bt", "holygrail2")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, badCreds, w.Body.String())

	w = app.login("nobody@camelot.bt", "holygrail1")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, badCreds, w.Body.String())

	w = app.login("percival@camelot.bt", "")
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, decode(t, w)["detail"], "password")

	// deactivated accounts look exactly like bad credentials
	u, err := app.repo.GetByEmail(t.Context(), "percival@camelot.bt")
	require.NoError(t, err)
	no := false
	_, err = app.repo.Update(t.Context(), u, entity.UserChanges{IsActive: &no})
	require.NoError(t, err)
	w = app.login("percival@camelot.bt", "holygrail1")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, badCreds, w.Body.String())
}

func TestUpdateMe(t *testing.T) {
	app := newTestApp(t)
	require.Equal(t, http.StatusCreated, app.register("tristan@camelot.bt", "isolde1234").Code)
	require.Equal(t, http.StatusCreated, app.register("mark@camelot.bt", "cornwall12").Code)
	token := app.token("tristan@camelot.bt", "isolde1234")

	w := app.json(http.MethodPatch, "/users/me", token, `{"password":"isolde1234"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "UPDATE_USER_INVALID_PASSWORD", decode(t, w)["detail"].(map[string]any)["error_code"])

	w = app.json(http.MethodPatch, "/users/me", token, `{"password":"`+strings.Repeat("a1", 40)+`"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"detail":{"error_code":"UPDATE_USER_INVALID_PASSWORD","message":"Password must be at most 72 bytes long."}}`, w.Body.String())

	w = app.json(http.MethodPatch, "/users/me", token, `{"email":"mark@camelot.bt"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"detail":"UPDATE_USER_EMAIL_ALREADY_EXISTS"}`, w.Body.String())

	w = app.json(http.MethodPatch, "/users/me", token, `{"is_superuser":true,"password":"isolde5678"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, false, decode(t, w)["is_superuser"])

	assert.Equal(t, http.StatusBadRequest, app.login("tristan@camelot.bt", "isolde1234").Code)
	app.token("tristan@camelot.bt", "isolde5678")
}

func TestProtectedRoutes(t *testing.T) {
	app := newTestApp(t)
	require.Equal(t, http.StatusCreated, app.register("kay@camelot.bt", "seneschal1").Code)
	token := app.token("kay@camelot.bt", "seneschal1")

	w := app.json(http.MethodGet, "/users/me", "", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Bearer", w.Header().Get("WWW-Authenticate"))

	w = app.json(http.MethodGet, "/users/me", "forged.token.value", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = app.json(http.MethodGet, "/users/search?q=kay", token, "")
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.JSONEq(t, `{"detail":"Forbidden"}`, w.Body.String())

	w = app.json(http.MethodPost, "/logout", token, "")
	assert.Equal(t, http.StatusNotImplemented, w.Code)
	assert.Contains(t, w.Body.String(), "not supported")

	// the token outlives logout, it only dies with its user
	assert.Equal(t, http.StatusOK, app.json(http.MethodGet, "/users/me", token, "").Code)
	assert.Equal(t, http.StatusNoContent, app.json(http.MethodDelete, "/users/me", token, "").Code)
	assert.Equal(t, http.StatusUnauthorized, app.json(http.MethodGet, "/users/me", token, "").Code)
}

func TestSuperuserAdministration(t *testing.T) {
	app := newTestApp(t)
	require.Equal(t, http.StatusCreated, app.register("merlin@camelot.bt", "avalon1234").Code)
	w := app.register("gareth@camelot.bt", "kitchen123")
	require.Equal(t, http.StatusCreated, w.Code)
	garethID := decode(t, w)["id"].(string)

	merlin, err := app.repo.GetByEmail(t.Context(), "merlin@camelot.bt")
	require.NoError(t, err)
	yes := true
	_, err = app.repo.Update(t.Context(), merlin, entity.UserChanges{IsSuperuser: &yes})
	require.NoError(t, err)
	admin := app.token("merlin@camelot.bt", "avalon1234")

	w = app.json(http.MethodGet, "/users/"+garethID, admin, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "gareth@camelot.bt", decode(t, w)["email"])

	w = app.json(http.MethodPatch, "/users/"+garethID, admin, `{"is_verified":true,"is_active":false}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decode(t, w)
	assert.Equal(t, true, body["is_verified"])
	assert.Equal(t, false, body["is_active"])

	assert.Equal(t, http.StatusNotFound, app.json(http.MethodGet, "/users/not-a-uuid", admin, "").Code)
	assert.Equal(t, http.StatusNotFound, app.json(http.MethodGet, "/users/00000000-0000-0000-0000-000000000001", admin, "").Code)

	// search is unavailable without an Elasticsearch client
	assert.Equal(t, http.StatusServiceUnavailable, app.json(http.MethodGet, "/users/search?q=gareth", admin, "").Code)
	assert.Equal(t, http.StatusUnprocessableEntity, app.json(http.MethodGet, "/users/search", admin, "").Code)

	assert.Equal(t, http.StatusNoContent, app.json(http.MethodDelete, "/users/"+garethID, admin, "").Code)
	assert.Equal(t, http.StatusNotFound, app.json(http.MethodDelete, "/users/"+garethID, admin, "").Code)
}

func TestDebugVars(t *testing.T) {
	app := newTestApp(t)
	require.Equal(t, http.StatusCreated, app.register("dagonet@camelot.bt", "jester1234").Code)

	w := app.json(http.MethodGet, "/debug/vars", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	vars := decode(t, w)
	assert.Contains(t, vars, "auth_registrations")
	assert.Contains(t, vars, "auth_logins")
	assert.Contains(t, vars, "auth_login_failures")
}

func TestRegistry_CloseRunsInReverse(t *testing.T) {
	reg := NewRegistry(gin.New(), "")
	var order []int
	reg.OnClose(func() { order = append(order, 1) })
	reg.OnClose(func() { order = append(order, 2) })

	reg.Close()
	reg.Close()
	assert.Equal(t, []int{2, 1}, order)
}
