package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/harentsoaR/medico-api/internal/models"
	"github.com/harentsoaR/medico-api/internal/services"
	"github.com/harentsoaR/medico-api/internal/store"
	"github.com/harentsoaR/medico-api/internal/store/memstore"
	"github.com/harentsoaR/medico-api/internal/utils"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	_ = utils.SetPasswordCost(bcrypt.MinCost)
	os.Exit(m.Run())
}

type fixture struct {
	repos   *store.Repositories
	gates   Gates
	tokens  *utils.TokenIssuer
	revoked *services.MemoryRevocations
	auth    *Authenticator
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	tokens, err := utils.NewTokenIssuer("test-secret")
	require.NoError(t, err)
	revoked := services.NewMemoryRevocations(time.Hour)
	t.Cleanup(revoked.Close)

	repos := memstore.NewRepositories()
	return &fixture{
		repos:   repos,
		gates:   NewGates(repos),
		tokens:  tokens,
		revoked: revoked,
		auth:    NewAuthenticator(tokens, revoked),
	}
}

func ptr(f float64) *float64 { return &f }

func (f *fixture) token(t *testing.T, actor models.Actor) string {
	t.Helper()
	token, err := f.tokens.Issue(actor.GetID().Hex(), actor.Role(), time.Hour)
	require.NoError(t, err)
	return token
}

func (f *fixture) user(t *testing.T) *models.User {
	t.Helper()
	u := &models.User{Base: models.Base{Email: "u@x.com"}, FirstName: "A", LastName: "B", Phone: "1"}
	require.NoError(t, f.repos.Users.Create(context.Background(), u, "secret1"))
	return u
}

func (f *fixture) consultant(t *testing.T) *models.Consultant {
	t.Helper()
	k := &models.Consultant{
		Base:       models.Base{Email: "k@x.com", Latitude: ptr(1), Longitude: ptr(1)},
		DoctorName: "Dr K", Phone: "1", State: "KA", City: "B", Address: "A", Description: "GP",
	}
	require.NoError(t, f.repos.Consultants.Create(context.Background(), k, "secret1"))
	return k
}

func org(email string) models.OrganizationProfile {
	return models.OrganizationProfile{Name: email, Phone: "1", State: "KA", City: "B", Address: "A"}
}

func (f *fixture) hospital(t *testing.T) *models.Hospital {
	t.Helper()
	h := &models.Hospital{Base: models.Base{Email: "h@x.com", Latitude: ptr(1), Longitude: ptr(1)}, OrganizationProfile: org("h")}
	require.NoError(t, f.repos.Hospitals.Create(context.Background(), h, "secret1"))
	return h
}

func (f *fixture) clinic(t *testing.T) *models.Clinic {
	t.Helper()
	c := &models.Clinic{Base: models.Base{Email: "c@x.com", Latitude: ptr(1), Longitude: ptr(1)}, OrganizationProfile: org("c")}
	require.NoError(t, f.repos.Clinics.Create(context.Background(), c, "secret1"))
	return c
}

type result struct {
	Status  int
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    struct {
		Email            string `json:"email"`
		UserType         string `json:"userType"`
		OrganizationType string `json:"organizationType"`
	} `json:"data"`
}

func serve(t *testing.T, mw gin.HandlerFunc, req *http.Request) result {
	t.Helper()
	r := gin.New()
	r.GET("/protected", mw, func(c *gin.Context) {
		data := gin.H{
			"userType":         c.GetString(KeyUserType),
			"organizationType": c.GetString(KeyOrganizationType),
		}
		for _, key := range []string{KeyUser, KeyOrganization, KeyHospital, KeyClinic, KeyConsultant, KeyDoctor} {
			if actor, ok := Actor[models.Actor](c, key); ok {
				data["email"] = actor.GetEmail()
				break
			}
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "data": data})
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var res result
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	res.Status = w.Code
	return res
}

func request(cookies map[string]string, bearer string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	for name, value := range cookies {
		req.AddCookie(&http.Cookie{Name: name, Value: value})
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	return req
}

func TestAuthenticate_CookieAndBearer(t *testing.T) {
	f := newFixture(t)
	h := f.hospital(t)
	token := f.token(t, h)
	mw := f.auth.Authenticate(f.gates.Hospital)

	res := serve(t, mw, request(map[string]string{"hospitalToken": token}, ""))
	assert.Equal(t, http.StatusOK, res.Status)
	assert.Equal(t, "h@x.com", res.Data.Email)

	res = serve(t, mw, request(nil, token))
	assert.Equal(t, http.StatusOK, res.Status)

	res = serve(t, mw, request(nil, ""))
	assert.Equal(t, http.StatusUnauthorized, res.Status)
	assert.False(t, res.Success)
	assert.Equal(t, "No token provided", res.Message)
}

func TestAuthenticate_RejectsBadTokens(t *testing.T) {
	f := newFixture(t)
	h := f.hospital(t)
	u := f.user(t)
	mw := f.auth.Authenticate(f.gates.Hospital)

	other, err := utils.NewTokenIssuer("other-secret")
	require.NoError(t, err)
	foreign, err := other.Issue(h.ID.Hex(), models.RoleHospital, time.Hour)
	require.NoError(t, err)

	past := f.tokens.WithClock(func() time.Time { return time.Now().Add(-48 * time.Hour) })
	expired, err := past.Issue(h.ID.Hex(), models.RoleHospital, time.Hour)
	require.NoError(t, err)

	cases := map[string]string{
		"garbage":      "not-a-token",
		"wrong role":   f.token(t, u),
		"other secret": foreign,
		"expired":      expired,
	}
	for name, token := range cases {
		t.Run(name, func(t *testing.T) {
			res := serve(t, mw, request(map[string]string{"hospitalToken": token}, ""))
			assert.Equal(t, http.StatusUnauthorized, res.Status)
			assert.Equal(t, "Invalid or expired token", res.Message)
		})
	}
}

func TestAuthenticate_DeletedActor(t *testing.T) {
	f := newFixture(t)
	h := f.hospital(t)
	token := f.token(t, h)
	require.NoError(t, f.repos.Hospitals.Delete(context.Background(), h.ID))

	res := serve(t, f.auth.Authenticate(f.gates.Hospital), request(map[string]string{"hospitalToken": token}, ""))
	assert.Equal(t, http.StatusUnauthorized, res.Status)
	assert.Equal(t, "Account no longer exists", res.Message)
}

func TestAuthenticate_RevokedToken(t *testing.T) {
	f := newFixture(t)
	u := f.user(t)
	token := f.token(t, u)
	mw := f.auth.Authenticate(f.gates.User)

	res := serve(t, mw, request(map[string]string{"userToken": token}, ""))
	require.Equal(t, http.StatusOK, res.Status)

	claims, err := f.tokens.Verify(token)
	require.NoError(t, err)
	require.NoError(t, f.revoked.Revoke(context.Background(), claims.ID, claims.ExpiresAt.Time))

	res = serve(t, mw, request(map[string]string{"userToken": token}, ""))
	assert.Equal(t, http.StatusUnauthorized, res.Status)
	assert.Equal(t, "Invalid or expired token", res.Message)
}

func TestAuthenticateOrganization(t *testing.T) {
	f := newFixture(t)
	h := f.hospital(t)
	c := f.clinic(t)
	mw := f.auth.AuthenticateOrganization(f.gates.Hospital, f.gates.Clinic)

	res := serve(t, mw, request(map[string]string{"hospitalToken": f.token(t, h), "clinicToken": f.token(t, c)}, ""))
	assert.Equal(t, http.StatusOK, res.Status)
	assert.Equal(t, "hospital", res.Data.OrganizationType)
	assert.Equal(t, "h@x.com", res.Data.Email)

	// An invalid hospital cookie falls back to the clinic cookie.
	res = serve(t, mw, request(map[string]string{"hospitalToken": "broken", "clinicToken": f.token(t, c)}, ""))
	assert.Equal(t, http.StatusOK, res.Status)
	assert.Equal(t, "clinic", res.Data.OrganizationType)
	assert.Equal(t, "c@x.com", res.Data.Email)

	res = serve(t, mw, request(nil, f.token(t, c)))
	assert.Equal(t, http.StatusOK, res.Status)
	assert.Equal(t, "clinic", res.Data.OrganizationType)

	res = serve(t, mw, request(map[string]string{"hospitalToken": "broken", "clinicToken": "broken"}, ""))
	assert.Equal(t, http.StatusUnauthorized, res.Status)

	res = serve(t, mw, request(nil, ""))
	assert.Equal(t, http.StatusUnauthorized, res.Status)
	assert.Equal(t, "No token provided", res.Message)
}

func TestResolveAny(t *testing.T) {
	f := newFixture(t)
	u := f.user(t)
	k := f.consultant(t)
	c := f.clinic(t)
	mw := f.auth.ResolveAny(f.gates.Clinic, f.gates.Consultant, f.gates.User)

	res := serve(t, mw, request(map[string]string{"consultantToken": f.token(t, k)}, ""))
	assert.Equal(t, http.StatusOK, res.Status)
	assert.Equal(t, "consultant", res.Data.UserType)
	assert.Equal(t, "k@x.com", res.Data.Email)

	res = serve(t, mw, request(map[string]string{"clinicToken": f.token(t, c), "userToken": f.token(t, u)}, ""))
	assert.Equal(t, http.StatusOK, res.Status)
	assert.Equal(t, "clinic", res.Data.UserType)

	// The first cookie present decides, even when a later one is valid.
	res = serve(t, mw, request(map[string]string{"clinicToken": "broken", "userToken": f.token(t, u)}, ""))
	assert.Equal(t, http.StatusUnauthorized, res.Status)
	assert.Equal(t, "Invalid or expired token", res.Message)

	res = serve(t, mw, request(nil, f.token(t, u)))
	assert.Equal(t, http.StatusOK, res.Status)
	assert.Equal(t, "user", res.Data.UserType)

	h := f.hospital(t)
	res = serve(t, mw, request(nil, f.token(t, h)))
	assert.Equal(t, http.StatusUnauthorized, res.Status)

	res = serve(t, mw, request(nil, ""))
	assert.Equal(t, http.StatusUnauthorized, res.Status)
	assert.Equal(t, "No token provided", res.Message)
}
