package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/harentsoaR/medico-api/internal/apperr"
	"github.com/harentsoaR/medico-api/internal/models"
	"github.com/harentsoaR/medico-api/internal/response"
	"github.com/harentsoaR/medico-api/internal/services"
	"github.com/harentsoaR/medico-api/internal/store"
	"github.com/harentsoaR/medico-api/internal/utils"
)

// Context keys set by the gates.
const (
	KeyUser             = "user"
	KeyHospital         = "hospital"
	KeyClinic           = "clinic"
	KeyConsultant       = "consultant"
	KeyDoctor           = "doctor"
	KeyOrganization     = "organization"
	KeyOrganizationType = "organizationType"
	KeyUserType         = "userType"
	KeyClaims           = "claims"
)

const (
	msgNoToken      = "No token provided"
	msgInvalidToken = "Invalid or expired token"
	msgGone         = "Account no longer exists"
)

// Gate describes how one role is authenticated: where its token lives, how
// the actor is loaded and where it is stored on the request.
type Gate struct {
	Role       models.Role
	Cookie     string
	ContextKey string
	Lookup     func(ctx context.Context, id primitive.ObjectID) (models.Actor, error)
}

// GateFor builds the gate for a repository's role.
func GateFor[T models.Actor](repo store.ActorRepository[T], contextKey string) Gate {
	return Gate{
		Role:       repo.Role(),
		Cookie:     repo.Role().CookieName(),
		ContextKey: contextKey,
		Lookup: func(ctx context.Context, id primitive.ObjectID) (models.Actor, error) {
			return repo.FindByID(ctx, id)
		},
	}
}

type Gates struct {
	User       Gate
	Hospital   Gate
	Clinic     Gate
	Consultant Gate
	Doctor     Gate
}

func NewGates(repos *store.Repositories) Gates {
	return Gates{
		User:       GateFor(repos.Users, KeyUser),
		Hospital:   GateFor(repos.Hospitals, KeyHospital),
		Clinic:     GateFor(repos.Clinics, KeyClinic),
		Consultant: GateFor(repos.Consultants, KeyConsultant),
		Doctor:     GateFor[*models.Doctor](repos.Doctors, KeyDoctor),
	}
}

// All returns every gate in resolver priority order.
func (g Gates) All() []Gate {
	return []Gate{g.Clinic, g.Consultant, g.User, g.Hospital, g.Doctor}
}

// Participants are the gates that may read or update a single appointment.
func (g Gates) Participants() []Gate {
	return []Gate{g.Clinic, g.Consultant, g.User}
}

type Authenticator struct {
	tokens  *utils.TokenIssuer
	revoked services.Revocations
}

func NewAuthenticator(tokens *utils.TokenIssuer, revoked services.Revocations) *Authenticator {
	return &Authenticator{tokens: tokens, revoked: revoked}
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if len(header) > 7 && strings.EqualFold(header[:7], "Bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return ""
}

func cookieToken(c *gin.Context, g Gate) string {
	token, err := c.Cookie(g.Cookie)
	if err != nil {
		return ""
	}
	return token
}

// authorize checks verified claims against gate and loads the actor.
func (a *Authenticator) authorize(ctx context.Context, claims *utils.Claims, g Gate) (models.Actor, error) {
	if claims.Role != g.Role {
		return nil, apperr.Unauthenticated(msgInvalidToken)
	}
	if a.revoked != nil {
		revoked, err := a.revoked.IsRevoked(ctx, claims.ID)
		if err != nil {
			return nil, apperr.Internal("Failed to check token", err)
		}
		if revoked {
			return nil, apperr.Unauthenticated(msgInvalidToken)
		}
	}

	id, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		return nil, apperr.Unauthenticated(msgInvalidToken)
	}
	actor, err := g.Lookup(ctx, id)
	if apperr.Is(err, apperr.TypeNotFound) {
		return nil, apperr.Unauthenticated(msgGone)
	}
	if err != nil {
		return nil, err
	}
	return actor, nil
}

func (a *Authenticator) check(ctx context.Context, token string, g Gate) (models.Actor, *utils.Claims, error) {
	claims, err := a.tokens.Verify(token)
	if err != nil {
		return nil, nil, apperr.Unauthenticated(msgInvalidToken)
	}
	actor, err := a.authorize(ctx, claims, g)
	if err != nil {
		return nil, nil, err
	}
	return actor, claims, nil
}

// checkBearer verifies the Authorization header and picks the gate matching
// the token's role.
func (a *Authenticator) checkBearer(ctx context.Context, token string, gates []Gate) (models.Actor, *utils.Claims, Gate, error) {
	claims, err := a.tokens.Verify(token)
	if err != nil {
		return nil, nil, Gate{}, apperr.Unauthenticated(msgInvalidToken)
	}
	for _, g := range gates {
		if g.Role != claims.Role {
			continue
		}
		actor, err := a.authorize(ctx, claims, g)
		return actor, claims, g, err
	}
	return nil, nil, Gate{}, apperr.Unauthenticated(msgInvalidToken)
}

func attach(c *gin.Context, g Gate, actor models.Actor, claims *utils.Claims) {
	c.Set(g.ContextKey, actor)
	c.Set(KeyClaims, claims)
}

// Authenticate admits requests carrying a valid token for the gate's role,
// read from its cookie or else from a bearer header.
func (a *Authenticator) Authenticate(g Gate) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := cookieToken(c, g)
		if token == "" {
			token = bearerToken(c)
		}
		if token == "" {
			response.Abort(c, apperr.Unauthenticated(msgNoToken))
			return
		}

		actor, claims, err := a.check(c.Request.Context(), token, g)
		if err != nil {
			response.Abort(c, err)
			return
		}
		attach(c, g, actor, claims)
		c.Next()
	}
}

// AuthenticateOrganization admits a hospital or a clinic. The hospital cookie
// is tried first; the clinic cookie only when that is absent or invalid.
func (a *Authenticator) AuthenticateOrganization(hospital, clinic Gate) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		sawToken := false
		var lastErr error

		for _, g := range []Gate{hospital, clinic} {
			token := cookieToken(c, g)
			if token == "" {
				continue
			}
			sawToken = true
			actor, claims, err := a.check(ctx, token, g)
			if err != nil {
				lastErr = err
				continue
			}
			attachOrganization(c, g, actor, claims)
			c.Next()
			return
		}

		if token := bearerToken(c); token != "" {
			sawToken = true
			actor, claims, g, err := a.checkBearer(ctx, token, []Gate{hospital, clinic})
			if err == nil {
				attachOrganization(c, g, actor, claims)
				c.Next()
				return
			}
			lastErr = err
		}

		switch {
		case !sawToken:
			response.Abort(c, apperr.Unauthenticated(msgNoToken))
		case lastErr != nil && !apperr.Is(lastErr, apperr.TypeUnauthenticated):
			response.Abort(c, lastErr)
		default:
			response.Abort(c, apperr.Unauthenticated("Not authorized as hospital or clinic"))
		}
	}
}

func attachOrganization(c *gin.Context, g Gate, actor models.Actor, claims *utils.Claims) {
	attach(c, g, actor, claims)
	c.Set(KeyOrganization, actor)
	c.Set(KeyOrganizationType, string(g.Role))
}

// ResolveAny admits whichever of the gates' roles is logged in. Cookies are
// checked in gate order and the first one present decides: an invalid token
// there fails the request without trying the rest. With no cookie, a bearer
// token is matched to the gate of its role.
func (a *Authenticator) ResolveAny(gates ...Gate) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		for _, g := range gates {
			token := cookieToken(c, g)
			if token == "" {
				continue
			}
			actor, claims, err := a.check(ctx, token, g)
			if err != nil {
				response.Abort(c, err)
				return
			}
			attachResolved(c, g, actor, claims)
			c.Next()
			return
		}

		token := bearerToken(c)
		if token == "" {
			response.Abort(c, apperr.Unauthenticated(msgNoToken))
			return
		}
		actor, claims, g, err := a.checkBearer(ctx, token, gates)
		if err != nil {
			response.Abort(c, err)
			return
		}
		attachResolved(c, g, actor, claims)
		c.Next()
	}
}

func attachResolved(c *gin.Context, g Gate, actor models.Actor, claims *utils.Claims) {
	c.Set(KeyUser, actor)
	c.Set(KeyUserType, string(g.Role))
	c.Set(KeyClaims, claims)
}

// Actor returns the actor stored under key, typed.
func Actor[T models.Actor](c *gin.Context, key string) (T, bool) {
	v, ok := c.Get(key)
	if !ok {
		var zero T
		return zero, false
	}
	actor, ok := v.(T)
	return actor, ok
}

// ResolvedActor returns the actor and role attached by ResolveAny.
func ResolvedActor(c *gin.Context) (models.Actor, models.Role, bool) {
	actor, ok := Actor[models.Actor](c, KeyUser)
	if !ok {
		return nil, "", false
	}
	return actor, models.Role(c.GetString(KeyUserType)), true
}

// Organization returns the hospital or clinic attached by AuthenticateOrganization.
func Organization(c *gin.Context) (models.Actor, bool) {
	return Actor[models.Actor](c, KeyOrganization)
}

// TokenClaims returns the verified claims of the current request.
func TokenClaims(c *gin.Context) (*utils.Claims, bool) {
	v, ok := c.Get(KeyClaims)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*utils.Claims)
	return claims, ok
}
