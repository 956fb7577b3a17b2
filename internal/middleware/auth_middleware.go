package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/yigit/aiinfocenter/internal/app/models"
	"github.com/yigit/aiinfocenter/internal/app/models/dto"
	"github.com/yigit/aiinfocenter/internal/pkg/apperrors"
	"github.com/yigit/aiinfocenter/internal/pkg/logger"
)

// Context keys set for authenticated requests
const (
	ContextUserID   = "userID"
	ContextEmail    = "email"
	ContextRoleType = "roleType"
)

// Access is the requirement attached to a path rule
type Access int

const (
	AccessPublic Access = iota
	AccessAuthenticated
	AccessStudent
	AccessAdmin
)

// Rule matches a path either exactly or by prefix. A prefix ending in "/"
// also matches the path without the trailing slash.
type Rule struct {
	Path   string
	Exact  bool
	Access Access
}

func (r Rule) matches(path string) bool {
	if r.Exact {
		return path == r.Path
	}
	if strings.HasSuffix(r.Path, "/") && path == strings.TrimSuffix(r.Path, "/") {
		return true
	}
	return strings.HasPrefix(path, r.Path)
}

// DefaultRules is the access table of the HTTP API, checked in order
var DefaultRules = []Rule{
	{Path: "/api/auth/", Access: AccessPublic},
	{Path: "/", Exact: true, Access: AccessPublic},
	{Path: "/index.html", Exact: true, Access: AccessPublic},
	{Path: "/app.js", Exact: true, Access: AccessPublic},
	{Path: "/style.css", Exact: true, Access: AccessPublic},
	{Path: "/message", Exact: true, Access: AccessPublic},
	{Path: "/health", Exact: true, Access: AccessPublic},
	{Path: "/swagger/", Access: AccessPublic},
	{Path: "/api/admin/", Access: AccessAdmin},
	{Path: "/api/student/", Access: AccessStudent},
}

// Authenticator verifies HTTP Basic credentials
type Authenticator interface {
	Authenticate(ctx context.Context, email, password string) (*models.User, error)
}

// Actor is the authenticated caller of a request
type Actor struct {
	UserID int64
	Email  string
	Role   models.Role
}

// AccessPolicy gates every request with the rule table
type AccessPolicy struct {
	rules []Rule
	auth  Authenticator
	realm string
}

// NewAccessPolicy creates an AccessPolicy. Paths matching no rule require
// authentication.
func NewAccessPolicy(rules []Rule, auth Authenticator, realm string) *AccessPolicy {
	return &AccessPolicy{rules: rules, auth: auth, realm: realm}
}

// Resolve returns the access requirement of path
func (p *AccessPolicy) Resolve(path string) Access {
	for _, rule := range p.rules {
		if rule.matches(path) {
			return rule.Access
		}
	}
	return AccessAuthenticated
}

// Handler returns the gin middleware enforcing the policy
func (p *AccessPolicy) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		access := p.Resolve(c.Request.URL.Path)
		if access == AccessPublic {
			c.Next()
			return
		}

		email, password, ok := c.Request.BasicAuth()
		if !ok {
			p.unauthorized(c, "Authorization header missing")
			return
		}

		user, err := p.auth.Authenticate(c.Request.Context(), email, password)
		if err != nil {
			if apperrors.IsInvalidArgument(err) {
				p.unauthorized(c, "Invalid credentials")
				return
			}
			logger.Error().Err(err).Msg("Authentication lookup failed")
			HandleAPIError(c, err)
			c.Abort()
			return
		}

		c.Set(ContextUserID, user.ID)
		c.Set(ContextEmail, user.Email)
		c.Set(ContextRoleType, string(user.Role))

		if !roleAllowed(access, user.Role) {
			errorDetail := dto.NewErrorDetail(dto.ErrorCodeForbidden, "Access denied").
				WithDetails("You don't have sufficient permissions for this operation")
			c.AbortWithStatusJSON(http.StatusForbidden, dto.NewErrorResponse(errorDetail))
			return
		}

		c.Next()
	}
}

func (p *AccessPolicy) unauthorized(c *gin.Context, details string) {
	c.Header("WWW-Authenticate", fmt.Sprintf("Basic realm=%q", p.realm))
	errorDetail := dto.NewErrorDetail(dto.ErrorCodeUnauthorized, "Authentication required").WithDetails(details)
	c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponse(errorDetail))
}

func roleAllowed(access Access, role models.Role) bool {
	switch access {
	case AccessAdmin:
		return role == models.RoleAdmin
	case AccessStudent:
		return role == models.RoleStudent
	default:
		return true
	}
}

// ActorFromContext returns the caller stored by the access policy
func ActorFromContext(c *gin.Context) (Actor, bool) {
	userID, ok := c.Get(ContextUserID)
	if !ok {
		return Actor{}, false
	}
	id, ok := userID.(int64)
	if !ok {
		return Actor{}, false
	}
	return Actor{
		UserID: id,
		Email:  c.GetString(ContextEmail),
		Role:   models.Role(c.GetString(ContextRoleType)),
	}, true
}
