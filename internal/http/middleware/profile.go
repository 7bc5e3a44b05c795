package middleware

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/nurpe/contractor-ledger/internal/model"
	"github.com/nurpe/contractor-ledger/internal/service"
)

const profileContextKey = "profile"

// ProfileHeader carries the acting profile id in header auth mode.
const ProfileHeader = "profile_id"

var errMissingCredentials = errors.New("missing credentials")

// ProfileResolver extracts the acting profile id from a request.
type ProfileResolver interface {
	Resolve(r *http.Request) (uint, error)
}

type ProfileLoader interface {
	GetProfile(ctx context.Context, id uint) (*model.Profile, error)
}

type HeaderResolver struct{}

func (HeaderResolver) Resolve(r *http.Request) (uint, error) {
	raw := strings.TrimSpace(r.Header.Get(ProfileHeader))
	if raw == "" {
		return 0, errMissingCredentials
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, errMissingCredentials
	}
	return uint(id), nil
}

type TokenParser interface {
	ProfileID(token string) (uint, error)
}

// JWTResolver reads a Bearer access token.
type JWTResolver struct {
	Parser TokenParser
}

func (j JWTResolver) Resolve(r *http.Request) (uint, error) {
	header := r.Header.Get("Authorization")
	if len(header) <= 7 || !strings.EqualFold(header[:7], "Bearer ") {
		return 0, errMissingCredentials
	}
	return j.Parser.ProfileID(header[7:])
}

// Profile resolves the caller and loads their profile into the gin context.
// Unknown or unresolvable callers get 401.
func Profile(resolver ProfileResolver, loader ProfileLoader) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := resolver.Resolve(c.Request)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		profile, err := loader.GetProfile(c.Request.Context(), id)
		if err != nil {
			if errors.Is(err, service.ErrNotFound) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
				return
			}
			_ = c.Error(err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}
		c.Set(profileContextKey, profile)
		c.Next()
	}
}

func MustProfile(c *gin.Context) (*model.Profile, bool) {
	value, ok := c.Get(profileContextKey)
	if !ok {
		return nil, false
	}
	profile, ok := value.(*model.Profile)
	return profile, ok && profile != nil
}
