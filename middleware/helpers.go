package middleware

import (
	"context"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v4"
)

type Role string

const (
	RoleAdmin     Role = "admin"
	RoleOrganizer Role = "organizer"
	RoleAngler    Role = "angler"
)

const (
	jwtClaimUserID = "user_id"
	jwtClaimRole   = "role"
	jwtClaimClubID = "club_id"
)

var errNoClaims = errors.New("user claims not found in context or invalid type")

func claimsFromContext(ctx context.Context) (jwt.MapClaims, error) {
	claims, ok := ctx.Value(userContextKey).(jwt.MapClaims)
	if !ok {
		return nil, errNoClaims
	}
	return claims, nil
}

func stringClaim(claims jwt.MapClaims, name string) (string, error) {
	value, ok := claims[name]
	if !ok {
		return "", fmt.Errorf("missing '%s' claim in token", name)
	}
	switch v := value.(type) {
	case string:
		if v == "" {
			return "", fmt.Errorf("empty '%s' claim in token", name)
		}
		return v, nil
	case float64:
		if v != float64(int64(v)) || v <= 0 {
			return "", fmt.Errorf("invalid value in '%s' claim: %v", name, v)
		}
		return fmt.Sprintf("%d", int64(v)), nil
	default:
		return "", fmt.Errorf("invalid type for '%s' claim: expected string or number, got %T", name, value)
	}
}

// GetUserIDFromContext returns the authenticated user's id. Numeric ids are
// returned in decimal form.
func GetUserIDFromContext(ctx context.Context) (string, error) {
	claims, err := claimsFromContext(ctx)
	if err != nil {
		return "", err
	}
	return stringClaim(claims, jwtClaimUserID)
}

// GetClubIDFromContext returns the club the token was issued for, if any.
func GetClubIDFromContext(ctx context.Context) (string, bool) {
	claims, err := claimsFromContext(ctx)
	if err != nil {
		return "", false
	}
	clubID, err := stringClaim(claims, jwtClaimClubID)
	if err != nil {
		return "", false
	}
	return clubID, true
}

func GetUserRoleFromContext(ctx context.Context) (Role, error) {
	claims, err := claimsFromContext(ctx)
	if err != nil {
		return "", err
	}
	roleStr, err := stringClaim(claims, jwtClaimRole)
	if err != nil {
		return "", err
	}

	role := Role(roleStr)
	switch role {
	case RoleAdmin, RoleOrganizer, RoleAngler:
		return role, nil
	default:
		return "", fmt.Errorf("invalid role value in claim: %q", roleStr)
	}
}
