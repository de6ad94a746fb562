package service

import "github.com/noah-isme/unisync-api/internal/models"

// Actor is the authenticated caller of a service operation.
type Actor struct {
	ID        string
	Role      models.UserRole
	Name      string
	Email     string
	IP        string
	UserAgent string
}

// ActorFromClaims builds an actor from validated token claims.
func ActorFromClaims(claims *models.JWTClaims) Actor {
	if claims == nil {
		return Actor{}
	}
	return Actor{ID: claims.UserID, Role: claims.Role, Name: claims.FullName, Email: claims.Email}
}
