package auth

import "context"

// AuthVerifier valida un bearer token de sesión y devuelve sus claims.
// Implementación: adapters/auth/jwtauth.
type AuthVerifier interface {
	Verify(ctx context.Context, token string) (Claims, error)
}
