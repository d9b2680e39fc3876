package auth

// Claims es lo que el middleware deja en el contexto tras verificar la sesión.
type Claims struct {
	UserID string
	Email  string
}
