package users

import "time"

// Caretaker es un contacto opcional del usuario (familiar, cuidador).
type Caretaker struct {
	Name  string
	Email string
	Phone string
}

// User es el dueño de las medicinas y el destinatario de los recordatorios.
type User struct {
	ID string

	Name     string
	Email    string
	Phone    string
	Language string // default "en"

	Caretaker *Caretaker

	// PasswordHash es bcrypt; nunca se guarda el plaintext.
	PasswordHash string

	CreatedAt time.Time
	UpdatedAt time.Time
}
