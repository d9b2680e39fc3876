package reminder

import (
	"context"
	"fmt"
)

const Subject = "MedEase Reminder"

// Message es lo que recibe cada canal.
type Message struct {
	Subject string
	Body    string
}

// Compose arma el recordatorio para un usuario y una medicina.
func Compose(userName, medicineName string) Message {
	return Message{
		Subject: Subject,
		Body:    fmt.Sprintf("Hi %s, it's time to take your %s dose.", userName, medicineName),
	}
}

// Contact son los datos de contacto del dueño de una medicina.
type Contact struct {
	UserID string
	Name   string
	Email  string
	Phone  string
}

// Channel es un transporte de notificación independiente (email, whatsapp).
//
// Un canal sin credenciales devuelve Enabled() == false durante toda la vida
// del proceso; avisa una sola vez al construirse y el scheduler no lo invoca.
type Channel interface {
	Name() string
	Enabled() bool
	// Address devuelve el destino para c, o "" si el usuario no tiene
	// contacto para este canal.
	Address(c Contact) string
	Send(ctx context.Context, to string, msg Message) error
}

// Dispatch es el resultado de un intento de entrega (medicina, canal).
type Dispatch struct {
	MedicineID string
	UserID     string
	Channel    string
	To         string
	Err        error
}

func (d Dispatch) OK() bool { return d.Err == nil }
