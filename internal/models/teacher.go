package models

// Teacher is a docente derived from import rows. Email is the natural key.
type Teacher struct {
	Email   string  `json:"correo"`
	Name    string  `json:"nombre"`
	Picture *string `json:"picture"`
}
