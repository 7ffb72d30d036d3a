package domain

import "github.com/google/uuid"

type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type User struct {
	Uuid         uuid.UUID
	Login        string
	PasswordHash []byte
}
