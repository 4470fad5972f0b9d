package dto

import (
	"github.com/taekwondodev/go-account-service/internal/auth/credentials"
	"github.com/taekwondodev/go-account-service/internal/auth/token"
)

type RegisterRequest struct {
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Password  string `json:"password"`
}

func (r RegisterRequest) NewUser() credentials.NewUser {
	return credentials.NewUser{
		Email:     r.Email,
		FirstName: r.FirstName,
		LastName:  r.LastName,
		Password:  r.Password,
	}
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type TokenResponse struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

func NewTokenResponse(p *token.Pair) TokenResponse {
	return TokenResponse{Access: p.Access, Refresh: p.Refresh}
}
