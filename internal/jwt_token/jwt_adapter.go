package jwttoken

import (
	"kitties/internal/platform/middleware"
)

// JWTServiceAdapter satisfies middleware.CallerValidator.
type JWTServiceAdapter struct {
	service *JWTService
}

func NewJWTServiceAdapter(service *JWTService) *JWTServiceAdapter {
	return &JWTServiceAdapter{service: service}
}

func (a *JWTServiceAdapter) ValidateToken(tokenString string) (*middleware.CallerClaims, error) {
	claims, err := a.service.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	caller, err := claims.Caller()
	if err != nil {
		return nil, err
	}
	return &middleware.CallerClaims{Caller: caller, JTI: claims.ID}, nil
}
