package domain

import "github.com/golang-jwt/jwt/v5"

// User is a dashboard operator. Users are provisioned through configuration;
// there is no user database.
type User struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

type Claims struct {
	UserEmail string `json:"user_email"`
	UserName  string `json:"user_name"`
	jwt.RegisteredClaims
}
