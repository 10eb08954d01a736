package utils

import (
    "testing"

    "github.com/golang-jwt/jwt/v5"
    "golang.org/x/crypto/bcrypt"
)

func TestNewAccessToken(t *testing.T) {
    tok, err := NewAccessToken("secret", "admin", "ADMIN", 15)
    if err != nil {
        t.Fatal(err)
    }
    parsed, err := jwt.Parse(tok.Token, func(*jwt.Token) (interface{}, error) { return []byte("secret"), nil })
    if err != nil || !parsed.Valid {
        t.Fatalf("parse: %v", err)
    }
    claims := parsed.Claims.(jwt.MapClaims)
    if claims["sub"] != "admin" || claims["role"] != "ADMIN" {
        t.Fatalf("claims = %v", claims)
    }
    exp, _ := claims.GetExpirationTime()
    if exp == nil || !exp.Time.Equal(tok.Exp.Truncate(1e9)) {
        t.Fatalf("exp = %v, want %v", exp, tok.Exp)
    }
}

func TestPasswordHash(t *testing.T) {
    hash, err := HashPassword("hunter2", bcrypt.MinCost)
    if err != nil {
        t.Fatal(err)
    }
    if !VerifyPassword(hash, "hunter2") {
        t.Fatal("correct password rejected")
    }
    if VerifyPassword(hash, "hunter3") {
        t.Fatal("wrong password accepted")
    }
}
