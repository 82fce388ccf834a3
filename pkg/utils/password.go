package utils

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// PasswordCost 固定的 bcrypt 成本因子
const PasswordCost = 12

type Hasher struct {
	Cost int
}

func NewHasher() *Hasher { return &Hasher{Cost: PasswordCost} }

func (h *Hasher) Hash(pw string) (string, error) {
	cost := h.Cost
	if cost == 0 {
		cost = PasswordCost
	}
	b, err := bcrypt.GenerateFromPassword([]byte(pw), cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(b), nil
}

func (h *Hasher) Verify(pw, hashed string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(pw)) == nil
}
