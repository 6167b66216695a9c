package utils

import "golang.org/x/crypto/bcrypt"

// PasswordCost 与旧系统账号的哈希成本一致（12）
const PasswordCost = 12

func HashPassword(pw string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(pw), PasswordCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func CheckPassword(pw, hashed string) bool {
	if hashed == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(pw)) == nil
}
