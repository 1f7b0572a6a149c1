package security

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
)

// RandomDigits возвращает строку из n случайных десятичных цифр.
func RandomDigits(n int) (string, error) {
	var b strings.Builder
	b.Grow(n)
	ten := big.NewInt(10)
	for i := 0; i < n; i++ {
		d, err := rand.Int(rand.Reader, ten)
		if err != nil {
			return "", fmt.Errorf("generate digit: %w", err)
		}
		b.WriteByte(byte('0' + d.Int64()))
	}
	return b.String(), nil
}

// ResetCode возвращает шестизначный код сброса пароля.
func ResetCode() (string, error) {
	return RandomDigits(6)
}

// OrderID возвращает идентификатор заказа вида ORD-123456.
func OrderID() (string, error) {
	d, err := RandomDigits(6)
	if err != nil {
		return "", err
	}
	return "ORD-" + d, nil
}

// TrackingNumber возвращает номер отслеживания вида TRK1234567.
func TrackingNumber() (string, error) {
	d, err := RandomDigits(7)
	if err != nil {
		return "", err
	}
	return "TRK" + d, nil
}
