// Package validation содержит функции валидации входных данных.
package validation

import (
	"net/mail"
	"strings"
	"unicode"

	"github.com/mmeshcher/streetwear-storefront/internal/model"
)

// MinPasswordLength задаёт минимальную длину пароля.
const MinPasswordLength = 8

// IsValidEmail проверяет, что строка содержит одиночный адрес электронной почты без отображаемого имени.
func IsValidEmail(email string) bool {
	email = strings.TrimSpace(email)
	if email == "" {
		return false
	}
	addr, err := mail.ParseAddress(email)
	if err != nil {
		return false
	}
	return addr.Address == email && strings.Contains(addr.Address[strings.LastIndex(addr.Address, "@"):], ".")
}

// IsValidPassword проверяет длину пароля.
func IsValidPassword(password string) bool {
	return len([]rune(password)) >= MinPasswordLength
}

// IsValidOrderID проверяет формат ORD-dddddd.
func IsValidOrderID(id string) bool {
	return hasDigitSuffix(id, "ORD-", 6)
}

// IsValidTrackingNumber проверяет формат TRKddddddd.
func IsValidTrackingNumber(n string) bool {
	return hasDigitSuffix(n, "TRK", 7)
}

// IsValidResetCode проверяет, что код состоит из шести цифр.
func IsValidResetCode(code string) bool {
	return hasDigitSuffix(code, "", 6)
}

// IsValidQuantity проверяет количество товара в строке корзины.
func IsValidQuantity(q int) bool {
	return q >= 1 && q <= model.MaxLineQuantity
}

func hasDigitSuffix(s, prefix string, n int) bool {
	if !strings.HasPrefix(s, prefix) {
		return false
	}
	digits := s[len(prefix):]
	if len(digits) != n {
		return false
	}
	for _, ch := range digits {
		if !unicode.IsDigit(ch) {
			return false
		}
	}
	return true
}
