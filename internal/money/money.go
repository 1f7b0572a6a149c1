// Package money содержит представление денежных сумм в сентаво и их форматирование для витрины.
package money

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Symbol задаёт знак филиппинского песо для всех сумм на витрине.
const Symbol = "₱"

// ErrInvalidAmount возвращается, если строку не удалось разобрать как сумму
// или сумма выходит за допустимые пределы.
var ErrInvalidAmount = errors.New("invalid amount")

// MaxPesos ограничивает цену одной позиции.
const MaxPesos = 1_000_000_000

// MaxAmount задаёт наибольшую допустимую цену в сентаво.
const MaxAmount = Amount(MaxPesos * 100)

var printer = message.NewPrinter(language.English)

// Amount представляет денежную сумму в сентаво (1/100 песо).
type Amount int64

// FromPesos возвращает сумму для целого количества песо.
func FromPesos(pesos int64) Amount {
	return Amount(pesos * 100)
}

// FromFloat переводит сумму в песо с плавающей точкой в сентаво с округлением.
// Отрицательные, нечисловые и превышающие MaxAmount значения отклоняются.
func FromFloat(pesos float64) (Amount, error) {
	if math.IsNaN(pesos) || pesos < 0 || pesos > MaxPesos {
		return 0, fmt.Errorf("%w: %v", ErrInvalidAmount, pesos)
	}
	return Amount(math.Round(pesos * 100)), nil
}

// Pesos возвращает сумму в песо.
func (a Amount) Pesos() float64 {
	return float64(a) / 100
}

// Mul умножает цену на количество.
func (a Amount) Mul(qty int) Amount {
	return a * Amount(qty)
}

// Percent возвращает долю суммы, заданную в базисных пунктах (2500 = 25%), с округлением половины вверх.
func (a Amount) Percent(basisPoints int64) Amount {
	v := int64(a) * basisPoints
	q := v / 10000
	if r := v % 10000; r*2 >= 10000 {
		q++
	}
	return Amount(q)
}

// String форматирует сумму для отображения: ₱1,499 или ₱179.80.
func (a Amount) String() string {
	sign := ""
	v := uint64(a)
	if a < 0 {
		sign = "-"
		v = -v
	}

	whole := printer.Sprintf("%d", v/100)
	if cents := v % 100; cents != 0 {
		return fmt.Sprintf("%s%s%s.%02d", sign, Symbol, whole, cents)
	}
	return sign + Symbol + whole
}

// Parse разбирает отображаемую строку суммы. Все символы, кроме цифр и десятичной точки,
// отбрасываются; всё после второй точки игнорируется.
func Parse(s string) (Amount, error) {
	var b strings.Builder
	dots := 0
loop:
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.':
			dots++
			if dots > 1 {
				break loop
			}
			b.WriteRune(r)
		}
	}
	clean := b.String()
	if clean == "" || clean == "." {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}

	intPart, fracPart, _ := strings.Cut(clean, ".")
	if intPart == "" {
		intPart = "0"
	}

	pesos, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil || pesos > MaxPesos {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}

	var cents int64
	switch {
	case len(fracPart) == 0:
	case len(fracPart) == 1:
		cents = int64(fracPart[0]-'0') * 10
	default:
		cents = int64(fracPart[0]-'0')*10 + int64(fracPart[1]-'0')
		if len(fracPart) > 2 && fracPart[2] >= '5' {
			cents++
		}
	}

	a := Amount(pesos*100 + cents)
	if a > MaxAmount {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	return a, nil
}
