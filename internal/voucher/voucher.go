// Package voucher содержит каталог промокодов и расчёт скидки по ним.
package voucher

import (
	"sort"
	"strings"

	"github.com/mmeshcher/streetwear-storefront/internal/money"
)

// Kind различает виды скидок.
type Kind string

const (
	KindPercentage  Kind = "percentage"
	KindFixedAmount Kind = "fixed"
)

// Discount описывает скидку промокода: процент от суммы либо фиксированную сумму.
type Discount interface {
	Kind() Kind
	Amount(subtotal money.Amount) money.Amount
}

// Percentage задаёт процентную скидку в базисных пунктах (2500 = 25%).
type Percentage struct {
	BasisPoints int64
}

// Kind возвращает KindPercentage.
func (Percentage) Kind() Kind { return KindPercentage }

// Amount возвращает долю подытога.
func (p Percentage) Amount(subtotal money.Amount) money.Amount {
	return subtotal.Percent(p.BasisPoints)
}

// FixedAmount задаёт фиксированную скидку, не зависящую от подытога.
type FixedAmount struct {
	Value money.Amount
}

// Kind возвращает KindFixedAmount.
func (FixedAmount) Kind() Kind { return KindFixedAmount }

// Amount возвращает фиксированную сумму.
func (f FixedAmount) Amount(money.Amount) money.Amount {
	return f.Value
}

// Voucher описывает запись каталога.
type Voucher struct {
	Code        string
	Discount    Discount
	Description string
}

// Result содержит итог применения промокода.
type Result struct {
	Valid       bool
	Code        string
	Discount    money.Amount
	Description string
}

// Catalog хранит неизменяемый каталог промокодов.
type Catalog struct {
	byCode map[string]Voucher
}

// NewCatalog строит каталог; коды нормализуются к верхнему регистру.
func NewCatalog(vouchers ...Voucher) *Catalog {
	c := &Catalog{byCode: make(map[string]Voucher, len(vouchers))}
	for _, v := range vouchers {
		v.Code = normalize(v.Code)
		c.byCode[v.Code] = v
	}
	return c
}

// DefaultCatalog возвращает промокоды магазина.
func DefaultCatalog() *Catalog {
	return NewCatalog(
		Voucher{Code: "NEWDROP25", Discount: Percentage{BasisPoints: 2500}, Description: "25% off the new drop"},
		Voucher{Code: "SUMMER10", Discount: Percentage{BasisPoints: 1000}, Description: "10% off summer essentials"},
		Voucher{Code: "WELCOME15", Discount: Percentage{BasisPoints: 1500}, Description: "15% off your first order"},
		Voucher{Code: "FREESHIP", Discount: FixedAmount{Value: money.FromPesos(150)}, Description: "Free shipping"},
	)
}

// Lookup ищет промокод без учёта регистра и пробелов по краям.
func (c *Catalog) Lookup(code string) (Voucher, bool) {
	v, ok := c.byCode[normalize(code)]
	return v, ok
}

// Apply рассчитывает скидку по промокоду для подытога. Неизвестный код даёт Valid=false и нулевую скидку.
func (c *Catalog) Apply(code string, subtotal money.Amount) Result {
	v, ok := c.Lookup(code)
	if !ok {
		return Result{Code: normalize(code)}
	}
	return Result{
		Valid:       true,
		Code:        v.Code,
		Discount:    v.Discount.Amount(subtotal),
		Description: v.Description,
	}
}

// List возвращает промокоды, упорядоченные по коду.
func (c *Catalog) List() []Voucher {
	res := make([]Voucher, 0, len(c.byCode))
	for _, v := range c.byCode {
		res = append(res, v)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].Code < res[j].Code })
	return res
}

func normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
