package handler

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/mmeshcher/streetwear-storefront/internal/model"
	"github.com/mmeshcher/streetwear-storefront/internal/money"
	"github.com/mmeshcher/streetwear-storefront/internal/service"
	"github.com/mmeshcher/streetwear-storefront/internal/voucher"
)

// amountView передаёт сумму в ответе API строкой для отображения и значением в песо.
type amountView struct {
	Display string  `json:"display"`
	Value   float64 `json:"value"`
}

func amount(a money.Amount) amountView {
	return amountView{Display: a.String(), Value: a.Pesos()}
}

// priceInput принимает цену строкой ("₱1,499") или числом песо (1499).
type priceInput struct {
	money.Amount
	set bool
}

func (p *priceInput) UnmarshalJSON(data []byte) error {
	p.set = true

	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		a, err := money.Parse(s)
		if err != nil {
			return err
		}
		p.Amount = a
		return nil
	}

	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("%w: %s", money.ErrInvalidAmount, strings.TrimSpace(string(data)))
	}
	a, err := money.FromFloat(f)
	if err != nil {
		return err
	}
	p.Amount = a
	return nil
}

type cartItemView struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Price     amountView `json:"price"`
	Image     string     `json:"image,omitempty"`
	Quantity  int        `json:"quantity"`
	Color     string     `json:"color,omitempty"`
	ColorName string     `json:"colorName,omitempty"`
	Size      string     `json:"size,omitempty"`
	LineTotal amountView `json:"lineTotal"`
}

func cartItems(items []model.CartItem) []cartItemView {
	res := make([]cartItemView, 0, len(items))
	for _, it := range items {
		res = append(res, cartItemView{
			ID:        it.ID,
			Name:      it.Name,
			Price:     amount(it.Price),
			Image:     it.Image,
			Quantity:  it.Quantity,
			Color:     it.Color,
			ColorName: it.ColorName,
			Size:      it.Size,
			LineTotal: amount(it.Price.Mul(it.Quantity)),
		})
	}
	return res
}

type appliedVoucherView struct {
	Code        string     `json:"code"`
	Discount    amountView `json:"discount"`
	Description string     `json:"description"`
}

type cartView struct {
	Items    []cartItemView      `json:"items"`
	Voucher  *appliedVoucherView `json:"voucher,omitempty"`
	Subtotal amountView          `json:"subtotal"`
	Discount amountView          `json:"discount"`
	Total    amountView          `json:"total"`
}

func cart(sum service.CartSummary) cartView {
	v := cartView{
		Items:    cartItems(sum.Items),
		Subtotal: amount(sum.Subtotal),
		Discount: amount(sum.Discount),
		Total:    amount(sum.Total),
	}
	if sum.Voucher != nil {
		v.Voucher = &appliedVoucherView{
			Code:        sum.Voucher.Code,
			Discount:    amount(sum.Voucher.Discount),
			Description: sum.Voucher.Description,
		}
	}
	return v
}

type voucherView struct {
	Code        string `json:"code"`
	Kind        string `json:"kind"`
	Value       string `json:"value"`
	Description string `json:"description"`
}

func vouchers(list []voucher.Voucher) []voucherView {
	res := make([]voucherView, 0, len(list))
	for _, v := range list {
		view := voucherView{Code: v.Code, Kind: string(v.Discount.Kind()), Description: v.Description}
		switch d := v.Discount.(type) {
		case voucher.Percentage:
			view.Value = fmt.Sprintf("%d%%", d.BasisPoints/100)
		case voucher.FixedAmount:
			view.Value = d.Value.String()
		}
		res = append(res, view)
	}
	return res
}

type orderView struct {
	ID             string                `json:"id"`
	Date           time.Time             `json:"date"`
	Status         model.OrderStatus     `json:"status"`
	TrackingNumber string                `json:"trackingNumber,omitempty"`
	Subtotal       amountView            `json:"subtotal"`
	Discount       amountView            `json:"discount"`
	Total          amountView            `json:"total"`
	VoucherCode    string                `json:"voucherCode,omitempty"`
	Items          []cartItemView        `json:"items"`
	TrackingPoints []model.TrackingPoint `json:"trackingPoints,omitempty"`
}

func order(o model.Order) orderView {
	return orderView{
		ID:             o.ID,
		Date:           o.Date,
		Status:         o.Status,
		TrackingNumber: o.TrackingNumber,
		Subtotal:       amount(o.Subtotal),
		Discount:       amount(o.Discount),
		Total:          amount(o.Total),
		VoucherCode:    o.VoucherCode,
		Items:          cartItems(o.Items),
		TrackingPoints: o.TrackingPoints,
	}
}

// userView отдаёт запись реестра без хеша пароля.
type userView struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	AdminRole    string    `json:"adminRole,omitempty"`
	Position     string    `json:"position,omitempty"`
	Department   string    `json:"department,omitempty"`
	ProfileImage string    `json:"profileImage,omitempty"`
	Bio          string    `json:"bio,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

func userRecord(u model.User) userView {
	return userView{
		ID:           u.ID,
		Name:         u.Name,
		Email:        u.Email,
		AdminRole:    u.AdminRole,
		Position:     u.Position,
		Department:   u.Department,
		ProfileImage: u.ProfileImage,
		Bio:          u.Bio,
		CreatedAt:    u.CreatedAt,
	}
}
