package service

import "errors"

var (
	// ErrDuplicateEmail возвращается при регистрации с уже занятым адресом (без учёта регистра).
	ErrDuplicateEmail = errors.New("email already registered")
	// ErrUserNotRegistered возвращается при входе с незарегистрированным адресом.
	ErrUserNotRegistered = errors.New("user not registered")
	// ErrInvalidPassword возвращается при входе с неверным паролем.
	ErrInvalidPassword = errors.New("invalid password")
	// ErrResetCodeInvalidOrExpired возвращается при неверном или просроченном коде сброса пароля.
	ErrResetCodeInvalidOrExpired = errors.New("reset code invalid or expired")
	// ErrVoucherInvalid возвращается для неизвестного промокода.
	ErrVoucherInvalid = errors.New("voucher invalid")
	// ErrNotFound возвращается, если заказ или пользователь не найден.
	ErrNotFound = errors.New("not found")
	// ErrNotSignedIn возвращается, если у клиента нет активной сессии.
	ErrNotSignedIn = errors.New("not signed in")
	// ErrForbidden возвращается при попытке выполнить недоступное действие.
	ErrForbidden = errors.New("forbidden")
	// ErrEmptyCart возвращается при оформлении пустой корзины.
	ErrEmptyCart = errors.New("cart is empty")
	// ErrInvalidQuantity возвращается, если количество в строке меньше единицы или больше допустимого.
	ErrInvalidQuantity = errors.New("quantity out of range")
	// ErrInvalidStatusTransition возвращается при недопустимой смене статуса заказа.
	ErrInvalidStatusTransition = errors.New("invalid order status transition")
	// ErrUnknownList возвращается для неизвестного списка подписки.
	ErrUnknownList = errors.New("unknown subscription list")
)
