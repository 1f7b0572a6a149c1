package service

import "strings"

const (
	keyUsers       = "users"
	keyOpenOrders  = "orders:open"
	keyContact     = "contact"
	keyActivity    = "admin:activity"
	clientPrefix   = "client:"
	sessionSuffix  = ":session"
	resetKeyPrefix = "reset:"
)

func sessionKey(clientID string) string { return clientPrefix + clientID + sessionSuffix }
func cartKey(clientID string) string    { return clientPrefix + clientID + ":cart" }
func voucherKey(clientID string) string { return clientPrefix + clientID + ":voucher" }

func userPrefix(userID string) string  { return "user:" + userID + ":" }
func ordersKey(userID string) string   { return userPrefix(userID) + "orders" }
func settingsKey(userID string) string { return userPrefix(userID) + "settings" }
func chatKey(userID string) string     { return userPrefix(userID) + "chat" }

func resetKey(email string) string { return resetKeyPrefix + normalizeEmail(email) }

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
