package domain

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// PayAddressSuffix 付款地址的固定後綴
const PayAddressSuffix = "@fastpay"

// NewPayAddress 產生一組新的付款地址，格式為 <8 位十六進位>@fastpay。
// 4 bytes 隨機數約 42 億種組合，碰撞仍可能發生，
// 由呼叫端 (ledger adapter) 在唯一性檢查失敗時重新產生。
func NewPayAddress() (string, error) {
	var b [4]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", fmt.Errorf("generate pay address: %w", err)
	}
	return hex.EncodeToString(b[:]) + PayAddressSuffix, nil
}
