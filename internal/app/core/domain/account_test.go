package domain

import (
	"errors"
	"strings"
	"testing"
)

// TestDepositWithdraw 驗證單一帳戶的入帳與扣款邏輯。
// 涵蓋正常路徑與錯誤條件 (非法金額、餘額不足)。
func TestDepositWithdraw(t *testing.T) {
	a := &Account{ID: "a@fastpay", Balance: 100}

	if err := a.Deposit(50); err != nil {
		t.Fatal(err)
	}
	if err := a.Withdraw(30); err != nil {
		t.Fatal(err)
	}
	if a.Balance != 120 {
		t.Fatalf("balance=%d want=120", a.Balance)
	}

	// 金額 <= 0
	if err := a.Deposit(0); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expect ErrInvalidAmount, got %v", err)
	}
	if err := a.Withdraw(-1); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expect ErrInvalidAmount, got %v", err)
	}

	// 餘額不足時不得改變餘額
	if err := a.Withdraw(9999); !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("expect ErrInsufficientBalance, got %v", err)
	}
	if a.Balance != 120 {
		t.Fatalf("balance=%d want=120 (failed withdraw must not mutate)", a.Balance)
	}
}

// TestLockIDs 驗證鎖定順序與參數順序無關，固定為升冪。
func TestLockIDs(t *testing.T) {
	ab := &Transaction{From: "a@fastpay", To: "b@fastpay"}
	ba := &Transaction{From: "b@fastpay", To: "a@fastpay"}

	got1 := ab.LockIDs()
	got2 := ba.LockIDs()
	if got1[0] != "a@fastpay" || got1[1] != "b@fastpay" {
		t.Fatalf("LockIDs=%v want ascending", got1)
	}
	if got1[0] != got2[0] || got1[1] != got2[1] {
		t.Fatalf("lock order must not depend on argument order: %v vs %v", got1, got2)
	}
}

// TestNewPayAddress 驗證付款地址格式：8 位十六進位 + 固定後綴。
func TestNewPayAddress(t *testing.T) {
	addr, err := NewPayAddress()
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasSuffix(addr, PayAddressSuffix) {
		t.Fatalf("addr=%q missing suffix %q", addr, PayAddressSuffix)
	}
	hexPart := strings.TrimSuffix(addr, PayAddressSuffix)
	if len(hexPart) != 8 {
		t.Fatalf("hex part=%q want 8 chars", hexPart)
	}

	// 連續產生不應輕易重複
	other, err := NewPayAddress()
	if err != nil {
		t.Fatal(err)
	}
	if other == addr {
		t.Fatalf("two generated addresses collided: %q", addr)
	}
}
