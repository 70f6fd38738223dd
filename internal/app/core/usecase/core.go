package usecase

import (
	"context"
	"fmt"

	"github.com/JoeShih716/go-pay-ledger/internal/app/core/domain"
)

// CoreUseCase 是核心業務邏輯層。
// 不需要持鎖的前置檢查 (金額、自我轉帳) 在這裡完成，
// 需要在鎖內判斷的 (帳戶存在、餘額足夠) 交給 Ledger adapter。
type CoreUseCase struct {
	ledger Ledger
}

func NewCoreUseCase(ledger Ledger) *CoreUseCase {
	return &CoreUseCase{
		ledger: ledger,
	}
}

// CreateAccount 開戶
func (c *CoreUseCase) CreateAccount(ctx context.Context, displayName, contactAddress string) (*domain.Account, error) {
	return c.ledger.CreateAccount(ctx, displayName, contactAddress)
}

// GetAccount 取得帳戶
func (c *CoreUseCase) GetAccount(ctx context.Context, id string) (*domain.Account, error) {
	return c.ledger.GetAccount(ctx, id)
}

// Transfer 轉帳。前置檢查依序為：
//  1. amount > 0
//  2. sender != receiver (自我轉帳沒有經濟意義，且會讓餘額檢查形同虛設)
//
// 任一檢查失敗都不會觸碰 Ledger，狀態零變動。
func (c *CoreUseCase) Transfer(ctx context.Context, senderID, receiverID string, amount int64) (*domain.Transaction, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", domain.ErrInvalidAmount)
	}
	if senderID == receiverID {
		return nil, fmt.Errorf("%w: sender and receiver are the same account", domain.ErrInvalidAmount)
	}
	return c.ledger.Transfer(ctx, senderID, receiverID, amount)
}

// ListTransactions 列出交易紀錄
func (c *CoreUseCase) ListTransactions(ctx context.Context, accountID string) ([]domain.Transaction, error) {
	return c.ledger.ListTransactions(ctx, accountID)
}
