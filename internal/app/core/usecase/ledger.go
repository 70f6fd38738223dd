package usecase

import (
	"context"

	"github.com/JoeShih716/go-pay-ledger/internal/app/core/domain"
)

// Ledger 是帳務系統的出站介面 (Driven Port)。
// memory 與 mysql 兩種 adapter 都實作此介面，
// Transfer 必須對所有涉及同一帳戶的併發呼叫保持可線性化。
type Ledger interface {
	// CreateAccount 開戶：產生付款地址、寫入初始餘額，聯絡地址不得重複
	CreateAccount(ctx context.Context, displayName, contactAddress string) (*domain.Account, error)
	// GetAccount 取得帳戶目前已提交的狀態
	GetAccount(ctx context.Context, id string) (*domain.Account, error)
	// Transfer 原子轉帳：扣款、入帳、交易紀錄三者一次提交
	Transfer(ctx context.Context, senderID, receiverID string, amount int64) (*domain.Transaction, error)
	// ListTransactions 列出帳戶的所有交易紀錄 (新到舊)
	ListTransactions(ctx context.Context, accountID string) ([]domain.Transaction, error)
}
