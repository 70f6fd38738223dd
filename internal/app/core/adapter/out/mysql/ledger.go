package mysql

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/JoeShih716/go-pay-ledger/internal/app/core/domain"
	"github.com/JoeShih716/go-pay-ledger/internal/app/core/usecase"
	"github.com/JoeShih716/go-pay-ledger/pkg/mysql"
)

// sqlAccount 對應資料庫的 accounts 表
type sqlAccount struct {
	ID             string `gorm:"primaryKey;size:64"`
	DisplayName    string `gorm:"size:255"`
	ContactAddress string `gorm:"uniqueIndex;size:191"`
	Balance        int64
	CreatedAt      int64 `gorm:"autoCreateTime:milli"`
}

func (*sqlAccount) TableName() string {
	return "accounts"
}

// sqlTransaction 對應資料庫的 transactions 表
// 主鍵自增，同時充當建立順序號 (domain.Transaction.Seq)
type sqlTransaction struct {
	ID         uint64 `gorm:"primaryKey;autoIncrement"`
	RefID      []byte `gorm:"column:ref_id;type:binary(16);uniqueIndex"` // 對應 domain.TransactionID
	SenderID   string `gorm:"index;size:64"`
	ReceiverID string `gorm:"index;size:64"`
	Amount     int64
	CreatedAt  int64 `gorm:"autoCreateTime:milli;index"`
}

func (*sqlTransaction) TableName() string {
	return "transactions"
}

type MySQLLedger struct {
	client *mysql.Client
}

func NewMySQLLedger(client *mysql.Client) *MySQLLedger {
	return &MySQLLedger{
		client: client,
	}
}

// Migrate 建立 / 更新資料表結構
func (ledger *MySQLLedger) Migrate(ctx context.Context) error {
	if err := ledger.client.DB().WithContext(ctx).AutoMigrate(&sqlAccount{}, &sqlTransaction{}); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStorageUnavailable, err)
	}
	return nil
}

// CreateAccount 開戶。聯絡地址的唯一性交給 DB 的 unique index 把關，
// 付款地址撞鍵時 (機率極低) 換一組重試。
func (ledger *MySQLLedger) CreateAccount(ctx context.Context, displayName, contactAddress string) (*domain.Account, error) {
	const maxAttempts = 3
	db := ledger.client.DB().WithContext(ctx)

	for attempt := 0; attempt < maxAttempts; attempt++ {
		id, err := domain.NewPayAddress()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrStorageUnavailable, err)
		}

		row := sqlAccount{
			ID:             id,
			DisplayName:    displayName,
			ContactAddress: contactAddress,
			Balance:        domain.InitialBalance,
		}
		err = db.Create(&row).Error
		if err == nil {
			return toDomainAccount(&row), nil
		}
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("%w: %v", domain.ErrStorageUnavailable, err)
		}

		// 撞到 unique key：分辨是聯絡地址重複還是付款地址碰撞
		var existing sqlAccount
		lookupErr := db.Where("contact_address = ?", contactAddress).First(&existing).Error
		if lookupErr == nil {
			return nil, fmt.Errorf("%s: %w", contactAddress, domain.ErrDuplicateAddress)
		}
		if !errors.Is(lookupErr, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %v", domain.ErrStorageUnavailable, lookupErr)
		}
		// 付款地址碰撞，重試
	}
	return nil, fmt.Errorf("%w: pay address collision after %d attempts", domain.ErrStorageUnavailable, maxAttempts)
}

// GetAccount 取得帳戶目前已提交的狀態
func (ledger *MySQLLedger) GetAccount(ctx context.Context, id string) (*domain.Account, error) {
	var row sqlAccount
	err := ledger.client.DB().WithContext(ctx).Where("id = ?", id).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%s: %w", id, domain.ErrAccountNotFound)
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrStorageUnavailable, err)
	}
	return toDomainAccount(&row), nil
}

// Transfer 原子轉帳：單一 DB Transaction 內完成
// 鎖定兩列 (FOR UPDATE，升冪排序) -> 檢查 -> 扣款 -> 入帳 -> 寫紀錄 -> commit。
// 任一步失敗整個 rollback，兩個帳戶的狀態與呼叫前完全相同。
func (ledger *MySQLLedger) Transfer(ctx context.Context, senderID, receiverID string, amount int64) (*domain.Transaction, error) {
	lockIDs := (&domain.Transaction{From: senderID, To: receiverID}).LockIDs()

	var record sqlTransaction
	err := ledger.client.DB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 悲觀鎖：IN 查詢配合升冪的 lockIDs，InnoDB 依序上列鎖，避免死鎖
		var rows []sqlAccount
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id IN ?", lockIDs).
			Find(&rows).Error; err != nil {
			return fmt.Errorf("%w: %v", domain.ErrStorageUnavailable, err)
		}

		accounts := make(map[string]*sqlAccount, len(rows))
		for i := range rows {
			accounts[rows[i].ID] = &rows[i]
		}
		sender, ok := accounts[senderID]
		if !ok {
			return fmt.Errorf("sender %s: %w", senderID, domain.ErrAccountNotFound)
		}
		receiver, ok := accounts[receiverID]
		if !ok {
			return fmt.Errorf("receiver %s: %w", receiverID, domain.ErrAccountNotFound)
		}

		// 餘額檢查在列鎖之內，併發轉帳不可能同時看到扣款前的餘額
		if sender.Balance < amount {
			return fmt.Errorf("balance %d, requested %d: %w", sender.Balance, amount, domain.ErrInsufficientBalance)
		}

		sender.Balance -= amount
		receiver.Balance += amount
		for _, row := range rows {
			if err := tx.Save(&row).Error; err != nil {
				return fmt.Errorf("%w: %v", domain.ErrStorageUnavailable, err)
			}
		}

		refID := uuid.New()
		record = sqlTransaction{
			RefID:      refID[:],
			SenderID:   senderID,
			ReceiverID: receiverID,
			Amount:     amount,
		}
		if err := tx.Create(&record).Error; err != nil {
			return fmt.Errorf("%w: %v", domain.ErrStorageUnavailable, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return toDomainTransaction(&record), nil
}

// ListTransactions 列出帳戶的所有交易紀錄，新到舊
func (ledger *MySQLLedger) ListTransactions(ctx context.Context, accountID string) ([]domain.Transaction, error) {
	db := ledger.client.DB().WithContext(ctx)

	var acct sqlAccount
	if err := db.Where("id = ?", accountID).First(&acct).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%s: %w", accountID, domain.ErrAccountNotFound)
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrStorageUnavailable, err)
	}

	var rows []sqlTransaction
	err := db.Where("sender_id = ? OR receiver_id = ?", accountID, accountID).
		Order("created_at DESC, id DESC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStorageUnavailable, err)
	}

	out := make([]domain.Transaction, 0, len(rows))
	for i := range rows {
		out = append(out, *toDomainTransaction(&rows[i]))
	}
	return out, nil
}

func toDomainAccount(row *sqlAccount) *domain.Account {
	return &domain.Account{
		ID:             row.ID,
		DisplayName:    row.DisplayName,
		ContactAddress: row.ContactAddress,
		Balance:        row.Balance,
		CreatedAt:      row.CreatedAt,
	}
}

func toDomainTransaction(row *sqlTransaction) *domain.Transaction {
	refID, err := uuid.FromBytes(row.RefID)
	if err != nil {
		// ref_id 欄位固定 binary(16)，理論上不會走到這裡
		refID = uuid.Nil
	}
	return &domain.Transaction{
		Seq:           row.ID,
		From:          row.SenderID,
		To:            row.ReceiverID,
		Amount:        row.Amount,
		CreatedAt:     row.CreatedAt,
		TransactionID: refID,
	}
}

var _ usecase.Ledger = (*MySQLLedger)(nil)
