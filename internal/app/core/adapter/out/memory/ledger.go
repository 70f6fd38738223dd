package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/JoeShih716/go-pay-ledger/internal/app/core/domain"
	"github.com/JoeShih716/go-pay-ledger/internal/app/core/usecase"
	"github.com/JoeShih716/go-pay-ledger/pkg/wal"
)

// journalEntry WAL 的日誌格式：開戶與轉帳兩種事件
type journalEntry struct {
	Kind    string              `json:"kind"` // "account" | "transfer"
	Account *domain.Account     `json:"account,omitempty"`
	Tran    *domain.Transaction `json:"tran,omitempty"`
}

const (
	journalKindAccount  = "account"
	journalKindTransfer = "transfer"
)

// MemoryLedger 是一個以 per-account lock 實現的記憶體帳本。
//
// 鎖的階層：
//   - mu 保護所有索引結構 (accounts / byAddress / locks / transactions)
//   - locks[id] 保護單一帳戶的 Balance
//
// 轉帳只鎖涉及的兩個帳戶，彼此無關的轉帳可完全並行。
// 不變式：任何路徑都不可在持有 mu 的同時去搶帳戶鎖，
// 帳戶鎖一律先放掉 mu 再取，否則會與 Transfer 尾端的 mu.Lock 互等。
type MemoryLedger struct {
	mu        sync.RWMutex
	accounts  map[string]*domain.Account
	byAddress map[string]string // contactAddress -> account ID
	locks     map[string]*sync.Mutex

	// 已提交的交易 (append-only)，byAccount 是 sender/receiver 的二級索引
	transactions []domain.Transaction
	byAccount    map[string][]int

	// 交易順序號，時間戳相同時的排序依據
	seq atomic.Uint64

	// Write-Ahead Logging；nil 表示純記憶體模式 (測試用)
	wal *wal.WAL
}

// NewMemoryLedger 建立一個新的 MemoryLedger 實例，
// 若 walFile 非 nil 則先重放日誌恢復帳本狀態。
func NewMemoryLedger(walFile *wal.WAL) (*MemoryLedger, error) {
	ledger := &MemoryLedger{
		accounts:  make(map[string]*domain.Account),
		byAddress: make(map[string]string),
		locks:     make(map[string]*sync.Mutex),
		byAccount: make(map[string][]int),
		wal:       walFile,
	}
	if err := ledger.recoverFromWAL(); err != nil {
		return nil, err
	}
	return ledger, nil
}

// recoverFromWAL 從 WAL 檔案恢復帳本狀態。
// 日誌裡只有成功提交的事件 (失敗的轉帳不落 WAL)，重放不應該出錯。
func (m *MemoryLedger) recoverFromWAL() error {
	if m.wal == nil {
		return nil
	}
	return m.wal.ReadAll(func(jsonRaw []byte) error {
		var entry journalEntry
		if err := json.Unmarshal(jsonRaw, &entry); err != nil {
			return fmt.Errorf("decode wal entry: %w", err)
		}
		return m.applyRecoverEntry(&entry)
	})
}

// applyRecoverEntry 重放單筆事件 (不寫 WAL)。
// 只有 NewMemoryLedger 呼叫，無需 Lock (單執行緒)。
func (m *MemoryLedger) applyRecoverEntry(entry *journalEntry) error {
	switch entry.Kind {
	case journalKindAccount:
		acct := *entry.Account
		m.accounts[acct.ID] = &acct
		m.byAddress[acct.ContactAddress] = acct.ID
		m.locks[acct.ID] = &sync.Mutex{}
		return nil
	case journalKindTransfer:
		tran := *entry.Tran
		from, ok := m.accounts[tran.From]
		if !ok {
			return fmt.Errorf("replay transfer %s: sender %s: %w", tran.TransactionID, tran.From, domain.ErrAccountNotFound)
		}
		to, ok := m.accounts[tran.To]
		if !ok {
			return fmt.Errorf("replay transfer %s: receiver %s: %w", tran.TransactionID, tran.To, domain.ErrAccountNotFound)
		}
		if err := from.Withdraw(tran.Amount); err != nil {
			return fmt.Errorf("replay transfer %s: %w", tran.TransactionID, err)
		}
		if err := to.Deposit(tran.Amount); err != nil {
			return fmt.Errorf("replay transfer %s: %w", tran.TransactionID, err)
		}
		m.appendCommitted(&tran)
		if tran.Seq > m.seq.Load() {
			m.seq.Store(tran.Seq)
		}
		return nil
	default:
		return fmt.Errorf("unknown wal entry kind %q", entry.Kind)
	}
}

// CreateAccount 開戶：檢查聯絡地址唯一性、產生付款地址、寫入初始餘額。
// 整段在 mu 寫鎖內完成，WAL 落盤後才把帳戶掛進索引。
func (m *MemoryLedger) CreateAccount(ctx context.Context, displayName, contactAddress string) (*domain.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.byAddress[contactAddress]; exists {
		return nil, fmt.Errorf("%s: %w", contactAddress, domain.ErrDuplicateAddress)
	}

	// 付款地址碰撞時重新產生
	var id string
	for {
		var err error
		id, err = domain.NewPayAddress()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrStorageUnavailable, err)
		}
		if _, taken := m.accounts[id]; !taken {
			break
		}
	}

	acct := &domain.Account{
		ID:             id,
		DisplayName:    displayName,
		ContactAddress: contactAddress,
		Balance:        domain.InitialBalance,
		CreatedAt:      time.Now().UnixMilli(),
	}

	if err := m.journal(&journalEntry{Kind: journalKindAccount, Account: acct}); err != nil {
		return nil, err
	}

	m.accounts[id] = acct
	m.byAddress[contactAddress] = id
	m.locks[id] = &sync.Mutex{}

	cp := *acct
	return &cp, nil
}

// GetAccount 取得帳戶目前已提交的狀態 (值拷貝，避免外部改寫內部指標)
func (m *MemoryLedger) GetAccount(ctx context.Context, id string) (*domain.Account, error) {
	m.mu.RLock()
	acct, ok := m.accounts[id]
	lock := m.locks[id]
	m.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%s: %w", id, domain.ErrAccountNotFound)
	}

	// Balance 由帳戶鎖保護，讀取也要持鎖才不會讀到寫到一半的值
	lock.Lock()
	cp := *acct
	lock.Unlock()
	return &cp, nil
}

// Transfer 原子轉帳。
// 依付款地址升冪取得兩把帳戶鎖 (固定全序，避免 A->B 與 B->A 互等)，
// 鎖內完成 讀取 -> 檢查 -> WAL 落盤 -> 扣款 -> 入帳 -> 掛上交易紀錄，
// 任一步失敗都在放鎖前把狀態留在呼叫前的樣子。
func (m *MemoryLedger) Transfer(ctx context.Context, senderID, receiverID string, amount int64) (*domain.Transaction, error) {
	m.mu.RLock()
	sender, senderOK := m.accounts[senderID]
	receiver, receiverOK := m.accounts[receiverID]
	senderLock := m.locks[senderID]
	receiverLock := m.locks[receiverID]
	m.mu.RUnlock()

	if !senderOK {
		return nil, fmt.Errorf("sender %s: %w", senderID, domain.ErrAccountNotFound)
	}
	if !receiverOK {
		return nil, fmt.Errorf("receiver %s: %w", receiverID, domain.ErrAccountNotFound)
	}

	// 依 ID 升冪取鎖
	first, second := senderLock, receiverLock
	if receiverID < senderID {
		first, second = receiverLock, senderLock
	}
	first.Lock()
	defer first.Unlock()
	second.Lock()
	defer second.Unlock()

	// 餘額檢查必須在鎖內，否則兩筆併發轉帳都會看到扣款前的餘額 (double-spend)
	if sender.Balance < amount {
		return nil, fmt.Errorf("balance %d, requested %d: %w", sender.Balance, amount, domain.ErrInsufficientBalance)
	}

	tran := domain.Transaction{
		Seq:           m.seq.Add(1),
		From:          senderID,
		To:            receiverID,
		Amount:        amount,
		CreatedAt:     time.Now().UnixMilli(),
		TransactionID: uuid.New(),
	}

	// 先落 WAL 再動餘額；WAL 失敗時餘額尚未變動，直接回滾
	if err := m.journal(&journalEntry{Kind: journalKindTransfer, Tran: &tran}); err != nil {
		return nil, err
	}

	// 檢查都過了，以下不會失敗
	sender.Balance -= amount
	receiver.Balance += amount

	m.mu.Lock()
	m.appendCommitted(&tran)
	m.mu.Unlock()

	return &tran, nil
}

// ListTransactions 列出帳戶的所有交易紀錄，新到舊
// (CreatedAt 降冪，相同時間以 Seq 降冪)。
func (m *MemoryLedger) ListTransactions(ctx context.Context, accountID string) ([]domain.Transaction, error) {
	m.mu.RLock()
	if _, ok := m.accounts[accountID]; !ok {
		m.mu.RUnlock()
		return nil, fmt.Errorf("%s: %w", accountID, domain.ErrAccountNotFound)
	}
	indexes := m.byAccount[accountID]
	out := make([]domain.Transaction, 0, len(indexes))
	for _, i := range indexes {
		out = append(out, m.transactions[i])
	}
	m.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt != out[j].CreatedAt {
			return out[i].CreatedAt > out[j].CreatedAt
		}
		return out[i].Seq > out[j].Seq
	})
	return out, nil
}

// appendCommitted 把一筆已落盤的交易掛進主列表與二級索引。
// 呼叫端負責持有 mu 寫鎖 (或在恢復期的單執行緒情境)。
func (m *MemoryLedger) appendCommitted(tran *domain.Transaction) {
	i := len(m.transactions)
	m.transactions = append(m.transactions, *tran)
	m.byAccount[tran.From] = append(m.byAccount[tran.From], i)
	m.byAccount[tran.To] = append(m.byAccount[tran.To], i)
}

// journal 寫入一筆 WAL 並 fsync；wal 為 nil 時跳過 (純記憶體模式)
func (m *MemoryLedger) journal(entry *journalEntry) error {
	if m.wal == nil {
		return nil
	}
	if err := m.wal.Write(entry); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStorageUnavailable, err)
	}
	if err := m.wal.Flush(); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStorageUnavailable, err)
	}
	return nil
}

var _ usecase.Ledger = (*MemoryLedger)(nil)
