package domain

import "github.com/google/uuid"

// Transaction 一筆已提交的轉帳紀錄，提交後不可變
type Transaction struct {
	// Seq: 全局遞增的建立順序號，時間戳相同時作為排序依據
	Seq uint64
	// From, To: 轉出 / 轉入帳戶的付款地址
	From string
	To   string
	// Amount: 金額 (最小貨幣單位，恆為正)
	Amount int64
	// CreatedAt: 提交時間 (unix milli)，由服務端指定，不接受客戶端傳入
	CreatedAt int64
	// TransactionID: 外部追蹤號 (UUID)
	TransactionID uuid.UUID
}

// LockIDs 回傳需要鎖定的帳戶 ID，固定升冪排序以避免死鎖：
// 兩筆方向相反的轉帳對同一對帳戶搶鎖時，取鎖順序仍然一致。
func (t *Transaction) LockIDs() []string {
	if t.From < t.To {
		return []string{t.From, t.To}
	}
	return []string{t.To, t.From}
}
