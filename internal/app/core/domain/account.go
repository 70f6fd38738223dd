package domain

// amount 使用 int64，並定義精度：小數點後 2 位 (最小單位 = 分)
const (
	CurrencyScale = 100

	// InitialBalance 開戶贈送的初始餘額 (1000 元)
	InitialBalance int64 = 1000 * CurrencyScale
)

// Account 帳戶
// Balance 只能透過 Transfer 的臨界區或開戶的初始寫入變動，
// 且在任何可觀察時點都必須 >= 0 (不允許透支)。
type Account struct {
	// ID: 付款地址，建立後不可變 (格式見 payaddr.go)
	ID string
	// DisplayName: 顯示名稱
	DisplayName string
	// ContactAddress: 聯絡地址，全系統唯一
	ContactAddress string
	// Balance: 餘額 (最小貨幣單位)
	Balance int64
	// CreatedAt: 開戶時間 (unix milli)
	CreatedAt int64
}

// Deposit 入帳
func (a *Account) Deposit(amount int64) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}

	a.Balance = a.Balance + amount
	return nil
}

// Withdraw 扣款；餘額不足時不改變任何狀態
func (a *Account) Withdraw(amount int64) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}

	if a.Balance < amount {
		return ErrInsufficientBalance
	}

	a.Balance = a.Balance - amount
	return nil
}
