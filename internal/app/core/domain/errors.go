package domain

import "errors"

var (
	// ErrInvalidAmount 金額非法 (<= 0，或轉帳雙方為同一帳戶)
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrInsufficientBalance 餘額不足
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrAccountNotFound 找不到帳戶
	ErrAccountNotFound = errors.New("account not found")

	// ErrDuplicateAddress 聯絡地址已被註冊
	ErrDuplicateAddress = errors.New("contact address already registered")

	// ErrStorageUnavailable 儲存層暫時性故障 (唯一可重試的錯誤類別)
	ErrStorageUnavailable = errors.New("storage unavailable")
)
