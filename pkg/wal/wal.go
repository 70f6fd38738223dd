package wal

import (
	"bufio"
	"encoding/json"
	"errors"
	"io"
	"io/fs"
	"os"
	"sync"
)

// rw-r--r-- (擁有者讀寫，其他人唯讀)
const fileModeReadOnly fs.FileMode = 0644

// WAL 是一個 append-only 的 JSON 日誌檔。
// Write 先寫入記憶體 buffer，Flush 才真正刷入硬碟，
// 讓呼叫端可以把「寫入」與「確認落盤」分開成兩步。
type WAL struct {
	file *os.File
	buf  *bufio.Writer
	mu   sync.Mutex
}

// NewWAL 開啟或建立一個 WAL 檔案
// O_RDWR 讀寫模式
// O_APPEND 每次寫入時自動跳到檔案末尾
// O_CREATE 如果檔案不存在則建立
func NewWAL(path string) (*WAL, error) {
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_RDWR, fileModeReadOnly)
	if err != nil {
		return nil, err
	}
	return &WAL{
		file: file,
		buf:  bufio.NewWriter(file),
	}, nil
}

// Write 寫入一筆資料到 buffer (尚未落盤)
func (w *WAL) Write(v any) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return json.NewEncoder(w.buf).Encode(v)
}

// Flush 將 buffer 刷入硬碟並 fsync (關鍵！沒有這步就沒有持久性保證)
func (w *WAL) Flush() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.buf.Flush(); err != nil {
		return err
	}
	return w.file.Sync()
}

// Close 刷入剩餘資料並關閉檔案
func (w *WAL) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.buf.Flush(); err != nil {
		return err
	}
	return w.file.Close()
}

// ReadAll 從頭讀取所有資料，逐筆呼叫 callback。
// 用 callback 而不是一次回傳整個 slice，避免大日誌一次載入記憶體。
func (w *WAL) ReadAll(callback func(jsonRaw []byte) error) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	// 先把 buffer 清空，確保讀得到剛寫入的資料
	if err := w.buf.Flush(); err != nil {
		return err
	}
	if _, err := w.file.Seek(0, io.SeekStart); err != nil {
		return err
	}

	decoder := json.NewDecoder(w.file)
	for {
		var raw json.RawMessage
		if err := decoder.Decode(&raw); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return err
		}
		if err := callback(raw); err != nil {
			return err
		}
	}
	return nil
}
