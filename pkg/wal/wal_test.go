package wal

import (
	"encoding/json"
	"path/filepath"
	"testing"
)

type testEntry struct {
	N int `json:"n"`
}

// TestWriteFlushReadAll 驗證寫入、落盤、讀回的完整循環，
// 包含關檔重開後資料仍在 (append-only)。
func TestWriteFlushReadAll(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wal.log")

	w, err := NewWAL(path)
	if err != nil {
		t.Fatal(err)
	}
	for i := 1; i <= 3; i++ {
		if err := w.Write(testEntry{N: i}); err != nil {
			t.Fatal(err)
		}
	}
	if err := w.Flush(); err != nil {
		t.Fatal(err)
	}

	read := func(w *WAL) []int {
		var got []int
		err := w.ReadAll(func(jsonRaw []byte) error {
			var e testEntry
			if err := json.Unmarshal(jsonRaw, &e); err != nil {
				return err
			}
			got = append(got, e.N)
			return nil
		})
		if err != nil {
			t.Fatal(err)
		}
		return got
	}

	if got := read(w); len(got) != 3 || got[0] != 1 || got[2] != 3 {
		t.Fatalf("got=%v want=[1 2 3]", got)
	}

	// ReadAll 之後繼續 append，順序不可亂
	if err := w.Write(testEntry{N: 4}); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	// 重開檔案
	w2, err := NewWAL(path)
	if err != nil {
		t.Fatal(err)
	}
	defer w2.Close()
	if got := read(w2); len(got) != 4 || got[3] != 4 {
		t.Fatalf("after reopen got=%v want=[1 2 3 4]", got)
	}
}
