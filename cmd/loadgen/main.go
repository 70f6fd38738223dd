package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

const (
	BaseURL     = "http://localhost:8080"
	TotalCount  = 100000
	Concurrency = 200

	// 單筆轉帳金額 (十進位字串，服務端轉成最小單位)
	TransferAmount = "0.01"
)

type accountResponse struct {
	ID      string `json:"id"`
	Balance int64  `json:"balance"`
}

func main() {
	client := &http.Client{Timeout: 10 * time.Second}

	// 建立兩個測試帳戶，交錯互轉
	a := createAccount(client, "loadgen-a")
	b := createAccount(client, "loadgen-b")
	log.Printf("accounts: %s <-> %s", a, b)

	startSum := getBalance(client, a) + getBalance(client, b)

	var wg sync.WaitGroup
	wg.Add(TotalCount)
	sem := make(chan struct{}, Concurrency)

	var failed atomic.Int64
	startTime := time.Now()

	for i := 0; i < TotalCount; i++ {
		sem <- struct{}{}

		go func(idx int) {
			defer wg.Done()
			defer func() { <-sem }()

			from, to := a, b
			if idx%2 == 1 {
				from, to = b, a
			}
			if err := transfer(client, from, to); err != nil {
				failed.Add(1)
				if idx%10000 == 0 {
					log.Printf("Transfer %d failed: %v", idx, err)
				}
			}
		}(i)
	}

	wg.Wait()

	elapsed := time.Since(startTime)
	fmt.Printf("Completed %d requests in %v (%d failed)\n", TotalCount, elapsed, failed.Load())
	fmt.Printf("TPS: %.2f\n", float64(TotalCount)/elapsed.Seconds())

	// 守恆檢查：互轉不論成功幾筆，兩帳戶總額必須不變
	endSum := getBalance(client, a) + getBalance(client, b)
	fmt.Printf("balance sum before=%d after=%d\n", startSum, endSum)
	if startSum != endSum {
		log.Fatal("conservation violated!")
	}
}

func createAccount(client *http.Client, name string) string {
	body, _ := json.Marshal(map[string]string{
		"displayName":    name,
		"contactAddress": fmt.Sprintf("%s-%d@example.com", name, time.Now().UnixNano()),
	})
	resp, err := client.Post(BaseURL+"/api/accounts", "application/json", bytes.NewReader(body))
	if err != nil {
		log.Fatalf("create account: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		log.Fatalf("create account: status %d", resp.StatusCode)
	}

	var acct accountResponse
	if err := json.NewDecoder(resp.Body).Decode(&acct); err != nil {
		log.Fatalf("decode account: %v", err)
	}
	return acct.ID
}

func getBalance(client *http.Client, id string) int64 {
	resp, err := client.Get(BaseURL + "/api/accounts/" + id)
	if err != nil {
		log.Fatalf("get account: %v", err)
	}
	defer resp.Body.Close()

	var acct accountResponse
	if err := json.NewDecoder(resp.Body).Decode(&acct); err != nil {
		log.Fatalf("decode account: %v", err)
	}
	return acct.Balance
}

func transfer(client *http.Client, from, to string) error {
	body, _ := json.Marshal(map[string]string{
		"senderId":   from,
		"receiverId": to,
		"amount":     TransferAmount,
	})
	resp, err := client.Post(BaseURL+"/api/transfers", "application/json", bytes.NewReader(body))
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status %d", resp.StatusCode)
	}
	return nil
}
