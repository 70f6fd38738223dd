package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/JoeShih716/go-pay-ledger/internal/app/core/adapter/out/memory"
	"github.com/JoeShih716/go-pay-ledger/internal/app/core/usecase"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// newTestServer 以純記憶體帳本組出完整 REST 服務。
func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	ledger, err := memory.NewMemoryLedger(nil)
	if err != nil {
		t.Fatal(err)
	}
	srv := NewServer(usecase.NewCoreUseCase(ledger))
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return ts
}

// doJSON 測試輔助函式：送出 JSON 請求、驗證狀態碼、解析回應。
func doJSON(t *testing.T, c *http.Client, method, url string, body any, wantCode int, out any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req, err := http.NewRequest(method, url, &buf)
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != wantCode {
		t.Fatalf("%s %s status=%d want=%d", method, url, resp.StatusCode, wantCode)
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatal(err)
		}
	}
}

// createAccount 建立帳戶並回傳回應內容。
func createAccount(t *testing.T, ts *httptest.Server, name, addr string) accountResponse {
	t.Helper()
	var acct accountResponse
	doJSON(t, ts.Client(), http.MethodPost, ts.URL+"/api/accounts",
		map[string]string{"displayName": name, "contactAddress": addr},
		http.StatusCreated, &acct)
	return acct
}

// TestCreateAccountAPI 開戶成功回 201，重複聯絡地址回 400。
func TestCreateAccountAPI(t *testing.T) {
	ts := newTestServer(t)

	acct := createAccount(t, ts, "Alice", "alice@example.com")
	if acct.ID == "" || acct.DisplayName != "Alice" {
		t.Fatalf("unexpected account: %+v", acct)
	}
	if acct.BalanceDecimal != "1000.00" {
		t.Fatalf("balanceDecimal=%q want=1000.00", acct.BalanceDecimal)
	}

	// 重複聯絡地址
	doJSON(t, ts.Client(), http.MethodPost, ts.URL+"/api/accounts",
		map[string]string{"displayName": "Alice2", "contactAddress": "alice@example.com"},
		http.StatusBadRequest, nil)

	// 缺欄位
	doJSON(t, ts.Client(), http.MethodPost, ts.URL+"/api/accounts",
		map[string]string{"displayName": "NoAddress"},
		http.StatusBadRequest, nil)
}

// TestGetAccountAPI 查詢存在帳戶回 200，不存在回 404。
func TestGetAccountAPI(t *testing.T) {
	ts := newTestServer(t)
	acct := createAccount(t, ts, "Alice", "alice@example.com")

	var got accountResponse
	doJSON(t, ts.Client(), http.MethodGet, ts.URL+"/api/accounts/"+acct.ID, nil, http.StatusOK, &got)
	if got.ID != acct.ID || got.Balance != acct.Balance {
		t.Fatalf("got=%+v want=%+v", got, acct)
	}

	doJSON(t, ts.Client(), http.MethodGet, ts.URL+"/api/accounts/missing@fastpay", nil, http.StatusNotFound, nil)
}

// TestTransferAPI 驗證轉帳路由的完整狀態碼映射。
func TestTransferAPI(t *testing.T) {
	ts := newTestServer(t)
	a := createAccount(t, ts, "A", "a@example.com")
	b := createAccount(t, ts, "B", "b@example.com")

	// 正常轉帳
	var tran transactionResponse
	doJSON(t, ts.Client(), http.MethodPost, ts.URL+"/api/transfers",
		map[string]string{"senderId": a.ID, "receiverId": b.ID, "amount": "300.50"},
		http.StatusOK, &tran)
	if tran.Amount != 300_50 || tran.AmountDecimal != "300.50" {
		t.Fatalf("unexpected record: %+v", tran)
	}
	if tran.ID == "" || tran.Timestamp == 0 {
		t.Fatalf("id/timestamp must be server-assigned: %+v", tran)
	}

	var ga, gb accountResponse
	doJSON(t, ts.Client(), http.MethodGet, ts.URL+"/api/accounts/"+a.ID, nil, http.StatusOK, &ga)
	doJSON(t, ts.Client(), http.MethodGet, ts.URL+"/api/accounts/"+b.ID, nil, http.StatusOK, &gb)
	if ga.Balance != 1000_00-300_50 || gb.Balance != 1000_00+300_50 {
		t.Fatalf("balances: %d %d", ga.Balance, gb.Balance)
	}

	// 非法金額：0、負數、非數字、超過最小單位精度
	for _, bad := range []string{"0", "-5", "abc", "0.001"} {
		doJSON(t, ts.Client(), http.MethodPost, ts.URL+"/api/transfers",
			map[string]string{"senderId": a.ID, "receiverId": b.ID, "amount": bad},
			http.StatusBadRequest, nil)
	}

	// 自我轉帳
	doJSON(t, ts.Client(), http.MethodPost, ts.URL+"/api/transfers",
		map[string]string{"senderId": a.ID, "receiverId": a.ID, "amount": "1.00"},
		http.StatusBadRequest, nil)

	// 餘額不足
	doJSON(t, ts.Client(), http.MethodPost, ts.URL+"/api/transfers",
		map[string]string{"senderId": a.ID, "receiverId": b.ID, "amount": "999999.00"},
		http.StatusBadRequest, nil)

	// 帳戶不存在
	doJSON(t, ts.Client(), http.MethodPost, ts.URL+"/api/transfers",
		map[string]string{"senderId": "ghost@fastpay", "receiverId": b.ID, "amount": "1.00"},
		http.StatusNotFound, nil)
}

// TestListTransactionsAPI 三筆轉帳後應回傳恰好三筆、新到舊。
func TestListTransactionsAPI(t *testing.T) {
	ts := newTestServer(t)
	a := createAccount(t, ts, "A", "a@example.com")
	b := createAccount(t, ts, "B", "b@example.com")

	for _, amount := range []string{"1.00", "2.00", "3.00"} {
		doJSON(t, ts.Client(), http.MethodPost, ts.URL+"/api/transfers",
			map[string]string{"senderId": a.ID, "receiverId": b.ID, "amount": amount},
			http.StatusOK, nil)
	}

	var trans []transactionResponse
	doJSON(t, ts.Client(), http.MethodGet, ts.URL+"/api/accounts/"+a.ID+"/transactions", nil, http.StatusOK, &trans)
	if len(trans) != 3 {
		t.Fatalf("len=%d want=3", len(trans))
	}
	if trans[0].Amount != 3_00 {
		t.Fatalf("newest first expected, got %+v", trans)
	}
	for i := 0; i < len(trans)-1; i++ {
		if trans[i].Timestamp < trans[i+1].Timestamp {
			t.Fatalf("not newest-first at %d", i)
		}
	}

	doJSON(t, ts.Client(), http.MethodGet, ts.URL+"/api/accounts/ghost@fastpay/transactions", nil, http.StatusNotFound, nil)
}

// TestHealthAPI 健康檢查。
func TestHealthAPI(t *testing.T) {
	ts := newTestServer(t)
	resp, err := ts.Client().Get(ts.URL + "/health")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status=%d want=200", resp.StatusCode)
	}
}
