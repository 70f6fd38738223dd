package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/JoeShih716/go-pay-ledger/internal/app/core/domain"
	"github.com/JoeShih716/go-pay-ledger/internal/app/core/usecase"
)

// Server 是 REST 入站介面 (Driving Adapter)：
// 只負責解析請求、呼叫 usecase、把領域錯誤映射成 HTTP 狀態碼。
type Server struct {
	core *usecase.CoreUseCase
}

func NewServer(core *usecase.CoreUseCase) *Server {
	return &Server{
		core: core,
	}
}

// Router 建立路由
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	api := r.Group("/api")
	api.POST("/accounts", s.createAccount)
	api.GET("/accounts/:id", s.getAccount)
	api.GET("/accounts/:id/transactions", s.listTransactions)
	api.POST("/transfers", s.transfer)

	// 健康檢查，供監控或 liveness probe 使用
	r.GET("/health", s.health)
	return r
}

type createAccountRequest struct {
	DisplayName    string `json:"displayName" binding:"required"`
	ContactAddress string `json:"contactAddress" binding:"required"`
}

type transferRequest struct {
	SenderID   string `json:"senderId" binding:"required"`
	ReceiverID string `json:"receiverId" binding:"required"`
	// Amount 以十進位字串表示 (例如 "12.50")，避免 JSON number 的浮點誤差
	Amount string `json:"amount" binding:"required"`
}

type accountResponse struct {
	ID             string `json:"id"`
	DisplayName    string `json:"displayName"`
	ContactAddress string `json:"contactAddress"`
	Balance        int64  `json:"balance"` // 最小貨幣單位
	BalanceDecimal string `json:"balanceDecimal"`
	CreatedAt      int64  `json:"createdAt"`
}

type transactionResponse struct {
	ID            string `json:"id"`
	SenderID      string `json:"senderId"`
	ReceiverID    string `json:"receiverId"`
	Amount        int64  `json:"amount"`
	AmountDecimal string `json:"amountDecimal"`
	Timestamp     int64  `json:"timestamp"`
}

func (s *Server) createAccount(c *gin.Context) {
	var req createAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	acct, err := s.core.CreateAccount(c.Request.Context(), req.DisplayName, req.ContactAddress)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toAccountResponse(acct))
}

func (s *Server) getAccount(c *gin.Context) {
	acct, err := s.core.GetAccount(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toAccountResponse(acct))
}

func (s *Server) transfer(c *gin.Context) {
	var req transferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	amount, err := parseAmount(req.Amount)
	if err != nil {
		writeError(c, err)
		return
	}

	tran, err := s.core.Transfer(c.Request.Context(), req.SenderID, req.ReceiverID, amount)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toTransactionResponse(tran))
}

func (s *Server) listTransactions(c *gin.Context) {
	trans, err := s.core.ListTransactions(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}

	out := make([]transactionResponse, 0, len(trans))
	for i := range trans {
		out = append(out, *toTransactionResponse(&trans[i]))
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// parseAmount 把十進位字串轉成最小貨幣單位，
// 精度超過最小單位 (例如 "1.001") 視為非法金額。
func parseAmount(raw string) (int64, error) {
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return 0, domain.ErrInvalidAmount
	}
	minor := d.Mul(decimal.NewFromInt(domain.CurrencyScale))
	if !minor.IsInteger() {
		return 0, domain.ErrInvalidAmount
	}
	return minor.IntPart(), nil
}

// formatAmount 把最小貨幣單位轉回十進位字串 (固定兩位小數)
func formatAmount(minor int64) string {
	return decimal.NewFromInt(minor).Div(decimal.NewFromInt(domain.CurrencyScale)).StringFixed(2)
}

// writeError 領域錯誤 → HTTP 狀態碼
func writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrInvalidAmount),
		errors.Is(err, domain.ErrInsufficientBalance),
		errors.Is(err, domain.ErrDuplicateAddress):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrAccountNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrStorageUnavailable):
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func toAccountResponse(acct *domain.Account) *accountResponse {
	return &accountResponse{
		ID:             acct.ID,
		DisplayName:    acct.DisplayName,
		ContactAddress: acct.ContactAddress,
		Balance:        acct.Balance,
		BalanceDecimal: formatAmount(acct.Balance),
		CreatedAt:      acct.CreatedAt,
	}
}

func toTransactionResponse(tran *domain.Transaction) *transactionResponse {
	return &transactionResponse{
		ID:            tran.TransactionID.String(),
		SenderID:      tran.From,
		ReceiverID:    tran.To,
		Amount:        tran.Amount,
		AmountDecimal: formatAmount(tran.Amount),
		Timestamp:     tran.CreatedAt,
	}
}
