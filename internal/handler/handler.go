package handler

import (
	"encoding/csv"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"cbibank/internal/config"
	"cbibank/internal/repository"
	"cbibank/internal/service"
	"cbibank/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Handler 统一处理器，包含所有服务依赖
type Handler struct {
	authService        *service.AuthService
	amountService      *service.AmountService
	fdService          *service.FDService
	transactionService *service.TransactionService
	atmService         *service.ATMService
	contactService     *service.ContactService
	paymentService     *service.PaymentService
}

// NewHandler 创建处理器实例
func NewHandler(db *gorm.DB, rdb *redis.Client, cfg *config.Config) *Handler {
	return &Handler{
		authService:        service.NewAuthService(db, cfg),
		amountService:      service.NewAmountService(db, rdb, cfg),
		fdService:          service.NewFDService(db, rdb, cfg),
		transactionService: service.NewTransactionService(db, cfg),
		atmService:         service.NewATMService(db, cfg),
		contactService:     service.NewContactService(db, cfg),
		paymentService:     service.NewPaymentService(db, rdb, cfg),
	}
}

// renderError 业务错误映射到响应码，未识别的错误只返回固定文案，细节进日志
func renderError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, repository.ErrBalanceNotEnough):
		response.BusinessError(c, response.CodeBalanceNotEnough, err.Error())
	case errors.Is(err, repository.ErrAccountNotFound):
		response.BusinessError(c, response.CodeAccountNotFound, err.Error())
	case errors.Is(err, service.ErrFDAmountOutOfRange):
		response.BusinessError(c, response.CodeBelowMinimum, err.Error())
	case errors.Is(err, service.ErrFDNotActive), errors.Is(err, repository.ErrFDStatusInvalid):
		response.BusinessError(c, response.CodeFDNotActive, err.Error())
	case errors.Is(err, repository.ErrFDNotFound):
		response.BusinessError(c, response.CodeFDNotFound, err.Error())
	case errors.Is(err, service.ErrEmailRegistered):
		response.BusinessError(c, response.CodeEmailRegistered, err.Error())
	case errors.Is(err, service.ErrInvalidCredential):
		response.BusinessError(c, response.CodeInvalidCredential, err.Error())
	case errors.Is(err, service.ErrAccountDeactivated):
		response.BusinessError(c, response.CodeUserDeactivated, err.Error())
	case errors.Is(err, service.ErrCardAlreadyExists):
		response.BusinessError(c, response.CodeDuplicateCard, err.Error())
	case errors.Is(err, repository.ErrCardNotFound):
		response.BusinessError(c, response.CodeCardNotFound, err.Error())
	case errors.Is(err, service.ErrPinFormat),
		errors.Is(err, service.ErrPinMismatch),
		errors.Is(err, service.ErrCardNotDelivered),
		errors.Is(err, service.ErrCardNotActive):
		response.BusinessError(c, response.CodeInvalidPin, err.Error())
	case errors.Is(err, repository.ErrTicketNotFound):
		response.BusinessError(c, response.CodeTicketNotFound, err.Error())
	case errors.Is(err, service.ErrTicketForbidden):
		response.Forbidden(c, response.CodeForbidden, err.Error())
	case errors.Is(err, service.ErrAmountExceedLimit):
		response.BusinessError(c, response.CodeAmountExceedLimit, err.Error())
	case errors.Is(err, service.ErrPaymentOrderNotFound),
		errors.Is(err, service.ErrPaymentOrderMismatch):
		response.BusinessError(c, response.CodePaymentFailed, err.Error())
	case errors.Is(err, service.ErrInvalidAmount),
		errors.Is(err, service.ErrFDTenureOutOfRange),
		errors.Is(err, service.ErrCardTypeInvalid),
		errors.Is(err, service.ErrTicketStatusInvalid):
		response.ParamError(c, err.Error())
	case errors.Is(err, repository.ErrUserNotFound),
		errors.Is(err, repository.ErrTransactionNotFound):
		response.NotFound(c, err.Error())
	case errors.Is(err, service.ErrSystemBusy),
		errors.Is(err, repository.ErrOptimisticLock):
		response.BusinessError(c, response.CodeBusinessError, service.ErrSystemBusy.Error())
	default:
		log.Printf("[Handler] 内部错误: %v", err)
		response.ServerError(c)
	}
}

// ============================================================
// 认证与个人资料接口
// ============================================================

// RegisterRequest 注册请求
type RegisterRequest struct {
	Name        string `json:"name" binding:"required"`
	Email       string `json:"email" binding:"required,email"`
	Phone       string `json:"phone" binding:"required"`
	Password    string `json:"password" binding:"required,min=6"`
	DateOfBirth string `json:"date_of_birth" binding:"required"` // 2000-01-31 格式
	Address     string `json:"address" binding:"required"`
}

// Register 注册并开户
// POST /api/auth/register
func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "参数错误: "+err.Error())
		return
	}

	dob, err := time.Parse("2006-01-02", req.DateOfBirth)
	if err != nil {
		response.ParamError(c, "date_of_birth 格式错误，应为 YYYY-MM-DD")
		return
	}

	resp, err := h.authService.Register(c.Request.Context(), &service.RegisterRequest{
		Name:        req.Name,
		Email:       req.Email,
		Phone:       req.Phone,
		Password:    req.Password,
		DateOfBirth: dob,
		Address:     req.Address,
	})
	if err != nil {
		renderError(c, err)
		return
	}

	response.Success(c, resp)
}

// LoginRequest 登录请求
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Login 登录
// POST /api/auth/login
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "参数错误: "+err.Error())
		return
	}

	resp, err := h.authService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		renderError(c, err)
		return
	}

	response.Success(c, resp)
}

// GetProfile 查询个人资料
// GET /api/auth/profile
func (h *Handler) GetProfile(c *gin.Context) {
	profile, err := h.authService.GetProfile(c.Request.Context(), currentUserID(c))
	if err != nil {
		renderError(c, err)
		return
	}

	response.Success(c, profile)
}

// UpdateProfileRequest 资料更新请求，只放开姓名/电话/地址
type UpdateProfileRequest struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

// UpdateProfile 更新个人资料
// PUT /api/auth/profile
func (h *Handler) UpdateProfile(c *gin.Context) {
	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "参数错误: "+err.Error())
		return
	}

	profile, err := h.authService.UpdateProfile(c.Request.Context(), currentUserID(c), &service.UpdateProfileRequest{
		Name:    req.Name,
		Phone:   req.Phone,
		Address: req.Address,
	})
	if err != nil {
		renderError(c, err)
		return
	}

	response.Success(c, profile)
}

// ============================================================
// 存取款接口
// ============================================================

// AmountRequest 存入/取出请求
type AmountRequest struct {
	Amount      decimal.Decimal `json:"amount" binding:"required"`
	Description string          `json:"description"`
}

// AddAmount 存入
// POST /api/amount/add
func (h *Handler) AddAmount(c *gin.Context) {
	var req AmountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "参数错误: "+err.Error())
		return
	}

	resp, err := h.amountService.Add(c.Request.Context(), currentUserID(c), req.Amount, req.Description)
	if err != nil {
		renderError(c, err)
		return
	}

	response.Success(c, resp)
}

// DeductAmount 取出
// POST /api/amount/deduct
func (h *Handler) DeductAmount(c *gin.Context) {
	var req AmountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "参数错误: "+err.Error())
		return
	}

	resp, err := h.amountService.Deduct(c.Request.Context(), currentUserID(c), req.Amount, req.Description)
	if err != nil {
		renderError(c, err)
		return
	}

	response.Success(c, resp)
}

// GetBalance 查询余额
// GET /api/amount/balance
func (h *Handler) GetBalance(c *gin.Context) {
	account, err := h.amountService.GetBalance(c.Request.Context(), currentUserID(c))
	if err != nil {
		renderError(c, err)
		return
	}

	response.Success(c, gin.H{
		"account_number": account.AccountNumber,
		"balance":        account.Balance,
		"status":         account.Status,
	})
}

// ============================================================
// 定期存款接口
// ============================================================

// CreateFDRequest 开立定期存款请求
type CreateFDRequest struct {
	Amount decimal.Decimal `json:"amount" binding:"required"`
	Tenure int             `json:"tenure" binding:"required,gt=0"` // 存期（月）
}

// CreateFD 开立定期存款
// POST /api/fd/create
func (h *Handler) CreateFD(c *gin.Context) {
	var req CreateFDRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "参数错误: "+err.Error())
		return
	}

	resp, err := h.fdService.Create(c.Request.Context(), currentUserID(c), req.Amount, req.Tenure)
	if err != nil {
		renderError(c, err)
		return
	}

	response.Success(c, resp)
}

// ListFDs 名下全部存单
// GET /api/fd
func (h *Handler) ListFDs(c *gin.Context) {
	fds, err := h.fdService.List(c.Request.Context(), currentUserID(c))
	if err != nil {
		renderError(c, err)
		return
	}

	response.Success(c, gin.H{"fixed_deposits": fds})
}

// GetFDDetails 存单详情（含当前价值估算）
// GET /api/fd/:fdId
func (h *Handler) GetFDDetails(c *gin.Context) {
	fdID, err := strconv.ParseInt(c.Param("fdId"), 10, 64)
	if err != nil {
		response.ParamError(c, "fdId 参数错误")
		return
	}

	detail, err := h.fdService.Details(c.Request.Context(), currentUserID(c), fdID)
	if err != nil {
		renderError(c, err)
		return
	}

	response.Success(c, detail)
}

// BreakFD 提前支取
// POST /api/fd/:fdId/break
func (h *Handler) BreakFD(c *gin.Context) {
	fdID, err := strconv.ParseInt(c.Param("fdId"), 10, 64)
	if err != nil {
		response.ParamError(c, "fdId 参数错误")
		return
	}

	detail, err := h.fdService.Break(c.Request.Context(), currentUserID(c), fdID)
	if err != nil {
		renderError(c, err)
		return
	}

	response.Success(c, detail)
}

// ============================================================
// 交易流水接口
// ============================================================

// parseTransactionFilter 解析流水查询条件（type / startDate / endDate）
func parseTransactionFilter(c *gin.Context) (repository.TransactionFilter, bool) {
	filter := repository.TransactionFilter{
		Type: c.DefaultQuery("type", "all"),
	}

	startStr := c.Query("startDate")
	endStr := c.Query("endDate")
	if startStr != "" && endStr != "" {
		start, err := time.Parse("2006-01-02", startStr)
		if err != nil {
			response.ParamError(c, "startDate 格式错误，应为 YYYY-MM-DD")
			return filter, false
		}
		end, err := time.Parse("2006-01-02", endStr)
		if err != nil {
			response.ParamError(c, "endDate 格式错误，应为 YYYY-MM-DD")
			return filter, false
		}
		filter.StartDate = start
		// 闭区间，包含 endDate 当天
		filter.EndDate = end.AddDate(0, 0, 1).Add(-time.Second)
	}

	return filter, true
}

// ListTransactions 分页查询流水
// GET /api/transactions?page=1&limit=10&type=credit&startDate=...&endDate=...
func (h *Handler) ListTransactions(c *gin.Context) {
	filter, ok := parseTransactionFilter(c)
	if !ok {
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	resp, err := h.transactionService.List(c.Request.Context(), currentUserID(c), filter, page, pageSize)
	if err != nil {
		renderError(c, err)
		return
	}

	response.Success(c, resp)
}

// GetTransactionStats 收支统计
// GET /api/transactions/stats?days=180
func (h *Handler) GetTransactionStats(c *gin.Context) {
	days, _ := strconv.Atoi(c.DefaultQuery("days", "180"))

	stats, err := h.transactionService.Stats(c.Request.Context(), currentUserID(c), days)
	if err != nil {
		renderError(c, err)
		return
	}

	response.Success(c, stats)
}

// DownloadStatement 对账单导出
// GET /api/transactions/statement?format=json|csv&type=...&startDate=...&endDate=...
func (h *Handler) DownloadStatement(c *gin.Context) {
	filter, ok := parseTransactionFilter(c)
	if !ok {
		return
	}

	statement, err := h.transactionService.Statement(c.Request.Context(), currentUserID(c), filter)
	if err != nil {
		renderError(c, err)
		return
	}

	if c.DefaultQuery("format", "json") == "csv" {
		writeStatementCSV(c, statement)
		return
	}

	response.Success(c, statement)
}

// writeStatementCSV 对账单的 CSV 输出
func writeStatementCSV(c *gin.Context, statement *service.StatementResponse) {
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", `attachment; filename="statement.csv"`)
	c.Status(http.StatusOK)

	w := csv.NewWriter(c.Writer)
	defer w.Flush()

	w.Write([]string{"transaction_no", "date", "type", "amount", "balance_after", "description", "status"})
	for _, trans := range statement.Transactions {
		w.Write([]string{
			trans.TransactionNo,
			trans.CreatedAt.Format("2006-01-02 15:04:05"),
			trans.Type,
			trans.Amount.StringFixed(2),
			trans.BalanceAfter.StringFixed(2),
			trans.Description,
			trans.Status,
		})
	}
}

// GetTransactionDetails 单笔流水详情
// GET /api/transactions/:transactionId
func (h *Handler) GetTransactionDetails(c *gin.Context) {
	transactionID, err := strconv.ParseInt(c.Param("transactionId"), 10, 64)
	if err != nil {
		response.ParamError(c, "transactionId 参数错误")
		return
	}

	trans, err := h.transactionService.Details(c.Request.Context(), currentUserID(c), transactionID)
	if err != nil {
		renderError(c, err)
		return
	}

	response.Success(c, trans)
}

// ============================================================
// 银行卡接口
// ============================================================

// RequestCardRequest 申请卡片请求
type RequestCardRequest struct {
	CardType        string `json:"card_type" binding:"required"` // debit / credit
	DeliveryAddress string `json:"delivery_address" binding:"required"`
}

// RequestCard 申请卡片
// POST /api/atm/request
func (h *Handler) RequestCard(c *gin.Context) {
	var req RequestCardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "参数错误: "+err.Error())
		return
	}

	card, err := h.atmService.RequestCard(c.Request.Context(), currentUserID(c), req.CardType, req.DeliveryAddress)
	if err != nil {
		renderError(c, err)
		return
	}

	response.Success(c, card)
}

// ListCards 名下全部卡片（卡号掩码）
// GET /api/atm
func (h *Handler) ListCards(c *gin.Context) {
	cards, err := h.atmService.List(c.Request.Context(), currentUserID(c))
	if err != nil {
		renderError(c, err)
		return
	}

	response.Success(c, gin.H{"cards": cards})
}

// GetCardDetails 卡片详情（完整卡号，仅限本人）
// GET /api/atm/:cardId/details
func (h *Handler) GetCardDetails(c *gin.Context) {
	cardID, err := strconv.ParseInt(c.Param("cardId"), 10, 64)
	if err != nil {
		response.ParamError(c, "cardId 参数错误")
		return
	}

	detail, err := h.atmService.Details(c.Request.Context(), currentUserID(c), cardID)
	if err != nil {
		renderError(c, err)
		return
	}

	response.Success(c, detail)
}

// SetPinRequest 设置密码请求
type SetPinRequest struct {
	CardID int64  `json:"card_id" binding:"required"`
	Pin    string `json:"pin" binding:"required"`
}

// SetPin 设置密码并激活
// POST /api/atm/set-pin
func (h *Handler) SetPin(c *gin.Context) {
	var req SetPinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "参数错误: "+err.Error())
		return
	}

	if err := h.atmService.SetPin(c.Request.Context(), currentUserID(c), req.CardID, req.Pin); err != nil {
		renderError(c, err)
		return
	}

	response.Success(c, gin.H{"message": "密码设置成功，卡片已激活"})
}

// ChangePinRequest 修改密码请求
type ChangePinRequest struct {
	CardID int64  `json:"card_id" binding:"required"`
	OldPin string `json:"old_pin" binding:"required"`
	NewPin string `json:"new_pin" binding:"required"`
}

// ChangePin 修改密码
// POST /api/atm/change-pin
func (h *Handler) ChangePin(c *gin.Context) {
	var req ChangePinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "参数错误: "+err.Error())
		return
	}

	if err := h.atmService.ChangePin(c.Request.Context(), currentUserID(c), req.CardID, req.OldPin, req.NewPin); err != nil {
		renderError(c, err)
		return
	}

	response.Success(c, gin.H{"message": "密码修改成功"})
}

// ToggleBlockCard 临时挂失/解挂
// POST /api/atm/:cardId/toggle-block
func (h *Handler) ToggleBlockCard(c *gin.Context) {
	cardID, err := strconv.ParseInt(c.Param("cardId"), 10, 64)
	if err != nil {
		response.ParamError(c, "cardId 参数错误")
		return
	}

	card, err := h.atmService.ToggleBlock(c.Request.Context(), currentUserID(c), cardID)
	if err != nil {
		renderError(c, err)
		return
	}

	response.Success(c, card)
}

// ============================================================
// 客服工单接口
// ============================================================

// SubmitTicketRequest 提交工单请求
type SubmitTicketRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Subject  string `json:"subject" binding:"required"`
	Message  string `json:"message" binding:"required"`
	Category string `json:"category"`
	Priority string `json:"priority"`
}

// SubmitTicket 提交工单（公开接口，登录用户自动关联）
// POST /api/contact/submit
func (h *Handler) SubmitTicket(c *gin.Context) {
	var req SubmitTicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "参数错误: "+err.Error())
		return
	}

	serviceReq := &service.SubmitTicketRequest{
		Name:     req.Name,
		Email:    req.Email,
		Subject:  req.Subject,
		Message:  req.Message,
		Category: req.Category,
		Priority: req.Priority,
	}
	if userID := currentUserID(c); userID > 0 {
		serviceReq.UserID = &userID
	}

	ticket, err := h.contactService.Submit(c.Request.Context(), serviceReq)
	if err != nil {
		renderError(c, err)
		return
	}

	response.Success(c, gin.H{
		"ticket_number": ticket.TicketNumber,
		"status":        ticket.Status,
	})
}

// MyTickets 本人提交的工单
// GET /api/contact/my-tickets
func (h *Handler) MyTickets(c *gin.Context) {
	tickets, err := h.contactService.MyTickets(c.Request.Context(), currentUserID(c))
	if err != nil {
		renderError(c, err)
		return
	}

	response.Success(c, gin.H{"tickets": tickets})
}

// GetTicketByNumber 按工单号查询
// GET /api/contact/ticket/:ticketNumber
func (h *Handler) GetTicketByNumber(c *gin.Context) {
	ticketNumber := c.Param("ticketNumber")
	if ticketNumber == "" {
		response.ParamError(c, "ticketNumber 参数不能为空")
		return
	}

	ticket, err := h.contactService.GetByNumber(c.Request.Context(), ticketNumber, currentUserID(c), isAdmin(c))
	if err != nil {
		renderError(c, err)
		return
	}

	response.Success(c, ticket)
}

// AdminListTickets 管理端工单列表
// GET /api/contact/admin/tickets?status=open&page=1&limit=20
func (h *Handler) AdminListTickets(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	resp, err := h.contactService.ListAll(c.Request.Context(), c.Query("status"), page, pageSize)
	if err != nil {
		renderError(c, err)
		return
	}

	response.Success(c, resp)
}

// RespondTicketRequest 工单回复请求
type RespondTicketRequest struct {
	TicketID int64  `json:"ticket_id" binding:"required"`
	Response string `json:"response" binding:"required"`
}

// AdminRespondTicket 管理员回复工单
// POST /api/contact/admin/respond
func (h *Handler) AdminRespondTicket(c *gin.Context) {
	var req RespondTicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "参数错误: "+err.Error())
		return
	}

	ticket, err := h.contactService.Respond(c.Request.Context(), req.TicketID, req.Response)
	if err != nil {
		renderError(c, err)
		return
	}

	response.Success(c, ticket)
}

// AdminUpdateTicketStatus 管理员调整工单状态
// PUT /api/contact/admin/ticket/:ticketId/status
func (h *Handler) AdminUpdateTicketStatus(c *gin.Context) {
	ticketID, err := strconv.ParseInt(c.Param("ticketId"), 10, 64)
	if err != nil {
		response.ParamError(c, "ticketId 参数错误")
		return
	}

	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "参数错误: "+err.Error())
		return
	}

	ticket, err := h.contactService.UpdateStatus(c.Request.Context(), ticketID, req.Status)
	if err != nil {
		renderError(c, err)
		return
	}

	response.Success(c, ticket)
}

// ============================================================
// 网关充值接口
// ============================================================

// InitiatePaymentRequest 发起充值请求
type InitiatePaymentRequest struct {
	Amount decimal.Decimal `json:"amount" binding:"required"`
}

// InitiatePayment 发起充值
// POST /api/payment/initiate
func (h *Handler) InitiatePayment(c *gin.Context) {
	var req InitiatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "参数错误: "+err.Error())
		return
	}

	resp, err := h.paymentService.Initiate(c.Request.Context(), currentUserID(c), req.Amount)
	if err != nil {
		renderError(c, err)
		return
	}

	response.Success(c, resp)
}

// VerifyPaymentRequest 支付确认请求
type VerifyPaymentRequest struct {
	OrderID   string `json:"order_id" binding:"required"`
	PaymentID string `json:"payment_id" binding:"required"`
}

// VerifyPayment 确认支付并入账
// POST /api/payment/verify
func (h *Handler) VerifyPayment(c *gin.Context) {
	var req VerifyPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "参数错误: "+err.Error())
		return
	}

	resp, err := h.paymentService.Verify(c.Request.Context(), currentUserID(c), req.OrderID, req.PaymentID)
	if err != nil {
		renderError(c, err)
		return
	}

	response.Success(c, resp)
}
