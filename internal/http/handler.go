package http

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/nurpe/contractor-ledger/internal/excel"
	"github.com/nurpe/contractor-ledger/internal/http/middleware"
	"github.com/nurpe/contractor-ledger/internal/pdf"
	"github.com/nurpe/contractor-ledger/internal/service"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type Handler struct {
	market       *service.MarketplaceService
	balances     *service.BalanceService
	reports      *service.ReportService
	workbooks    *excel.Generator
	receipts     *pdf.Generator
	defaultLimit int
	log          zerolog.Logger
}

type HandlerDeps struct {
	Market       *service.MarketplaceService
	Balances     *service.BalanceService
	Reports      *service.ReportService
	Workbooks    *excel.Generator
	Receipts     *pdf.Generator
	DefaultLimit int
}

func NewHandler(deps HandlerDeps, log zerolog.Logger) *Handler {
	return &Handler{
		market:       deps.Market,
		balances:     deps.Balances,
		reports:      deps.Reports,
		workbooks:    deps.Workbooks,
		receipts:     deps.Receipts,
		defaultLimit: deps.DefaultLimit,
		log:          log,
	}
}

func (h *Handler) Register(router *gin.Engine, profileMiddleware gin.HandlerFunc) {
	protected := router.Group("/")
	protected.Use(profileMiddleware)
	protected.GET("/contracts/:id", h.getContract)
	protected.GET("/contracts", h.listContracts)
	protected.GET("/jobs/unpaid", h.listUnpaidJobs)
	protected.POST("/jobs/:job_id/pay", h.payJob)
	protected.GET("/transfers/:id/receipt", h.transferReceipt)

	router.POST("/balances/deposit/:userId", h.deposit)

	admin := router.Group("/admin")
	admin.GET("/best-profession", h.bestProfession)
	admin.GET("/best-clients", h.bestClients)
	admin.GET("/best-clients/export", h.exportBestClients)
}

func (h *Handler) getContract(c *gin.Context) {
	profile, ok := middleware.MustProfile(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing profile"})
		return
	}

	contractID, err := parseID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid contract id"})
		return
	}

	contract, err := h.market.GetContract(c.Request.Context(), profile.ID, contractID)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, contract)
}

func (h *Handler) listContracts(c *gin.Context) {
	profile, ok := middleware.MustProfile(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing profile"})
		return
	}

	contracts, err := h.market.ListActiveContracts(c.Request.Context(), profile.ID)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, contracts)
}

func (h *Handler) listUnpaidJobs(c *gin.Context) {
	profile, ok := middleware.MustProfile(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing profile"})
		return
	}

	jobs, err := h.market.ListUnpaidJobs(c.Request.Context(), profile.ID)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, jobs)
}

func (h *Handler) payJob(c *gin.Context) {
	profile, ok := middleware.MustProfile(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing profile"})
		return
	}

	jobID, err := parseID(c.Param("job_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid job_id"})
		return
	}

	receipt, err := h.balances.PayJobAs(c.Request.Context(), profile.ID, jobID)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Payment successful",
		"receipt": receipt,
	})
}

type depositRequest struct {
	Amount *decimal.Decimal `json:"amount" binding:"required"`
}

func (h *Handler) deposit(c *gin.Context) {
	clientID, err := parseID(c.Param("userId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid userId"})
		return
	}

	var req depositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid amount"})
		return
	}

	result, err := h.balances.Deposit(c.Request.Context(), clientID, *req.Amount)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":     "Deposit successful",
		"transfer_id": result.TransferID,
		"new_balance": result.NewBalance,
	})
}

func (h *Handler) bestProfession(c *gin.Context) {
	start, end, ok := h.period(c)
	if !ok {
		return
	}

	best, err := h.reports.BestProfession(c.Request.Context(), start, end)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"best_profession": best.Profession,
		"earnings":        best.Total,
	})
}

func (h *Handler) bestClients(c *gin.Context) {
	start, end, ok := h.period(c)
	if !ok {
		return
	}
	limit, err := h.parseLimit(c.Query("limit"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
		return
	}

	clients, err := h.reports.BestClients(c.Request.Context(), start, end, limit)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, clients)
}

func (h *Handler) exportBestClients(c *gin.Context) {
	start, end, ok := h.period(c)
	if !ok {
		return
	}
	limit, err := h.parseLimit(c.Query("limit"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
		return
	}

	report, err := h.reports.BestClientsReport(c.Request.Context(), start, end, limit)
	if err != nil {
		h.handleError(c, err)
		return
	}
	content, err := h.workbooks.BestClients(*report)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.Header("Content-Disposition", "attachment; filename=\""+excel.FileName(*report)+"\"")
	c.Data(http.StatusOK, xlsxContentType, content)
}

func (h *Handler) transferReceipt(c *gin.Context) {
	profile, ok := middleware.MustProfile(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing profile"})
		return
	}

	transferID, err := uuid.Parse(strings.TrimSpace(c.Param("id")))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid transfer id"})
		return
	}

	doc, err := h.balances.Receipt(c.Request.Context(), profile.ID, transferID)
	if err != nil {
		h.handleError(c, err)
		return
	}
	content, err := h.receipts.Receipt(*doc)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.Header("Content-Disposition", "attachment; filename=\""+pdf.FileName(*doc)+"\"")
	c.Data(http.StatusOK, "application/pdf", content)
}

func (h *Handler) period(c *gin.Context) (time.Time, time.Time, bool) {
	start, err := parseDate(c.Query("start"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid start"})
		return time.Time{}, time.Time{}, false
	}
	end, err := parseDate(c.Query("end"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid end"})
		return time.Time{}, time.Time{}, false
	}
	return start, end, true
}

func (h *Handler) parseLimit(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return h.defaultLimit, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		return 0, service.ErrInvalidInput
	}
	return limit, nil
}

func (h *Handler) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrPermissionDenied):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrLimitExceeded):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrInsufficientFunds):
		c.JSON(http.StatusPaymentRequired, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrAlreadyPaid):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		h.log.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func parseID(raw string) (uint, error) {
	id, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 64)
	if err != nil || id == 0 {
		return 0, service.ErrInvalidInput
	}
	return uint(id), nil
}

func parseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, service.ErrInvalidInput
	}
	// Report windows are whole calendar days; timestamps are rejected.
	parsed, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return time.Time{}, service.ErrInvalidInput
	}
	return parsed, nil
}
