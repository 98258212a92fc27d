package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/easybudgetapp/easybudget_backend/config"
	"github.com/easybudgetapp/easybudget_backend/middlewares"
	"github.com/easybudgetapp/easybudget_backend/models"
	"github.com/easybudgetapp/easybudget_backend/reports"
	"github.com/easybudgetapp/easybudget_backend/repository"
	"github.com/easybudgetapp/easybudget_backend/utils"
	"github.com/easybudgetapp/easybudget_backend/workers"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const defaultPort = "8080"

// Repositories are wired once: one resolver, one tenant scope shared by
// every tenant-facing repository. Admin endpoints construct their own
// globally scoped repositories and are the only unscoped call sites.
var (
	tenantScope      *repository.TenantScoped
	budgetRepo       *repository.BudgetRepository
	customerRepo     *repository.CustomerRepository
	serviceRepo      *repository.ServiceRepository
	invoiceRepo      *repository.InvoiceRepository
	subscriptionRepo *repository.SubscriptionRepository
	tenantRepo       *repository.TenantRepository
	settingRepo      *repository.SystemSettingRepository
)

func initRepositories() {
	resolver := repository.NewTenantResolver(models.TenantIdForUser)
	tenantScope = repository.NewTenantScope(resolver)

	budgetRepo = repository.NewBudgetRepository(tenantScope)
	customerRepo = repository.NewCustomerRepository(tenantScope)
	serviceRepo = repository.NewServiceRepository(tenantScope)
	invoiceRepo = repository.NewInvoiceRepository(tenantScope)
	subscriptionRepo = repository.NewSubscriptionRepository(tenantScope)
	tenantRepo = repository.NewTenantRepository()
	settingRepo = repository.NewSystemSettingRepository(repository.NewGlobalScope())
}

func requireTenant(c *gin.Context) bool {
	tenantId, ok := tenantScope.Resolver().Resolve(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return false
	}
	// Promote the resolved id onto the request context so model helpers see
	// header-identified tenants the same way as token-identified ones.
	c.Request = c.Request.WithContext(utils.SetTenantIdInContext(c.Request.Context(), tenantId))
	return true
}

func requireAdmin(c *gin.Context) bool {
	if isAdmin, ok := utils.GetIsAdminFromContext(c.Request.Context()); !ok || !isAdmin {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return false
	}
	return true
}

func pageParams(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.Query("page"))
	perPage, _ := strconv.Atoi(c.Query("per_page"))
	return page, perPage
}

func orderParams(c *gin.Context) map[string]string {
	field := c.Query("sort")
	if field == "" {
		return nil
	}
	return map[string]string{field: c.DefaultQuery("direction", "asc")}
}

func signinHandler() gin.HandlerFunc {
	type signinRequest struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	return func(c *gin.Context) {
		var req signinRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
			return
		}
		token, user, err := models.SignIn(c.Request.Context(), req.Email, req.Password)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"token": token, "user": user})
	}
}

func listCustomersHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !requireTenant(c) {
			return
		}
		criteria := repository.Criteria{}
		if name := c.Query("name"); name != "" {
			criteria["name"] = name
		}
		if active := c.Query("is_active"); active != "" {
			criteria["is_active"] = active == "true"
		}
		page, perPage := pageParams(c)
		c.JSON(http.StatusOK, customerRepo.Paginate(c.Request.Context(), criteria, orderParams(c), page, perPage))
	}
}

func searchCustomersHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !requireTenant(c) {
			return
		}
		name := c.Query("q")
		if name == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "q is required"})
			return
		}
		c.JSON(http.StatusOK, customerRepo.SearchByName(c.Request.Context(), name, 20))
	}
}

func getCustomerHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !requireTenant(c) {
			return
		}
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil || id <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
			return
		}
		customer := customerRepo.GetCached(c.Request.Context(), tenantScope, id)
		if customer == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "customer not found"})
			return
		}
		c.JSON(http.StatusOK, customer)
	}
}

func updateCustomerHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !requireTenant(c) {
			return
		}
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil || id <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
			return
		}
		var input models.NewCustomer
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"errors": utils.ProcessValidationErrors(err)})
			return
		}
		customer, err := models.UpdateCustomer(c.Request.Context(), id, &input)
		if err != nil {
			if errors.Is(err, utils.ErrorRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "customer not found"})
				return
			}
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
			return
		}
		customerRepo.InvalidateCache(c.Request.Context(), id)
		c.JSON(http.StatusOK, customer)
	}
}

func createCustomerHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !requireTenant(c) {
			return
		}
		var input models.NewCustomer
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"errors": utils.ProcessValidationErrors(err)})
			return
		}
		customer, err := models.CreateCustomer(c.Request.Context(), &input)
		if err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusCreated, customer)
	}
}

func budgetCriteria(c *gin.Context) repository.Criteria {
	criteria := repository.Criteria{}
	if status := c.Query("status"); status != "" {
		if strings.Contains(status, ",") {
			criteria["status"] = strings.Split(status, ",")
		} else {
			criteria["status"] = status
		}
	}
	if customerId, err := strconv.Atoi(c.Query("customer_id")); err == nil && customerId > 0 {
		criteria["customer_id"] = customerId
	}
	if minAmount := c.Query("min_amount"); minAmount != "" {
		criteria["amount"] = repository.Condition{Op: repository.OpGte, Value: minAmount}
	}
	switch c.Query("period") {
	case "this_month":
		from, to := utils.GetThisMonthRange()
		criteria["created_at"] = repository.Condition{Op: repository.OpBetween, Value: []time.Time{from, to}}
	case "last_3_months":
		from, to := utils.GetLastMonthsRange(3)
		criteria["created_at"] = repository.Condition{Op: repository.OpBetween, Value: []time.Time{from, to}}
	}
	return criteria
}

func listBudgetsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !requireTenant(c) {
			return
		}
		page, perPage := pageParams(c)
		c.JSON(http.StatusOK, budgetRepo.Paginate(c.Request.Context(), budgetCriteria(c), orderParams(c), page, perPage))
	}
}

func budgetStatsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !requireTenant(c) {
			return
		}
		c.JSON(http.StatusOK, budgetRepo.Stats(c.Request.Context(), budgetCriteria(c)))
	}
}

func createBudgetHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !requireTenant(c) {
			return
		}
		var input models.NewBudget
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"errors": utils.ProcessValidationErrors(err)})
			return
		}
		budget, err := models.CreateBudget(c.Request.Context(), &input)
		if err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusCreated, budget)
	}
}

func budgetStatusHandler() gin.HandlerFunc {
	type statusRequest struct {
		Status models.BudgetStatus `json:"status" binding:"required"`
	}
	return func(c *gin.Context) {
		if !requireTenant(c) {
			return
		}
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil || id <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
			return
		}
		var req statusRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
			return
		}
		budget, err := models.UpdateBudgetStatus(c.Request.Context(), id, req.Status)
		if err != nil {
			if errors.Is(err, utils.ErrorRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "budget not found"})
				return
			}
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, budget)
	}
}

func budgetReportHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !requireTenant(c) {
			return
		}
		c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		c.Header("Content-Disposition", "attachment; filename=budgets.xlsx")
		if err := reports.WriteBudgetReport(c.Request.Context(), c.Writer, budgetRepo); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "report generation failed"})
		}
	}
}

func createInvoiceHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !requireTenant(c) {
			return
		}
		var input models.NewInvoice
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"errors": utils.ProcessValidationErrors(err)})
			return
		}
		invoice, err := models.CreateInvoice(c.Request.Context(), &input)
		if err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusCreated, invoice)
	}
}

func invoiceBudgetHandler() gin.HandlerFunc {
	type invoiceRequest struct {
		DueDate *time.Time `json:"due_date"`
	}
	return func(c *gin.Context) {
		if !requireTenant(c) {
			return
		}
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil || id <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
			return
		}
		var req invoiceRequest
		_ = c.ShouldBindJSON(&req)
		invoice, err := models.InvoiceFromBudget(c.Request.Context(), id, req.DueDate)
		if err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusCreated, invoice)
	}
}

func overdueInvoicesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !requireTenant(c) {
			return
		}
		c.JSON(http.StatusOK, invoiceRepo.Overdue(c.Request.Context()))
	}
}

func payInvoiceHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !requireTenant(c) {
			return
		}
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil || id <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
			return
		}
		invoice, err := models.MarkInvoicePaid(c.Request.Context(), id)
		if err != nil {
			if errors.Is(err, utils.ErrorRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "invoice not found"})
				return
			}
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, invoice)
	}
}

func listServicesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !requireTenant(c) {
			return
		}
		if c.Query("active") == "true" {
			c.JSON(http.StatusOK, serviceRepo.ActiveServices(c.Request.Context()))
			return
		}
		page, perPage := pageParams(c)
		c.JSON(http.StatusOK, serviceRepo.Paginate(c.Request.Context(), nil, orderParams(c), page, perPage))
	}
}

func createServiceHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !requireTenant(c) {
			return
		}
		var input models.NewService
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"errors": utils.ProcessValidationErrors(err)})
			return
		}
		service, err := models.CreateService(c.Request.Context(), &input)
		if err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusCreated, service)
	}
}

func updateServiceHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !requireTenant(c) {
			return
		}
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil || id <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
			return
		}
		var input models.NewService
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"errors": utils.ProcessValidationErrors(err)})
			return
		}
		service, err := models.UpdateService(c.Request.Context(), id, &input)
		if err != nil {
			if errors.Is(err, utils.ErrorRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "service not found"})
				return
			}
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, service)
	}
}

func deactivateServiceHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !requireTenant(c) {
			return
		}
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil || id <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
			return
		}
		service, err := models.DeactivateService(c.Request.Context(), id)
		if err != nil {
			if errors.Is(err, utils.ErrorRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "service not found"})
				return
			}
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, service)
	}
}

func toggleCustomerHandler() gin.HandlerFunc {
	type toggleRequest struct {
		IsActive *bool `json:"is_active" binding:"required"`
	}
	return func(c *gin.Context) {
		if !requireTenant(c) {
			return
		}
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil || id <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
			return
		}
		var req toggleRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "is_active is required"})
			return
		}
		customer, err := models.ToggleActiveCustomer(c.Request.Context(), id, utils.DereferencePtr(req.IsActive))
		if err != nil {
			if errors.Is(err, utils.ErrorRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "customer not found"})
				return
			}
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
			return
		}
		customerRepo.InvalidateCache(c.Request.Context(), id)
		c.JSON(http.StatusOK, customer)
	}
}

func createSubscriptionHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !requireTenant(c) {
			return
		}
		var input models.NewSubscription
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"errors": utils.ProcessValidationErrors(err)})
			return
		}
		subscription, err := models.CreateSubscription(c.Request.Context(), &input)
		if err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusCreated, subscription)
	}
}

func cancelSubscriptionHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !requireTenant(c) {
			return
		}
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil || id <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
			return
		}
		subscription, err := models.CancelSubscription(c.Request.Context(), id)
		if err != nil {
			if errors.Is(err, utils.ErrorRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "subscription not found"})
				return
			}
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, subscription)
	}
}

func adminListTenantsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !requireAdmin(c) {
			return
		}
		criteria := repository.Criteria{}
		if active := c.Query("is_active"); active != "" {
			criteria["is_active"] = active == "true"
		}
		page, perPage := pageParams(c)
		c.JSON(http.StatusOK, tenantRepo.Paginate(c.Request.Context(), criteria, orderParams(c), page, perPage))
	}
}

func adminCreateTenantHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !requireAdmin(c) {
			return
		}
		var tenant models.Tenant
		if err := c.ShouldBindJSON(&tenant); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"errors": utils.ProcessValidationErrors(err)})
			return
		}
		created := tenantRepo.Create(c.Request.Context(), &tenant)
		if created == nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "could not create tenant"})
			return
		}
		c.JSON(http.StatusCreated, created)
	}
}

// adminListSettingsHandler lists settings across tenants; operator surface.
func adminListSettingsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !requireAdmin(c) {
			return
		}
		criteria := repository.Criteria{}
		if key := c.Query("key"); key != "" {
			criteria["key"] = key
		}
		page, perPage := pageParams(c)
		c.JSON(http.StatusOK, settingRepo.Paginate(c.Request.Context(), criteria, orderParams(c), page, perPage))
	}
}

func getSettingHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !requireTenant(c) {
			return
		}
		tenantId, _ := tenantScope.Resolver().Resolve(c.Request.Context())
		key := c.Param("key")
		c.JSON(http.StatusOK, gin.H{
			"key":   key,
			"value": models.GetSetting(c.Request.Context(), tenantId, key, ""),
		})
	}
}

func putSettingHandler() gin.HandlerFunc {
	type settingRequest struct {
		Value string `json:"value"`
	}
	return func(c *gin.Context) {
		if !requireTenant(c) {
			return
		}
		tenantId, _ := tenantScope.Resolver().Resolve(c.Request.Context())
		var req settingRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
			return
		}
		if err := models.PutSetting(c.Request.Context(), tenantId, c.Param("key"), req.Value); err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// customErrorLogger logs only requests that accumulated gin errors.
func customErrorLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		if len(c.Errors) > 0 {
			logger.Error(c.Errors.String())
		}
	}
}

func customNotFoundHandler(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{"error": "route not found"})
}

func splitAndTrim(csv string) []string {
	if strings.TrimSpace(csv) == "" {
		return nil
	}
	parts := strings.Split(csv, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// newRouter builds the full gin engine: middleware chain, readiness gate,
// and every route. Kept separate from main so handler tests can drive it
// through httptest.
func newRouter(logger *logrus.Logger) *gin.Engine {
	r := gin.New()
	r.Use(middlewares.CorrelationMiddleware())
	r.Use(func(c *gin.Context) {
		if c.Request.URL.Path == "/healthz" {
			c.Status(http.StatusNoContent)
			c.Abort()
			return
		}
		if config.GetDB() == nil {
			c.AbortWithStatus(http.StatusServiceUnavailable)
			return
		}
		c.Next()
	})

	r.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	corsConfig := cors.DefaultConfig()
	allowedOrigins := strings.TrimSpace(os.Getenv("CORS_ALLOWED_ORIGINS"))
	if strings.EqualFold(strings.TrimSpace(os.Getenv("GO_ENV")), "production") {
		if allowedOrigins == "" {
			corsConfig.AllowOrigins = []string{}
		} else {
			corsConfig.AllowOrigins = splitAndTrim(allowedOrigins)
		}
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AddAllowMethods("GET", "POST", "PUT", "DELETE", "OPTIONS")
	corsConfig.AddAllowHeaders("Origin", "Content-Type", "Authorization", "X-Tenant-Id", "X-Correlation-Id")
	corsConfig.AddExposeHeaders("Content-Length", "Content-Disposition", "X-Correlation-Id")
	corsConfig.AllowCredentials = true
	r.Use(cors.New(corsConfig))

	r.Use(middlewares.AuthMiddleware())
	r.Use(middlewares.TenantMiddleware())
	r.Use(customErrorLogger(logger))
	r.Use(gin.Recovery())

	initRepositories()

	r.POST("/auth/signin", signinHandler())

	api := r.Group("/api")
	{
		api.GET("/customers", listCustomersHandler())
		api.GET("/customers/search", searchCustomersHandler())
		api.GET("/customers/:id", getCustomerHandler())
		api.POST("/customers", createCustomerHandler())
		api.PUT("/customers/:id", updateCustomerHandler())
		api.PUT("/customers/:id/toggle", toggleCustomerHandler())

		api.GET("/budgets", listBudgetsHandler())
		api.GET("/budgets/stats", budgetStatsHandler())
		api.GET("/budgets/report", budgetReportHandler())
		api.POST("/budgets", createBudgetHandler())
		api.PUT("/budgets/:id/status", budgetStatusHandler())
		api.POST("/budgets/:id/invoice", invoiceBudgetHandler())

		api.GET("/invoices/overdue", overdueInvoicesHandler())
		api.POST("/invoices", createInvoiceHandler())
		api.PUT("/invoices/:id/pay", payInvoiceHandler())

		api.GET("/services", listServicesHandler())
		api.POST("/services", createServiceHandler())
		api.PUT("/services/:id", updateServiceHandler())
		api.PUT("/services/:id/deactivate", deactivateServiceHandler())

		api.POST("/subscriptions", createSubscriptionHandler())
		api.PUT("/subscriptions/:id/cancel", cancelSubscriptionHandler())

		api.GET("/settings/:key", getSettingHandler())
		api.PUT("/settings/:key", putSettingHandler())
	}

	admin := r.Group("/admin")
	{
		admin.GET("/tenants", adminListTenantsHandler())
		admin.POST("/tenants", adminCreateTenantHandler())
		admin.GET("/settings", adminListSettingsHandler())
	}

	r.NoRoute(customNotFoundHandler)
	return r
}

func main() {
	port := os.Getenv("API_PORT")
	if port == "" {
		// Cloud Run standard env var.
		port = os.Getenv("PORT")
	}
	if port == "" {
		port = defaultPort
	}

	logger := config.GetLogger()

	// Cloud Run sends SIGTERM on revision shutdown; handle it for graceful drain.
	sigCtx, stopSignals := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stopSignals()

	// Start the HTTP server ASAP so the startup probe passes. Until DB/Redis
	// are ready, app endpoints return 503.
	r := newRouter(logger)

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}
	serverErrCh := make(chan error, 1)
	go func() {
		serverErrCh <- srv.ListenAndServe()
	}()

	// Connect dependencies after the port is open.
	config.ConnectDatabaseWithRetry()
	config.ConnectRedisWithRetry()

	db := config.GetDB()
	sqlDB, _ := db.DB()
	defer func() {
		if sqlDB != nil {
			_ = sqlDB.Close()
		}
	}()

	// AutoMigrate can run DDL that blocks tables; allow running migrations
	// as a separate job instead.
	if !strings.EqualFold(strings.TrimSpace(os.Getenv("SKIP_MIGRATIONS")), "true") {
		models.MigrateTable()
	} else {
		logger.WithFields(logrus.Fields{"field": "migrations"}).Warn("SKIP_MIGRATIONS=true; skipping AutoMigrate on startup")
	}

	workerCtx, cancelWorkers := context.WithCancel(context.Background())
	defer cancelWorkers()
	// Default: drain the outbox in-process. Deployments that run
	// cmd/outbox-dispatcher as its own worker set this to false.
	if !strings.EqualFold(strings.TrimSpace(os.Getenv("OUTBOX_DISPATCHER_IN_SERVER")), "false") {
		go workers.NewOutboxDispatcher(logger).Run(workerCtx)
	}
	go workers.NewLifecycleSweeper(logger).Run(workerCtx)

	logger.WithFields(logrus.Fields{"port": port}).Info("server started")

	select {
	case <-sigCtx.Done():
		// graceful shutdown below
	case err := <-serverErrCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithFields(logrus.Fields{"field": "http"}).Error("server stopped unexpectedly: " + err.Error())
		}
	}

	cancelWorkers()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithFields(logrus.Fields{"field": "http"}).Error("graceful shutdown failed: " + err.Error())
	}

	if rdb := config.GetRedisDB(); rdb != nil {
		_ = rdb.Close()
	}
}
