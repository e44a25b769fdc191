package http

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/grocerycalc/backend/internal/domain"
	"github.com/grocerycalc/backend/internal/infrastructure/export"
	"github.com/grocerycalc/backend/internal/usecase"
)

// Handler holds dependencies for HTTP handlers
type Handler struct {
	catalog  *usecase.CatalogService
	sessions *usecase.SessionRegistry
}

// NewHandler creates a new HTTP handler
func NewHandler(catalog *usecase.CatalogService, sessions *usecase.SessionRegistry) *Handler {
	return &Handler{
		catalog:  catalog,
		sessions: sessions,
	}
}

type productResponse struct {
	ID      string     `json:"id"`
	Name    string     `json:"name"`
	Barcode string     `json:"barcode"`
	Price   string     `json:"price"`
	AddedAt *time.Time `json:"addedAt,omitempty"`
}

type lineResponse struct {
	Name      string `json:"name"`
	Price     string `json:"price"`
	Quantity  int    `json:"quantity"`
	LineTotal string `json:"lineTotal"`
}

type cartResponse struct {
	SessionID   string         `json:"sessionId"`
	Lines       []lineResponse `json:"lines"`
	MasterTotal string         `json:"masterTotal"`
}

func toProductResponse(p domain.Product) productResponse {
	resp := productResponse{
		ID:      p.ID,
		Name:    p.Name,
		Barcode: p.Barcode,
		Price:   domain.FormatAmount(p.Price),
	}
	if !p.AddedAt.IsZero() {
		added := p.AddedAt
		resp.AddedAt = &added
	}
	return resp
}

func toProductResponses(products []domain.Product) []productResponse {
	out := make([]productResponse, 0, len(products))
	for _, p := range products {
		out = append(out, toProductResponse(p))
	}
	return out
}

func toCartResponse(sessionID string, view usecase.CartView) cartResponse {
	lines := make([]lineResponse, 0, len(view.Lines))
	for _, l := range view.Lines {
		lines = append(lines, lineResponse{
			Name:      l.Name,
			Price:     domain.FormatAmount(l.Price),
			Quantity:  l.Quantity,
			LineTotal: domain.FormatAmount(l.Total()),
		})
	}
	return cartResponse{
		SessionID:   sessionID,
		Lines:       lines,
		MasterTotal: domain.FormatAmount(view.MasterTotal),
	}
}

// respondError maps domain errors onto HTTP status codes
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrInvalidPrice), errors.Is(err, domain.ErrInvalidRequest):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrSessionNotFound),
		errors.Is(err, domain.ErrLineNotFound),
		errors.Is(err, domain.ErrProductNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrRemoteUnavailable):
		status = http.StatusBadGateway
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":      "healthy",
		"service":     "grocerycalc-backend",
		"version":     "1.0.0",
		"catalogSize": len(h.catalog.Current()),
		"sessions":    h.sessions.Len(),
	})
}

// SyncCatalog reconciles the remote catalog with the local snapshot.
// A remote failure still answers 200 with offline set.
func (h *Handler) SyncCatalog(c *gin.Context) {
	result := h.catalog.Sync(c.Request.Context())

	body := gin.H{
		"outcome":  result.Outcome,
		"offline":  result.Offline,
		"count":    len(result.Catalog),
		"newItems": toProductResponses(result.NewProducts),
	}
	if result.FetchErr != nil {
		body["warning"] = result.FetchErr.Error()
	}
	if result.SaveErr != nil {
		body["saveError"] = result.SaveErr.Error()
	}
	c.JSON(http.StatusOK, body)
}

// GetCatalog returns the catalog currently used for scanning
func (h *Handler) GetCatalog(c *gin.Context) {
	products := h.catalog.Current()
	c.JSON(http.StatusOK, gin.H{
		"products": toProductResponses(products),
		"count":    len(products),
	})
}

// ExportCatalog downloads the current catalog as an xlsx workbook
func (h *Handler) ExportCatalog(c *gin.Context) {
	data, err := export.CatalogWorkbook(h.catalog.Current())
	if err != nil {
		respondError(c, err)
		return
	}

	fileName := fmt.Sprintf("products_%s.xlsx", time.Now().Format("20060102_150405"))
	c.Header("Content-Disposition", "attachment; filename="+fileName)
	c.Data(http.StatusOK, export.ContentType, data)
}

// ListProducts returns the remote catalog for administration
func (h *Handler) ListProducts(c *gin.Context) {
	products, err := h.catalog.ListRemote(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"products": toProductResponses(products),
		"count":    len(products),
	})
}

// productRequest accepts price as either a JSON number or a string, the way
// form fields arrive.
type productRequest struct {
	Name    *string     `json:"name"`
	Barcode *string     `json:"barcode"`
	Price   interface{} `json:"price"`
}

// priceText renders the raw price field as text for validation
func priceText(v interface{}) (string, bool) {
	switch p := v.(type) {
	case nil:
		return "", false
	case string:
		return p, true
	case float64:
		return strconv.FormatFloat(p, 'f', -1, 64), true
	default:
		return fmt.Sprint(p), true
	}
}

// CreateProduct adds a product to the remote catalog
func (h *Handler) CreateProduct(c *gin.Context) {
	var req productRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, fmt.Errorf("%w: %v", domain.ErrInvalidRequest, err))
		return
	}

	var name, barcode string
	if req.Name != nil {
		name = *req.Name
	}
	if req.Barcode != nil {
		barcode = *req.Barcode
	}
	price, _ := priceText(req.Price)

	id, err := h.catalog.CreateProduct(c.Request.Context(), name, barcode, price)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": id})
}

// UpdateProduct edits a product in the remote catalog
func (h *Handler) UpdateProduct(c *gin.Context) {
	var req productRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, fmt.Errorf("%w: %v", domain.ErrInvalidRequest, err))
		return
	}

	var price *string
	if text, ok := priceText(req.Price); ok {
		price = &text
	}

	if err := h.catalog.UpdateProduct(c.Request.Context(), c.Param("id"), req.Name, req.Barcode, price); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": c.Param("id")})
}

// DeleteProduct removes a product from the remote catalog
func (h *Handler) DeleteProduct(c *gin.Context) {
	if err := h.catalog.DeleteProduct(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// CreateSession starts a scanning session with an empty cart
func (h *Handler) CreateSession(c *gin.Context) {
	session := h.sessions.Create()
	c.JSON(http.StatusCreated, gin.H{
		"id":        session.ID,
		"createdAt": session.CreatedAt,
	})
}

// EndSession discards a session and its cart
func (h *Handler) EndSession(c *gin.Context) {
	if err := h.sessions.End(c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) session(c *gin.Context) (*usecase.Session, bool) {
	session, err := h.sessions.Get(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return nil, false
	}
	return session, true
}

// GetCart returns the session's cart with line and master totals
func (h *Handler) GetCart(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, toCartResponse(session.ID, session.View()))
}

type scanRequest struct {
	Code string `json:"code" binding:"required"`
}

func scanBody(result usecase.ResolveResult) gin.H {
	body := gin.H{"outcome": result.Outcome}
	if result.Product != nil {
		body["product"] = toProductResponse(*result.Product)
	}
	return body
}

// Scan resolves a barcode. A miss is reported as an outcome, not an error.
func (h *Handler) Scan(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	var req scanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, fmt.Errorf("%w: %v", domain.ErrInvalidRequest, err))
		return
	}

	c.JSON(http.StatusOK, scanBody(session.Scan(req.Code)))
}

// ConfirmScan resolves a barcode and adds the product to the cart when found
func (h *Handler) ConfirmScan(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	var req scanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, fmt.Errorf("%w: %v", domain.ErrInvalidRequest, err))
		return
	}

	result, view := session.ConfirmCode(req.Code)
	body := scanBody(result)
	body["cart"] = toCartResponse(session.ID, view)
	c.JSON(http.StatusOK, body)
}

// lineRequest names the cart line to change. Names may contain '/'.
type lineRequest struct {
	Name string `json:"name" binding:"required"`
}

func (h *Handler) lineOp(c *gin.Context, op func(*usecase.Session, string) (usecase.CartView, error)) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	var req lineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, fmt.Errorf("%w: %v", domain.ErrInvalidRequest, err))
		return
	}

	view, err := op(session, req.Name)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toCartResponse(session.ID, view))
}

// IncrementLine bumps a cart line's quantity
func (h *Handler) IncrementLine(c *gin.Context) {
	h.lineOp(c, (*usecase.Session).Increment)
}

// DecrementLine lowers a cart line's quantity, never below 1
func (h *Handler) DecrementLine(c *gin.Context) {
	h.lineOp(c, (*usecase.Session).Decrement)
}

// RemoveLine deletes a cart line
func (h *Handler) RemoveLine(c *gin.Context) {
	h.lineOp(c, (*usecase.Session).Remove)
}
