package handlers

import (
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/mongo"

	"tradebill/api/internal/models"
	"tradebill/api/internal/services"
	"tradebill/api/internal/utils"
)

// InvoiceHandler handles invoice requests.
type InvoiceHandler struct {
	invoiceService services.IInvoiceService
}

// NewInvoiceHandler creates a new InvoiceHandler.
func NewInvoiceHandler(invoiceService services.IInvoiceService) *InvoiceHandler {
	return &InvoiceHandler{invoiceService: invoiceService}
}

func invoiceIDParam(c *gin.Context) (utils.SixID, bool) {
	id, err := utils.ParseSixID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Invoice not found"})
		return utils.SixID{}, false
	}
	return id, true
}

// CreateInvoice handles POST /invoices.
func (h *InvoiceHandler) CreateInvoice(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid authentication context"})
		return
	}

	var in services.InvoiceInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	invoice, err := h.invoiceService.CreateInvoice(c.Request.Context(), userID, in)
	if err != nil {
		log.Printf("CreateInvoice failed for user %s: %v", userID.String(), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create invoice"})
		return
	}

	c.JSON(http.StatusCreated, toInvoiceResponse(invoice))
}

// ListInvoices handles GET /invoices. Entries are newest-first and carry a
// computed total but not the full line items.
func (h *InvoiceHandler) ListInvoices(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid authentication context"})
		return
	}

	invoices, err := h.invoiceService.ListInvoices(c.Request.Context(), userID)
	if err != nil {
		log.Printf("ListInvoices failed for user %s: %v", userID.String(), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list invoices"})
		return
	}

	entries := make([]InvoiceListEntry, len(invoices))
	for i := range invoices {
		entries[i] = toInvoiceListEntry(&invoices[i])
	}
	c.JSON(http.StatusOK, entries)
}

// GetInvoice handles GET /invoices/:id.
func (h *InvoiceHandler) GetInvoice(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid authentication context"})
		return
	}
	invoiceID, ok := invoiceIDParam(c)
	if !ok {
		return
	}

	invoice, err := h.invoiceService.FindInvoiceByID(c.Request.Context(), userID, invoiceID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Invoice not found"})
			return
		}
		log.Printf("GetInvoice %s failed for user %s: %v", invoiceID.String(), userID.String(), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load invoice"})
		return
	}

	c.JSON(http.StatusOK, toInvoiceResponse(invoice))
}

// UpdateInvoice handles PUT /invoices/:id — a full replace of the invoice's
// fields and line items.
func (h *InvoiceHandler) UpdateInvoice(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid authentication context"})
		return
	}
	invoiceID, ok := invoiceIDParam(c)
	if !ok {
		return
	}

	var in services.InvoiceInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	invoice, err := h.invoiceService.UpdateInvoice(c.Request.Context(), userID, invoiceID, in)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Invoice not found"})
			return
		}
		log.Printf("UpdateInvoice %s failed for user %s: %v", invoiceID.String(), userID.String(), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update invoice"})
		return
	}

	c.JSON(http.StatusOK, toInvoiceResponse(invoice))
}

type statusUpdateRequest struct {
	Status string `json:"status" binding:"required,oneof=draft sent paid"`
}

// UpdateStatus handles PATCH /invoices/:id/status.
func (h *InvoiceHandler) UpdateStatus(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid authentication context"})
		return
	}
	invoiceID, ok := invoiceIDParam(c)
	if !ok {
		return
	}

	var req statusUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	invoice, err := h.invoiceService.UpdateStatus(c.Request.Context(), userID, invoiceID, models.InvoiceStatus(req.Status))
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Invoice not found"})
			return
		}
		log.Printf("UpdateStatus %s failed for user %s: %v", invoiceID.String(), userID.String(), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update invoice status"})
		return
	}

	c.JSON(http.StatusOK, toInvoiceResponse(invoice))
}

// SendInvoice handles POST /invoices/:id/send.
func (h *InvoiceHandler) SendInvoice(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid authentication context"})
		return
	}
	invoiceID, ok := invoiceIDParam(c)
	if !ok {
		return
	}

	invoice, err := h.invoiceService.SendInvoice(c.Request.Context(), userID, invoiceID)
	if err != nil {
		switch {
		case errors.Is(err, mongo.ErrNoDocuments):
			c.JSON(http.StatusNotFound, gin.H{"error": "Invoice not found"})
		case errors.Is(err, services.ErrAlreadySent):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invoice has already been sent"})
		case errors.Is(err, services.ErrProfileIncomplete):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Business profile not set up. Please complete your business profile first."})
		default:
			log.Printf("SendInvoice %s failed for user %s: %v", invoiceID.String(), userID.String(), err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": fmt.Sprintf("Failed to send invoice: %v", err)})
		}
		return
	}

	c.JSON(http.StatusOK, toInvoiceResponse(invoice))
}

// GetComplianceNotes handles GET /invoices/templates/compliance-notes.
// Public: the texts are static and not user-specific.
func (h *InvoiceHandler) GetComplianceNotes(c *gin.Context) {
	tradeType := c.Query("trade_type")
	notes := services.ComplianceNotes(models.TradeType(tradeType))
	c.JSON(http.StatusOK, gin.H{
		"trade_type":       tradeType,
		"compliance_notes": notes,
	})
}
