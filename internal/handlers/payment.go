package handlers

import (
	"errors"
	"net/http"

	"blackjack-table-go/internal/services"

	"github.com/gin-gonic/gin"
)

type PaymentHandler struct {
	chips *services.ChipService
}

func NewPaymentHandler(chips *services.ChipService) *PaymentHandler {
	return &PaymentHandler{chips: chips}
}

// GetPacks returns the chip pack catalog.
// GET /api/payments/packs
func (h *PaymentHandler) GetPacks(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"packs": services.ChipPacks})
}

// CreatePurchase starts a chip purchase and returns the PaymentIntent
// client secret for confirmation.
// POST /api/payments/purchase
func (h *PaymentHandler) CreatePurchase(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req struct {
		Pack string `json:"pack"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	secret, err := h.chips.CreatePurchaseIntent(userID, req.Pack)
	if err != nil {
		if errors.Is(err, services.ErrUnknownPack) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown chip pack"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create purchase"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"client_secret": secret})
}

// HandleWebhook processes Stripe webhook events. Crediting is
// idempotent, so Stripe retries and duplicate deliveries are safe.
// POST /api/payments/webhook
func (h *PaymentHandler) HandleWebhook(c *gin.Context) {
	payload, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read request body"})
		return
	}
	signature := c.GetHeader("Stripe-Signature")

	if err := h.chips.HandleWebhook(payload, signature); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"received": true})
}
