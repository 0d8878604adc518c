package handlers

import (
	"errors"
	"fmt"

	"bazaar/internal/middleware"
	"bazaar/internal/models"
	"bazaar/internal/services"
	"bazaar/pkg/razorpay"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"
)

// OrderHandler handles HTTP requests for checkout and the order lifecycle.
type OrderHandler struct {
	checkoutService *services.CheckoutService
	orderService    *services.OrderService
	validate        *validator.Validate
	logger          *log.Entry
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(checkoutService *services.CheckoutService, orderService *services.OrderService) *OrderHandler {
	return &OrderHandler{
		checkoutService: checkoutService,
		orderService:    orderService,
		validate:        validator.New(),
		logger:          log.WithField("component", "order-handler"),
	}
}

// RegisterRoutes registers the order routes with the Fiber app. The webhook
// stays outside the auth group: the gateway authenticates by signature.
func (h *OrderHandler) RegisterRoutes(router fiber.Router, auth fiber.Handler) {
	router.Post("/payments/webhook", h.HandleWebhook)

	orderRoutes := router.Group("/orders", auth)
	orderRoutes.Post("/checkout", h.HandleCheckout)
	orderRoutes.Post("/verify-payment", h.HandleVerifyPayment)
	orderRoutes.Get("/", h.HandleListOrders)
	orderRoutes.Get("/:id", h.HandleGetOrder)
	orderRoutes.Post("/:id/cancel", h.HandleCancelOrder)
	orderRoutes.Post("/:id/return", h.HandleReturnOrder)
}

// CheckoutRequest is the checkout request body.
type CheckoutRequest struct {
	Amount        float64            `json:"amount" validate:"required,gt=0"`
	TotalDiscount float64            `json:"total_discount" validate:"gte=0"`
	PaymentType   string             `json:"payment_type" validate:"required,oneof=COD Pre-Paid"`
	Products      []models.OrderItem `json:"products" validate:"required,min=1,dive"`
	Address       models.Address     `json:"address" validate:"required"`
}

// HandleCheckout creates an order from the caller's cart. COD orders are
// returned directly; Pre-Paid responses carry the gateway payment order the
// client completes the payment against.
func (h *OrderHandler) HandleCheckout(c *fiber.Ctx) error {
	var req CheckoutRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	if err := h.validate.Struct(req); err != nil {
		return validationError(c, err)
	}

	userID, _ := middleware.Principal(c)
	order, paymentOrder, err := h.checkoutService.Checkout(c.Context(), userID, services.CheckoutRequest{
		Amount:        req.Amount,
		TotalDiscount: req.TotalDiscount,
		PaymentType:   req.PaymentType,
		Items:         req.Products,
		Address:       req.Address,
	})
	if err != nil {
		h.logger.WithError(err).Warn("Checkout failed")
		return orderError(c, err)
	}

	if paymentOrder != nil {
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"message":       "Payment in process",
			"order":         order,
			"payment_order": paymentOrder,
		})
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Order successfully created",
		"order":   order,
	})
}

// VerifyPaymentRequest is the client-side payment confirmation body.
type VerifyPaymentRequest struct {
	OrderID   string `json:"order_id" validate:"required"`
	PaymentID string `json:"payment_id" validate:"required"`
	Signature string `json:"signature" validate:"required"`
}

// HandleVerifyPayment validates the client-confirm signature. The ledger is
// reconciled by the webhook; this endpoint only tells the client whether the
// confirmation it holds is genuine.
func (h *OrderHandler) HandleVerifyPayment(c *fiber.Ctx) error {
	var req VerifyPaymentRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	if err := h.validate.Struct(req); err != nil {
		return validationError(c, err)
	}

	if err := h.checkoutService.VerifyPayment(req.OrderID, req.PaymentID, req.Signature); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid signature",
		})
	}
	return c.JSON(fiber.Map{
		"message": "Payment verified successfully",
	})
}

// HandleWebhook receives gateway payment events. The gateway retries on any
// non-2xx, so business failures (bad signature, unknown order) are logged
// and acknowledged anyway.
func (h *OrderHandler) HandleWebhook(c *fiber.Ctx) error {
	signature := c.Get(razorpay.SignatureHeader)
	if err := h.checkoutService.HandleWebhook(c.Body(), signature); err != nil {
		h.logger.WithError(err).Warn("Webhook event dropped")
	}
	return c.SendStatus(fiber.StatusOK)
}

// HandleListOrders returns the caller's order history.
func (h *OrderHandler) HandleListOrders(c *fiber.Ctx) error {
	userID, _ := middleware.Principal(c)
	orders, err := h.orderService.ListOrders(userID)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list orders")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not retrieve orders",
		})
	}
	return c.JSON(orders)
}

// HandleGetOrder returns a single order; non-admin callers only see their own.
func (h *OrderHandler) HandleGetOrder(c *fiber.Ctx) error {
	userID, role := middleware.Principal(c)
	order, err := h.orderService.GetOrder(userID, role, c.Params("id"))
	if err != nil {
		return orderError(c, err)
	}
	return c.JSON(order)
}

// HandleCancelOrder cancels a pending order, asking the carrier first when a
// shipment already exists.
func (h *OrderHandler) HandleCancelOrder(c *fiber.Ctx) error {
	userID, role := middleware.Principal(c)
	order, err := h.orderService.Cancel(c.Context(), userID, role, c.Params("id"))
	if err != nil {
		h.logger.WithError(err).WithField("order_id", c.Params("id")).Warn("Cancellation failed")
		return orderError(c, err)
	}
	return c.JSON(fiber.Map{
		"message": "Order cancelled successfully",
		"order":   order,
	})
}

// HandleReturnOrder flags a delivered order as returned.
func (h *OrderHandler) HandleReturnOrder(c *fiber.Ctx) error {
	userID, role := middleware.Principal(c)
	order, err := h.orderService.Return(userID, role, c.Params("id"))
	if err != nil {
		return orderError(c, err)
	}
	return c.JSON(fiber.Map{
		"message": "Return initiated",
		"order":   order,
	})
}

// orderError maps service errors to HTTP responses.
func orderError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, models.ErrUnauthenticated):
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Authentication required"})
	case errors.Is(err, models.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"message": "Not allowed to act on this order"})
	case models.IsNotFound(err):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": err.Error()})
	case errors.Is(err, models.ErrOrderNotPending), errors.Is(err, models.ErrOrderNotDelivered):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"message": err.Error()})
	case errors.Is(err, models.ErrPaymentInitiation):
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"message": "Error in order creation. Please retry after sometime."})
	case errors.Is(err, models.ErrCarrierCancellation):
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"message": "Failed to cancel order with the carrier"})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Internal error", "error": err.Error()})
	}
}

// validationError formats validator failures field by field.
func validationError(c *fiber.Ctx, err error) error {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		errorMessages := make(map[string]string)
		for _, e := range validationErrors {
			errorMessages[e.Field()] = fmt.Sprintf("Field '%s' failed on the '%s' tag", e.Field(), e.Tag())
		}
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Validation failed",
			"errors":  errorMessages,
		})
	}
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"message": "Validation failed",
		"error":   err.Error(),
	})
}
