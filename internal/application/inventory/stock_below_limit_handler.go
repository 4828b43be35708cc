package inventory

import (
	"context"
	"fmt"

	"github.com/shopledger/backend/internal/domain/inventory"
	"github.com/shopledger/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// StockBelowLimitHandler handles StockBelowLimit events
// and raises a low-stock alert for the shop
type StockBelowLimitHandler struct {
	logger   *zap.Logger
	notifier StockAlertNotifier
	counter  AlertCounter
}

// StockAlertNotifier is the interface for sending stock alerts
type StockAlertNotifier interface {
	// SendAlert sends a stock alert notification
	SendAlert(ctx context.Context, alert StockAlert) error
}

// AlertCounter counts alerts raised, by alert type
type AlertCounter interface {
	IncLowStockAlert(alertType string)
}

// StockAlert represents a stock level alert
type StockAlert struct {
	InventoryID  string `json:"inventory_id"`
	ShopID       string `json:"shop_id"`
	ProductID    string `json:"product_id"`
	UnitID       string `json:"unit_id"`
	CurrentStock string `json:"current_stock"`
	StockLimit   string `json:"stock_limit"`
	AlertType    string `json:"alert_type"` // "low_stock", "out_of_stock"
}

// NewStockBelowLimitHandler creates a new handler for stock below limit events
func NewStockBelowLimitHandler(logger *zap.Logger) *StockBelowLimitHandler {
	return &StockBelowLimitHandler{
		logger: logger,
	}
}

// WithNotifier sets the notifier for sending alerts
func (h *StockBelowLimitHandler) WithNotifier(notifier StockAlertNotifier) *StockBelowLimitHandler {
	h.notifier = notifier
	return h
}

// WithCounter sets the alert counter
func (h *StockBelowLimitHandler) WithCounter(counter AlertCounter) *StockBelowLimitHandler {
	h.counter = counter
	return h
}

// EventTypes returns the event types this handler is interested in
func (h *StockBelowLimitHandler) EventTypes() []string {
	return []string{inventory.EventTypeStockBelowLimit}
}

// Handle processes a StockBelowLimitEvent
func (h *StockBelowLimitHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	limitEvent, ok := event.(*inventory.StockBelowLimitEvent)
	if !ok {
		h.logger.Error("unexpected event type",
			zap.String("expected", inventory.EventTypeStockBelowLimit),
			zap.String("actual", event.EventType()),
		)
		return fmt.Errorf("unexpected event type: expected %s, got %s",
			inventory.EventTypeStockBelowLimit, event.EventType())
	}

	alertType := "low_stock"
	if limitEvent.CurrentStock.IsZero() {
		alertType = "out_of_stock"
	}

	h.logger.Warn("stock below limit detected",
		zap.String("inventory_id", limitEvent.InventoryID.String()),
		zap.String("shop_id", limitEvent.ShopID.String()),
		zap.String("product_id", limitEvent.ProductID.String()),
		zap.String("current_stock", limitEvent.CurrentStock.String()),
		zap.String("stock_limit", limitEvent.Limit.String()),
		zap.String("alert_type", alertType),
	)

	if h.counter != nil {
		h.counter.IncLowStockAlert(alertType)
	}

	alert := StockAlert{
		InventoryID:  limitEvent.InventoryID.String(),
		ShopID:       limitEvent.ShopID.String(),
		ProductID:    limitEvent.ProductID.String(),
		UnitID:       limitEvent.UnitID.String(),
		CurrentStock: limitEvent.CurrentStock.String(),
		StockLimit:   limitEvent.Limit.String(),
		AlertType:    alertType,
	}

	if h.notifier != nil {
		if err := h.notifier.SendAlert(ctx, alert); err != nil {
			// Notification failure doesn't fail the event handling
			h.logger.Error("failed to send stock alert notification",
				zap.String("inventory_id", alert.InventoryID),
				zap.Error(err),
			)
		}
	}

	return nil
}

// Ensure StockBelowLimitHandler implements shared.EventHandler
var _ shared.EventHandler = (*StockBelowLimitHandler)(nil)

// LoggingStockAlertNotifier is a notifier that only logs alerts
type LoggingStockAlertNotifier struct {
	logger *zap.Logger
}

// NewLoggingStockAlertNotifier creates a new logging notifier
func NewLoggingStockAlertNotifier(logger *zap.Logger) *LoggingStockAlertNotifier {
	return &LoggingStockAlertNotifier{
		logger: logger,
	}
}

// SendAlert logs the stock alert
func (n *LoggingStockAlertNotifier) SendAlert(ctx context.Context, alert StockAlert) error {
	n.logger.Warn("STOCK ALERT",
		zap.String("type", alert.AlertType),
		zap.String("product_id", alert.ProductID),
		zap.String("shop_id", alert.ShopID),
		zap.String("current_stock", alert.CurrentStock),
		zap.String("stock_limit", alert.StockLimit),
	)
	return nil
}

var _ StockAlertNotifier = (*LoggingStockAlertNotifier)(nil)
