package order

import "github.com/salesapp/sales-management/internal/models"

// transitions holds the allowed fulfillment-status moves. completed is a
// terminal alias reached from pending when payment is marked paid.
var transitions = map[string][]string{
	models.OrderStatusPending:    {models.OrderStatusProcessing, models.OrderStatusCancelled, models.OrderStatusCompleted},
	models.OrderStatusProcessing: {models.OrderStatusShipped, models.OrderStatusCancelled},
	models.OrderStatusShipped:    {models.OrderStatusDelivered},
	models.OrderStatusDelivered:  {},
	models.OrderStatusCompleted:  {},
	models.OrderStatusCancelled:  {},
}

func IsTerminal(status string) bool {
	switch status {
	case models.OrderStatusDelivered, models.OrderStatusCompleted, models.OrderStatusCancelled:
		return true
	}
	return false
}

func CanTransition(from, to string) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func ValidStatus(status string) bool {
	_, ok := transitions[status]
	return ok
}
