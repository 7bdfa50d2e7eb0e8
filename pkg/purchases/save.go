package purchases

import (
	"fmt"

	"ai-partner-be/internal/model"
	"ai-partner-be/pkg/knowledge"
)

// SaveOrders appends each order to the knowledge store as a purchase
// document, so later searches can surface it as context.
func SaveOrders(store *knowledge.Store, orders []model.Order) {
	for _, order := range orders {
		id := fmt.Sprintf("amazon_%s_%s", order.Date, truncateRunes(order.Product, 10))
		text := fmt.Sprintf("購入日: %s\n商品: %s\n価格: %s", order.Date, order.Product, order.Price)
		store.AppendWithID(id, text, map[string]string{
			"type":   "purchase",
			"source": order.Source,
			"date":   order.Date,
		})
	}
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
