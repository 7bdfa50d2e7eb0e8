package model

// Order is a purchase record extracted from an order-confirmation email.
type Order struct {
	Product string `json:"product"`
	Price   string `json:"price"`
	Date    string `json:"date"`
	Source  string `json:"source"`
}
