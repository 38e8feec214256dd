package checkout

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/pmorrison-au/teashop-backend/pkg/db/models"
)

// ItemDTO is one frozen line of the checkout view.
type ItemDTO struct {
	Name      string `json:"name"`
	UnitPrice string `json:"unit_price"`
	Quantity  int    `json:"quantity"`
	LineTotal string `json:"line_total"`
}

// View is the checkout payload the payment page renders. ClientSecret is
// what the browser hands to the gateway's JS to confirm the intent.
type View struct {
	OrderID      uuid.UUID `json:"order_id"`
	Status       string    `json:"status"`
	ClientSecret string    `json:"client_secret"`
	TotalPrice   string    `json:"total_price"`
	Currency     string    `json:"currency"`
	Items        []ItemDTO `json:"items"`
	CreatedAt    time.Time `json:"created_at"`
}

// AddressInput is a validated shipping address.
type AddressInput struct {
	Street     string `json:"street" validate:"required"`
	City       string `json:"city" validate:"required"`
	State      string `json:"state" validate:"required"`
	PostalCode string `json:"postal_code" validate:"required"`
	Country    string `json:"country" validate:"required"`
}

// DetailsInput carries the contact form submitted on the payment page.
// ClientSecret proves the submitter actually holds the checkout session.
type DetailsInput struct {
	Email         string       `json:"email" validate:"required,email"`
	ClientSecret  string       `json:"client_secret" validate:"required"`
	Address       AddressInput `json:"address" validate:"required"`
	SaveToProfile bool         `json:"save_to_profile"`
}

// ConfirmState tells the success page what to render.
type ConfirmState string

const (
	// ConfirmStateSuccess means payment landed and the order is settled.
	ConfirmStateSuccess ConfirmState = "success"
	// ConfirmStateProcessing means the gateway redirect beat the webhook;
	// the page should poll.
	ConfirmStateProcessing ConfirmState = "processing"
)

// ConfirmResult is the outcome of the post-payment redirect check.
type ConfirmResult struct {
	State   ConfirmState `json:"state"`
	OrderID uuid.UUID    `json:"order_id"`
}

func newView(order *models.Order, snapshot *models.FrozenCart) *View {
	view := &View{
		OrderID:      order.ID,
		Status:       string(order.Status),
		ClientSecret: order.PaymentClientSecret,
		TotalPrice:   snapshot.TotalPrice.StringFixed(2),
		Currency:     string(snapshot.Currency),
		CreatedAt:    order.CreatedAt,
	}
	for _, item := range snapshot.Items {
		lineTotal := item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity)))
		view.Items = append(view.Items, ItemDTO{
			Name:      item.Name,
			UnitPrice: item.UnitPrice.StringFixed(2),
			Quantity:  item.Quantity,
			LineTotal: lineTotal.StringFixed(2),
		})
	}
	return view
}
