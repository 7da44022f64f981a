package services

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/paymentintent"
	"github.com/stripe/stripe-go/v81/webhook"

	"blackjack-table-go/internal/config"
	"blackjack-table-go/internal/models"
)

var ErrUnknownPack = errors.New("unknown chip pack")

// ChipPack is a purchasable bundle of play chips.
type ChipPack struct {
	ID          string `json:"id"`
	Chips       int64  `json:"chips"`
	AmountCents int64  `json:"amount_cents"`
}

// ChipPacks is the fixed catalog. Prices are in USD cents.
var ChipPacks = []ChipPack{
	{ID: "starter", Chips: 500, AmountCents: 499},
	{ID: "standard", Chips: 1200, AmountCents: 999},
	{ID: "highroller", Chips: 3000, AmountCents: 1999},
}

func packByID(id string) (ChipPack, bool) {
	for _, p := range ChipPacks {
		if p.ID == id {
			return p, true
		}
	}
	return ChipPack{}, false
}

// ChipService sells chip packs through Stripe PaymentIntents. The
// wallet is only credited from the payment_intent.succeeded webhook, so
// a client that never confirms the intent costs nothing.
type ChipService struct {
	db            *sql.DB
	webhookSecret string
}

func NewChipService(db *sql.DB, cfg config.Config) *ChipService {
	stripe.Key = cfg.StripeSecretKey
	return &ChipService{db: db, webhookSecret: cfg.StripeWebhookSecret}
}

// CreatePurchaseIntent creates a pending purchase row and the matching
// Stripe PaymentIntent, returning the client secret for confirmation.
func (s *ChipService) CreatePurchaseIntent(userID int64, packID string) (clientSecret string, err error) {
	pack, ok := packByID(packID)
	if !ok {
		return "", ErrUnknownPack
	}

	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(pack.AmountCents),
		Currency: stripe.String(string(stripe.CurrencyUSD)),
	}
	params.AddMetadata("user_id", fmt.Sprintf("%d", userID))
	params.AddMetadata("pack", pack.ID)

	pi, err := paymentintent.New(params)
	if err != nil {
		return "", fmt.Errorf("create payment intent: %w", err)
	}

	if err := models.InsertChipPurchase(s.db, userID, pi.ID, pack.ID, pack.Chips, pack.AmountCents); err != nil {
		return "", fmt.Errorf("record purchase: %w", err)
	}
	return pi.ClientSecret, nil
}

// HandleWebhook verifies the Stripe signature and credits the wallet on
// payment_intent.succeeded. Crediting is idempotent (guarded by the
// purchase row's pending status), so Stripe retries are safe.
func (s *ChipService) HandleWebhook(payload []byte, sigHeader string) error {
	event, err := webhook.ConstructEvent(payload, sigHeader, s.webhookSecret)
	if err != nil {
		return fmt.Errorf("verify webhook signature: %w", err)
	}

	switch event.Type {
	case "payment_intent.succeeded":
		var pi stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
			return fmt.Errorf("decode payment intent: %w", err)
		}
		userID, chips, ok, err := models.MarkPurchaseCredited(s.db, pi.ID)
		if err != nil {
			return fmt.Errorf("credit purchase %s: %w", pi.ID, err)
		}
		if ok {
			log.Printf("chips: credited %d chips to user %d (intent %s)", chips, userID, pi.ID)
		}
	default:
		// Other event types are subscribed-but-ignored.
	}
	return nil
}
