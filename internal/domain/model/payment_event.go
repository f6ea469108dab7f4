//revive:disable-next-line:var-naming // legacy package name widely used across the project
package model

import (
	"encoding/json"
	"time"
)

// PaymentEventType names a payment webhook event.
type PaymentEventType string

const (
	PaymentIntentSucceeded PaymentEventType = "payment_intent.succeeded"
	PaymentIntentFailed    PaymentEventType = "payment_intent.payment_failed"
	ChargeSucceeded        PaymentEventType = "charge.succeeded"
)

// PaymentEvent is the envelope of a signed payment webhook delivery.
// Data is kept raw; handlers extract only what they log.
type PaymentEvent struct {
	ID       string           `json:"id"`
	Type     PaymentEventType `json:"type"`
	Created  int64            `json:"created"`
	Livemode bool             `json:"livemode"`
	Data     json.RawMessage  `json:"data"`
}

// CreatedAt returns the event creation time.
func (e PaymentEvent) CreatedAt() time.Time {
	return time.Unix(e.Created, 0).UTC()
}
