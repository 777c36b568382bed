package models

// PaymentKind identifies the active payment variant.
type PaymentKind string

// Payment kinds
const (
	PaymentKindNone       PaymentKind = ""
	PaymentKindCash       PaymentKind = "cash"
	PaymentKindCreditCard PaymentKind = "credit_card"
	PaymentKindPayPal     PaymentKind = "paypal"
)

// PaymentSelection is a tagged union over the supported payment methods.
// Only the fields of the active kind are meaningful.
type PaymentSelection struct {
	Kind           PaymentKind `json:"kind"`
	CardholderName string      `json:"cardholderName,omitempty"`
	CardToken      string      `json:"cardToken,omitempty"`
}

// CashPayment returns a resolved cash selection.
func CashPayment() PaymentSelection {
	return PaymentSelection{Kind: PaymentKindCash}
}

// CreditCardPayment returns a credit card selection. It is only resolved once
// both cardholder name and token are present.
func CreditCardPayment(cardholderName, cardToken string) PaymentSelection {
	return PaymentSelection{
		Kind:           PaymentKindCreditCard,
		CardholderName: cardholderName,
		CardToken:      cardToken,
	}
}

// PayPalPayment returns a resolved PayPal selection.
func PayPalPayment() PaymentSelection {
	return PaymentSelection{Kind: PaymentKindPayPal}
}

// Resolved reports whether the selection is complete enough to count as a
// committed payment step. Credit card requires a cardholder name and a card
// token issued by the payment gateway.
func (p PaymentSelection) Resolved() bool {
	switch p.Kind {
	case PaymentKindCash, PaymentKindPayPal:
		return true
	case PaymentKindCreditCard:
		return p.CardholderName != "" && p.CardToken != ""
	default:
		return false
	}
}
