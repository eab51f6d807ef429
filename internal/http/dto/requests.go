package dto

type RegisterRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type CreateOfferRequest struct {
	CryptoCurrency string   `json:"crypto_currency"`
	FiatCurrency   string   `json:"fiat_currency"`
	PriceType      string   `json:"price_type"` // fixed / floating
	PriceValue     string   `json:"price_value"`
	MinAmount      string   `json:"min_amount"`
	MaxAmount      string   `json:"max_amount"`
	CryptoAmount   string   `json:"crypto_amount"`
	PaymentMethods []string `json:"payment_methods"`
	Terms          *string  `json:"terms,omitempty"`
}

type CreateTradeRequest struct {
	OfferID       string `json:"offer_id"`
	CryptoAmount  string `json:"crypto_amount"`
	PaymentMethod string `json:"payment_method"`
}

// TradeActionRequest covers mark-paid, release-crypto and cancel. Older
// frontend builds send order_id and user_id; the id alias is honored, the
// user field is ignored in favor of the JWT subject.
type TradeActionRequest struct {
	TradeID string `json:"trade_id"`
	OrderID string `json:"order_id,omitempty"`
}

func (r *TradeActionRequest) ID() string {
	if r.TradeID != "" {
		return r.TradeID
	}
	return r.OrderID
}

type RaiseDisputeRequest struct {
	TradeID string `json:"trade_id"`
	OrderID string `json:"order_id,omitempty"`
	Reason  string `json:"reason"`
}

func (r *RaiseDisputeRequest) ID() string {
	if r.TradeID != "" {
		return r.TradeID
	}
	return r.OrderID
}

type AddEvidenceRequest struct {
	DisputeID    string  `json:"dispute_id"`
	EvidenceType string  `json:"evidence_type"` // screenshot / bank_statement / message
	Description  string  `json:"description"`
	FileURL      *string `json:"file_url,omitempty"`
}

type ResolveDisputeRequest struct {
	Outcome string `json:"outcome"` // release_to_buyer / refund_to_seller
}

// PostMessageRequest accepts both body shapes seen in the wild: newer
// clients send text, older ones send message (plus a user_id that is
// ignored in favor of the JWT subject).
type PostMessageRequest struct {
	Text          string  `json:"text"`
	Message       string  `json:"message,omitempty"`
	AttachmentURL *string `json:"attachment_url,omitempty"`
}

func (r *PostMessageRequest) Body() string {
	if r.Text != "" {
		return r.Text
	}
	return r.Message
}

type DepositRequest struct {
	Currency string `json:"currency"`
	Amount   string `json:"amount"`
}
