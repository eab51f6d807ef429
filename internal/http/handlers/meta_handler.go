package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/p2p-exchange/backend/internal/http/dto"
)

// MetaHandler serves the static lists the offer form is built from.
type MetaHandler struct{}

func NewMetaHandler() *MetaHandler {
	return &MetaHandler{}
}

type MetaItem struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

var predefinedPaymentMethods = []MetaItem{
	{ID: "bank_transfer", Label: "Bank Transfer"},
	{ID: "sepa", Label: "SEPA"},
	{ID: "wise", Label: "Wise"},
	{ID: "revolut", Label: "Revolut"},
	{ID: "paypal", Label: "PayPal"},
	{ID: "venmo", Label: "Venmo"},
	{ID: "zelle", Label: "Zelle"},
	{ID: "cash_app", Label: "Cash App"},
	{ID: "alipay", Label: "Alipay"},
	{ID: "wechat_pay", Label: "WeChat Pay"},
	{ID: "upi", Label: "UPI"},
	{ID: "mobile_money", Label: "Mobile Money"},
	{ID: "cash_in_person", Label: "Cash in Person"},
	{ID: "other", Label: "Other"},
}

var predefinedCryptoCurrencies = []MetaItem{
	{ID: "BTC", Label: "Bitcoin"},
	{ID: "ETH", Label: "Ethereum"},
	{ID: "USDT", Label: "Tether"},
	{ID: "USDC", Label: "USD Coin"},
	{ID: "SOL", Label: "Solana"},
	{ID: "TON", Label: "Toncoin"},
	{ID: "LTC", Label: "Litecoin"},
	{ID: "XMR", Label: "Monero"},
}

var predefinedFiatCurrencies = []MetaItem{
	{ID: "USD", Label: "US Dollar"},
	{ID: "EUR", Label: "Euro"},
	{ID: "GBP", Label: "Pound Sterling"},
	{ID: "UAH", Label: "Ukrainian Hryvnia"},
	{ID: "TRY", Label: "Turkish Lira"},
	{ID: "INR", Label: "Indian Rupee"},
	{ID: "BRL", Label: "Brazilian Real"},
	{ID: "NGN", Label: "Nigerian Naira"},
	{ID: "VND", Label: "Vietnamese Dong"},
	{ID: "IDR", Label: "Indonesian Rupiah"},
}

func (h *MetaHandler) GetPaymentMethods(c *fiber.Ctx) error {
	return c.JSON(dto.SuccessResponse{Success: true, Data: predefinedPaymentMethods})
}

func (h *MetaHandler) GetCurrencies(c *fiber.Ctx) error {
	return c.JSON(dto.SuccessResponse{Success: true, Data: fiber.Map{
		"crypto": predefinedCryptoCurrencies,
		"fiat":   predefinedFiatCurrencies,
	}})
}
