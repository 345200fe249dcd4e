package http

import (
	"bytes"
	"embed"
	"html/template"

	"github.com/mark3labs/x402-gate"
)

//go:embed templates/paywall.html
var templateFS embed.FS

var paywallTemplate = template.Must(template.ParseFS(templateFS, "templates/paywall.html"))

type paywallData struct {
	Message     string
	Requirement x402.PaymentRequirement
	Amount      string
	Token       string
	// Requirements is embedded as JSON for wallet scripts.
	Requirements x402.PaymentRequirementsResponse
}

func renderPaywall(body x402.PaymentRequirementsResponse, decimals int) ([]byte, error) {
	req := body.Accepts[0]

	amount, err := x402.FromAtomic(req.MaxAmountRequired, decimals)
	if err != nil {
		amount = req.MaxAmountRequired
	}

	token := req.Asset
	if chain, ok := x402.ChainForNetwork(req.Network); ok && chain.USDCAddress == req.Asset {
		token = "USDC"
	}

	var buf bytes.Buffer
	err = paywallTemplate.Execute(&buf, paywallData{
		Message:      body.Error,
		Requirement:  req,
		Amount:       amount,
		Token:        token,
		Requirements: body,
	})
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
