// Package helpers reads details out of payment payloads. The results are
// informational only: access decisions rest on the facilitator's verdict.
package helpers

import (
	"encoding/json"

	"github.com/ethereum/go-ethereum/common"

	"github.com/mark3labs/x402-gate"
)

// GetPayer returns the address a payment claims to be paid from, or "" when
// the payload does not reveal it.
func GetPayer(payment x402.PaymentPayload) string {
	chain, ok := x402.ChainForNetwork(payment.Network)
	if !ok {
		return ""
	}

	switch chain.Type {
	case x402.NetworkTypeEVM:
		return getPayerWithEVM(payment.Payload)
	case x402.NetworkTypeSVM:
		payer, err := getPayerWithSolana(payment.Payload)
		if err != nil {
			return ""
		}
		return payer
	default:
		return ""
	}
}

// getPayerWithEVM reads authorization.from of an EIP-3009 exact payload.
func getPayerWithEVM(raw json.RawMessage) string {
	var payload struct {
		Authorization struct {
			From string `json:"from"`
		} `json:"authorization"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return ""
	}
	from := payload.Authorization.From
	if !common.IsHexAddress(from) {
		return ""
	}
	return common.HexToAddress(from).Hex()
}
