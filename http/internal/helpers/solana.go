package helpers

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/gagliardetto/solana-go/programs/token"
)

// getPayerWithSolana decodes the partially signed transaction of an SVM exact
// payload and returns the authority of its first transfer.
func getPayerWithSolana(raw json.RawMessage) (string, error) {
	var payload struct {
		Transaction string `json:"transaction"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return "", fmt.Errorf("invalid payload: %w", err)
	}
	if payload.Transaction == "" {
		return "", errors.New("transaction not found in payload")
	}

	tx, err := solana.TransactionFromBase64(payload.Transaction)
	if err != nil {
		return "", fmt.Errorf("failed to decode transaction: %w", err)
	}

	for _, inst := range tx.Message.Instructions {
		prog, err := tx.Message.ResolveProgramIDIndex(inst.ProgramIDIndex)
		if err != nil {
			continue
		}
		accounts, err := inst.ResolveInstructionAccounts(&tx.Message)
		if err != nil {
			continue
		}

		switch {
		case prog.Equals(solana.SystemProgramID):
			ix, err := system.DecodeInstruction(accounts, inst.Data)
			if err != nil {
				continue
			}
			if t, ok := ix.Impl.(*system.Transfer); ok {
				return t.GetFundingAccount().PublicKey.String(), nil
			}
		case prog.Equals(solana.TokenProgramID):
			ix, err := token.DecodeInstruction(accounts, inst.Data)
			if err != nil {
				continue
			}
			switch t := ix.Impl.(type) {
			case *token.Transfer:
				return t.GetOwnerAccount().PublicKey.String(), nil
			case *token.TransferChecked:
				return t.GetOwnerAccount().PublicKey.String(), nil
			}
		}
	}
	return "", errors.New("no transfer instruction in transaction")
}
