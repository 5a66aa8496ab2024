package nodeconfig

import (
	"fmt"
	"math/big"
)

// Genesis record constants for plain accounts. The node treats the all-ones
// hash as "no contract code".
const (
	emptyCodeHash       = "11111111111111111111111111111111"
	accountStorageUsage = 182
)

// appendAccounts adds an Account and an AccessKey record per account and
// bumps total_supply by the added balances.
func appendAccounts(genesis map[string]any, accounts []Account) error {
	if len(accounts) == 0 {
		return nil
	}

	records, ok := genesis["records"].([]any)
	if !ok {
		return fmt.Errorf("%w: genesis.json has no records array", ErrConfig)
	}

	added := new(big.Int)
	for _, acct := range accounts {
		balance := acct.Balance
		if balance == nil {
			balance = new(big.Int)
		}
		added.Add(added, balance)

		records = append(records, map[string]any{
			"Account": map[string]any{
				"account_id": acct.ID,
				"account": map[string]any{
					"amount":        balance.String(),
					"locked":        "0",
					"code_hash":     emptyCodeHash,
					"storage_usage": accountStorageUsage,
				},
			},
		})
		records = append(records, map[string]any{
			"AccessKey": map[string]any{
				"account_id": acct.ID,
				"public_key": acct.PublicKey,
				"access_key": map[string]any{
					"nonce":      0,
					"permission": "FullAccess",
				},
			},
		})
	}
	genesis["records"] = records

	supply := new(big.Int)
	if raw, ok := genesis["total_supply"].(string); ok {
		// Malformed supply is treated as zero, matching a genesis that never
		// declared one.
		supply.SetString(raw, 10)
	}
	genesis["total_supply"] = supply.Add(supply, added).String()

	return nil
}
