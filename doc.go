// Package sandbox manages a local NEAR node for automated tests and
// development.
//
// Starting a sandbox acquires the node binary (cached on disk, downloaded on
// first use), initializes a throwaway home directory, applies any caller
// configuration, launches the node and blocks until its RPC endpoint answers.
// The returned handle owns the process and the home directory; Close tears
// both down and is safe to call more than once.
//
// Example:
//
//	sb, err := sandbox.Start(ctx)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer sb.Close()
//
//	resp, _ := http.Get(sb.RPCAddr + "/status")
//	// ... drive the node over RPC ...
//
// Extra genesis accounts and arbitrary genesis/config overrides go through
// Config:
//
//	key, _ := sandbox.GenerateKeyPair()
//	sb, err := sandbox.StartWithConfig(ctx, sandbox.Config{
//		AdditionalAccounts: []sandbox.GenesisAccount{{
//			AccountID:  "alice.sandbox",
//			PublicKey:  key.PublicKey,
//			PrivateKey: key.PrivateKey,
//			Balance:    sandbox.DefaultGenesisBalance(),
//		}},
//		AdditionalGenesis: json.RawMessage(`{"epoch_length": 100}`),
//	})
package sandbox
