package sandbox

import "encoding/json"

// Config customizes a sandbox instance. The zero value starts a node with
// defaults; every field is independently optional.
type Config struct {
	// AdditionalGenesis is merge-patched into genesis.json (RFC 7396: keys
	// merge recursively, null deletes, arrays replace wholesale).
	AdditionalGenesis json.RawMessage

	// AdditionalAccounts are appended to the genesis records next to the
	// default "sandbox" account. Account ids must be unique.
	AdditionalAccounts []GenesisAccount

	// AdditionalConfig is merge-patched into config.json after the sandbox
	// defaults, so it can override anything including the RPC address.
	AdditionalConfig json.RawMessage

	// MaxPayloadSize caps JSON RPC request size in bytes.
	// Zero falls back to NEAR_SANDBOX_MAX_PAYLOAD_SIZE, then 1 GiB.
	MaxPayloadSize uint64

	// MaxOpenFiles caps the node store's open file descriptors.
	// Zero falls back to NEAR_SANDBOX_MAX_FILES, then 3000.
	MaxOpenFiles uint64
}
