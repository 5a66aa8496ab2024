package nodeconfig

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/bytedance/sonic"
	jsonpatch "github.com/evanphx/json-patch/v5"

	"github.com/GriffinCanCode/near-sandbox-go/internal/infrastructure/logging"
)

// Error kinds surfaced by configuration synthesis.
var (
	ErrConfig           = errors.New("sandbox configuration failed")
	ErrDuplicateAccount = errors.New("duplicate genesis account id")
)

// Default listen addresses ask the OS for ephemeral ports, so concurrent
// sandboxes never collide on either the RPC or the P2P port. Must be IP
// addresses, the node rejects hostnames in socket-address fields.
const (
	DefaultRPCAddr = "127.0.0.1:0"
	DefaultNetAddr = "127.0.0.1:0"
)

const (
	defaultMaxPayloadSize = uint64(1024 * 1024 * 1024)
	defaultMaxOpenFiles   = uint64(3000)
)

// Account is a genesis account to add alongside the node defaults.
type Account struct {
	ID         string
	PublicKey  string
	PrivateKey string
	Balance    *big.Int
}

// Options drives synthesis of genesis.json and config.json.
type Options struct {
	// Accounts are appended to the genesis records. IDs must be unique.
	Accounts []Account
	// GenesisPatch is merge-patched into genesis.json before accounts are added.
	GenesisPatch json.RawMessage
	// ConfigPatch is merge-patched into config.json last, so it can override
	// anything including the RPC address.
	ConfigPatch json.RawMessage
	// MaxPayloadSize caps JSON RPC request size in bytes. Zero means default.
	MaxPayloadSize uint64
	// MaxOpenFiles caps the node store's file descriptors. Zero means default.
	MaxOpenFiles uint64
}

// Synthesize initializes home via the node binary and applies opts. It
// returns the RPC listen address written into config.json, which is
// DefaultRPCAddr unless the config patch overrode it.
func Synthesize(ctx context.Context, bin, home string, opts Options, log *logging.Logger) (string, error) {
	if log == nil {
		log = logging.Nop()
	}

	// Validate before touching anything: a bad account list must fail
	// without ever spawning a process.
	if err := validateAccounts(opts.Accounts); err != nil {
		return "", err
	}

	if err := runInit(ctx, bin, home); err != nil {
		return "", err
	}
	log.Debug("node init complete")

	if err := patchGenesis(home, opts); err != nil {
		return "", err
	}
	if err := writeAccountKeys(home, opts.Accounts); err != nil {
		return "", err
	}
	return patchConfig(home, opts)
}

// runInit invokes `<bin> --home <dir> init` to produce baseline genesis,
// config and validator key files.
func runInit(ctx context.Context, bin, home string) error {
	cmd := exec.CommandContext(ctx, bin, "--home", home, "init", "--chain-id", "sandbox")
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%w: init: %v: %s", ErrConfig, err, out)
	}
	return nil
}

// validateAccounts rejects duplicate account ids and ids that would escape
// the home dir when used as a key file name.
func validateAccounts(accounts []Account) error {
	seen := make(map[string]struct{}, len(accounts))
	for _, acct := range accounts {
		if acct.ID == "" || strings.ContainsAny(acct.ID, `/\`) || strings.Contains(acct.ID, "..") {
			return fmt.Errorf("%w: invalid account id %q", ErrConfig, acct.ID)
		}
		if _, dup := seen[acct.ID]; dup {
			return fmt.Errorf("%w: %q", ErrDuplicateAccount, acct.ID)
		}
		seen[acct.ID] = struct{}{}
	}
	return nil
}

// patchGenesis applies the caller's genesis patch, then appends account
// records so they survive a patch that replaces the records array.
func patchGenesis(home string, opts Options) error {
	path := filepath.Join(home, "genesis.json")
	genesis, err := readDocument(path)
	if err != nil {
		return err
	}

	doc, err := applyMergePatch(genesis, opts.GenesisPatch)
	if err != nil {
		return err
	}

	if err := appendAccounts(doc, opts.Accounts); err != nil {
		return err
	}
	return writeDocument(path, doc)
}

// patchConfig sets the RPC address and node limits, then applies the caller's
// config patch on top so every default stays overridable.
func patchConfig(home string, opts Options) (string, error) {
	path := filepath.Join(home, "config.json")
	cfg, err := readDocument(path)
	if err != nil {
		return "", err
	}

	maxPayload := opts.MaxPayloadSize
	if maxPayload == 0 {
		maxPayload = defaultMaxPayloadSize
	}
	maxFiles := opts.MaxOpenFiles
	if maxFiles == 0 {
		maxFiles = defaultMaxOpenFiles
	}

	base := map[string]any{
		"rpc": map[string]any{
			"addr": DefaultRPCAddr,
			"limits_config": map[string]any{
				"json_payload_max_size": maxPayload,
			},
		},
		"network": map[string]any{
			"addr": DefaultNetAddr,
		},
		"store": map[string]any{
			"max_open_files": maxFiles,
		},
	}
	basePatch, err := sonic.Marshal(base)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrConfig, err)
	}

	merged, err := applyMergePatch(cfg, basePatch)
	if err != nil {
		return "", err
	}
	merged, err = applyMergePatch(merged, opts.ConfigPatch)
	if err != nil {
		return "", err
	}
	if err := writeDocument(path, merged); err != nil {
		return "", err
	}
	return rpcAddr(merged)
}

// rpcAddr extracts rpc.addr from the final config document.
func rpcAddr(doc map[string]any) (string, error) {
	rpc, ok := doc["rpc"].(map[string]any)
	if !ok {
		return "", fmt.Errorf("%w: config.json has no rpc section", ErrConfig)
	}
	addr, ok := rpc["addr"].(string)
	if !ok {
		return "", fmt.Errorf("%w: config.json rpc.addr is not a string", ErrConfig)
	}
	return addr, nil
}

// writeAccountKeys persists each account's key pair as <account_id>.json in
// the home dir, next to the validator key init produced.
func writeAccountKeys(home string, accounts []Account) error {
	for _, acct := range accounts {
		key := map[string]string{
			"account_id":  acct.ID,
			"public_key":  acct.PublicKey,
			"private_key": acct.PrivateKey,
		}
		data, err := sonic.MarshalIndent(key, "", "  ")
		if err != nil {
			return fmt.Errorf("%w: %v", ErrConfig, err)
		}
		path := filepath.Join(home, acct.ID+".json")
		if err := os.WriteFile(path, data, 0o600); err != nil {
			return fmt.Errorf("%w: writing %s: %v", ErrConfig, path, err)
		}
	}
	return nil
}

// applyMergePatch applies an RFC 7396 merge patch to doc. A nil patch is a
// no-op.
func applyMergePatch(doc map[string]any, patch json.RawMessage) (map[string]any, error) {
	if len(patch) == 0 {
		return doc, nil
	}
	original, err := sonic.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfig, err)
	}
	merged, err := jsonpatch.MergePatch(original, patch)
	if err != nil {
		return nil, fmt.Errorf("%w: applying merge patch: %v", ErrConfig, err)
	}
	var out map[string]any
	if err := sonic.Unmarshal(merged, &out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfig, err)
	}
	return out, nil
}

func readDocument(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %v", ErrConfig, path, err)
	}
	var doc map[string]any
	if err := sonic.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: parsing %s: %v", ErrConfig, path, err)
	}
	return doc, nil
}

func writeDocument(path string, doc map[string]any) error {
	data, err := sonic.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrConfig, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("%w: writing %s: %v", ErrConfig, path, err)
	}
	return nil
}
