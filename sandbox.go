package sandbox

import (
	"context"
	"fmt"
	"os"
	"sync"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/near-sandbox-go/internal/artifact"
	envcfg "github.com/GriffinCanCode/near-sandbox-go/internal/infrastructure/config"
	"github.com/GriffinCanCode/near-sandbox-go/internal/infrastructure/logging"
	"github.com/GriffinCanCode/near-sandbox-go/internal/nodeconfig"
	"github.com/GriffinCanCode/near-sandbox-go/internal/probe"
	"github.com/GriffinCanCode/near-sandbox-go/internal/supervisor"
)

// DefaultVersion is the node release used when the caller does not pick one.
const DefaultVersion = artifact.DefaultVersion

// Sandbox is a running local node. Construction succeeds only once the node
// answers RPC status requests; the handle owns the child process and the
// home directory until Close.
type Sandbox struct {
	// RPCAddr is the ready endpoint, "http://127.0.0.1:<port>".
	RPCAddr string
	// HomeDir is the node's working directory. Removed by Close.
	HomeDir string

	proc      *supervisor.Process
	log       *logging.Logger
	closeOnce sync.Once
}

// Start launches a sandbox with default configuration and version.
func Start(ctx context.Context) (*Sandbox, error) {
	return StartWithConfigAndVersion(ctx, Config{}, DefaultVersion)
}

// StartWithVersion launches a sandbox running a specific node release.
func StartWithVersion(ctx context.Context, version string) (*Sandbox, error) {
	return StartWithConfigAndVersion(ctx, Config{}, version)
}

// StartWithConfig launches a sandbox with custom configuration and the
// default version.
func StartWithConfig(ctx context.Context, cfg Config) (*Sandbox, error) {
	return StartWithConfigAndVersion(ctx, cfg, DefaultVersion)
}

// StartWithConfigAndVersion launches a sandbox with custom configuration and
// a specific node release. On any failure after the process has spawned, the
// process is terminated and the home directory removed before the error is
// returned; callers never clean up a failed start themselves.
func StartWithConfigAndVersion(ctx context.Context, cfg Config, version string) (*Sandbox, error) {
	// A malformed variable must fail loudly: falling back to defaults here
	// would also discard every other override the caller did set.
	env, err := envcfg.Load()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfig, err)
	}
	log := logging.ForNode(env.Logging.Enabled)

	resolver := artifact.NewResolver(env.Binary.Path, env.Binary.URL, log)
	bin, err := resolver.Ensure(ctx, version)
	if err != nil {
		return nil, fmt.Errorf("acquiring node binary (version %s): %w", versionOrDefault(version), err)
	}

	home, err := os.MkdirTemp("", "near-sandbox-home-")
	if err != nil {
		return nil, fmt.Errorf("creating home dir: %w", err)
	}

	// Everything past this point must not leak the home dir or, once
	// spawned, the process.
	ready := false
	defer func() {
		if !ready {
			os.RemoveAll(home)
		}
	}()

	rpcAddr, err := nodeconfig.Synthesize(ctx, bin, home, synthOptions(cfg, env), log)
	if err != nil {
		return nil, fmt.Errorf("synthesizing node config in %s: %w", home, err)
	}

	proc, err := supervisor.Start(bin, home, supervisor.Options{
		LogsEnabled: env.Logging.Enabled,
		LogFilter:   env.Logging.Filter,
		LogStyle:    env.Logging.Style,
	}, log)
	if err != nil {
		return nil, err
	}
	defer func() {
		if !ready {
			proc.Terminate()
		}
	}()

	waitCtx, cancel := context.WithTimeout(ctx, env.RPCTimeout())
	defer cancel()

	endpoint, err := probe.WaitReady(waitCtx, proc, rpcAddr, log)
	if err != nil {
		return nil, fmt.Errorf("waiting for node (timeout %s): %w", env.RPCTimeout(), err)
	}

	log.Info("sandbox ready",
		zap.String("rpc", endpoint),
		zap.Int("pid", proc.PID()),
	)

	ready = true
	return &Sandbox{
		RPCAddr: endpoint,
		HomeDir: home,
		proc:    proc,
		log:     log,
	}, nil
}

// Close terminates the node process and removes the home directory. Safe to
// call multiple times; later calls are no-ops.
func (s *Sandbox) Close() {
	s.closeOnce.Do(func() {
		s.proc.Terminate()
		if err := os.RemoveAll(s.HomeDir); err != nil {
			s.log.Warn("removing home dir", zap.String("dir", s.HomeDir), zap.Error(err))
		}
	})
}

// synthOptions folds the public Config and environment overrides into
// synthesizer options. The default genesis account always comes first.
func synthOptions(cfg Config, env *envcfg.Config) nodeconfig.Options {
	accounts := make([]nodeconfig.Account, 0, len(cfg.AdditionalAccounts)+1)
	for _, acct := range append([]GenesisAccount{defaultAccount()}, cfg.AdditionalAccounts...) {
		accounts = append(accounts, nodeconfig.Account{
			ID:         acct.AccountID,
			PublicKey:  acct.PublicKey,
			PrivateKey: acct.PrivateKey,
			Balance:    acct.Balance,
		})
	}

	maxPayload := cfg.MaxPayloadSize
	if maxPayload == 0 {
		maxPayload = env.Node.MaxPayloadSize
	}
	maxFiles := cfg.MaxOpenFiles
	if maxFiles == 0 {
		maxFiles = env.Node.MaxOpenFiles
	}

	return nodeconfig.Options{
		Accounts:       accounts,
		GenesisPatch:   cfg.AdditionalGenesis,
		ConfigPatch:    cfg.AdditionalConfig,
		MaxPayloadSize: maxPayload,
		MaxOpenFiles:   maxFiles,
	}
}

func versionOrDefault(version string) string {
	if version == "" {
		return DefaultVersion
	}
	return version
}
