// Package probe decides when a freshly spawned node is actually ready to
// serve RPC traffic.
//
// When the node was configured with port 0 the bound port is only knowable
// from the node's own log output, so the prober scans captured lines for the
// RPC server's "started" line. That string match is a contract with the node
// binary and is deliberately confined to this package: if the node ever
// exposes a structured readiness signal, only rpcAddrPattern and discoverAddr
// need to change.
package probe

import (
	"context"
	"errors"
	"fmt"
	"net"
	"regexp"
	"time"

	"github.com/bytedance/sonic"
	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/near-sandbox-go/internal/infrastructure/logging"
)

// Error kinds surfaced by readiness detection.
var (
	ErrTimeout       = errors.New("node did not become ready before the deadline")
	ErrProcessExited = errors.New("node process exited before becoming ready")
)

const (
	pollInterval = 500 * time.Millisecond
	scanInterval = 50 * time.Millisecond
)

// rpcAddrPattern matches the node's RPC startup line. Unstable external
// contract, versioned with the node binary.
var rpcAddrPattern = regexp.MustCompile(`(?i)json.?rpc.*?(127\.0\.0\.1:\d{1,5})`)

// LineSource exposes a running process's captured output and liveness.
type LineSource interface {
	Lines() []string
	Exited() bool
}

// WaitReady resolves the concrete RPC endpoint for a node configured to
// listen on configured (host:port, where port 0 means OS-assigned) and polls
// it until a status request returns a well-formed reply. The context carries
// the single authoritative deadline for discovery plus polling.
func WaitReady(ctx context.Context, src LineSource, configured string, log *logging.Logger) (string, error) {
	if log == nil {
		log = logging.Nop()
	}
	start := time.Now()

	addr, err := resolveAddr(ctx, src, configured)
	if err != nil {
		return "", err
	}
	endpoint := "http://" + addr
	log.Debug("polling node", zap.String("endpoint", endpoint))

	client := resty.New().SetTimeout(2 * time.Second)
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		if src.Exited() {
			return "", fmt.Errorf("%w (endpoint %s)", ErrProcessExited, endpoint)
		}

		resp, err := client.R().SetContext(ctx).Get(endpoint + "/status")
		if err == nil && resp.StatusCode() >= 200 && resp.StatusCode() < 300 && sonic.Valid(resp.Body()) {
			log.Info("node ready",
				zap.String("endpoint", endpoint),
				zap.Duration("took", time.Since(start)),
			)
			return endpoint, nil
		}

		select {
		case <-ctx.Done():
			return "", fmt.Errorf("%w: %s after %s", ErrTimeout, endpoint, time.Since(start).Round(time.Millisecond))
		case <-ticker.C:
		}
	}
}

// resolveAddr returns the concrete RPC address. A fixed port is used as-is;
// an ephemeral one is discovered from the process log.
func resolveAddr(ctx context.Context, src LineSource, configured string) (string, error) {
	host, port, err := net.SplitHostPort(configured)
	if err != nil {
		return "", fmt.Errorf("invalid rpc address %q: %w", configured, err)
	}
	if port != "0" {
		return net.JoinHostPort(host, port), nil
	}
	return discoverAddr(ctx, src)
}

// discoverAddr scans captured log lines until the RPC startup line shows up.
func discoverAddr(ctx context.Context, src LineSource) (string, error) {
	ticker := time.NewTicker(scanInterval)
	defer ticker.Stop()

	scanned := 0
	for {
		lines := src.Lines()
		for _, line := range lines[scanned:] {
			if m := rpcAddrPattern.FindStringSubmatch(line); m != nil {
				return m[1], nil
			}
		}
		scanned = len(lines)

		if src.Exited() {
			return "", ErrProcessExited
		}

		select {
		case <-ctx.Done():
			return "", fmt.Errorf("%w: rpc address never appeared in node output", ErrTimeout)
		case <-ticker.C:
		}
	}
}
