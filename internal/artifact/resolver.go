package artifact

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/GriffinCanCode/near-sandbox-go/internal/infrastructure/logging"
	"go.uber.org/zap"
)

const (
	// DefaultVersion is the node release used when the caller does not pick one.
	DefaultVersion = "2.6.5"

	binName      = "near-sandbox"
	artifactHost = "https://s3-us-west-1.amazonaws.com/build.nearprotocol.com/nearcore"
)

// Error kinds surfaced by binary acquisition.
var (
	ErrUnsupportedPlatform = errors.New("unsupported platform")
	ErrDownload            = errors.New("artifact download failed")
	ErrExtract             = errors.New("artifact extraction failed")
	ErrLockTimeout         = errors.New("timed out waiting for cache lock")
)

// Resolver locates or installs the node executable.
type Resolver struct {
	// BinPath, when set, is returned verbatim without touching the cache.
	BinPath string
	// URL overrides the composed artifact URL.
	URL string

	log *logging.Logger
}

// NewResolver creates a resolver with the given overrides.
func NewResolver(binPath, url string, log *logging.Logger) *Resolver {
	if log == nil {
		log = logging.Nop()
	}
	return &Resolver{BinPath: binPath, URL: url, log: log}
}

// Ensure returns the path of an executable node binary for version,
// downloading and installing it if the cache does not hold one yet.
func (r *Resolver) Ensure(ctx context.Context, version string) (string, error) {
	if r.BinPath != "" {
		return r.BinPath, nil
	}
	if version == "" {
		version = DefaultVersion
	}

	dir, err := cacheDir(version)
	if err != nil {
		return "", err
	}
	bin := filepath.Join(dir, binName)

	// The existence check happens under the lock. Checking first and locking
	// later would let two processes both observe "absent" and both install.
	lock, err := acquireLock(ctx, filepath.Join(dir, ".lock"))
	if err != nil {
		return "", err
	}
	defer lock.release()

	if isExecutable(bin) {
		return bin, nil
	}

	url := r.URL
	if url == "" {
		url, err = artifactURL(version)
		if err != nil {
			return "", err
		}
	}

	r.log.Info("downloading node binary",
		zap.String("version", version),
		zap.String("url", url),
	)

	if err := install(ctx, url, bin); err != nil {
		return "", err
	}
	return bin, nil
}

// artifactURL composes the download URL for a release by the artifact-host
// naming convention.
func artifactURL(version string) (string, error) {
	platform, err := platformTriple()
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s/%s/%s/near-sandbox.tar.gz", artifactHost, platform, version), nil
}

// platformTriple maps GOOS/GOARCH onto the artifact host's platform names.
func platformTriple() (string, error) {
	switch {
	case runtime.GOOS == "linux" && runtime.GOARCH == "amd64":
		return "Linux-x86_64", nil
	case runtime.GOOS == "darwin" && runtime.GOARCH == "amd64":
		return "Darwin-x86_64", nil
	case runtime.GOOS == "darwin" && runtime.GOARCH == "arm64":
		return "Darwin-arm64", nil
	default:
		return "", fmt.Errorf("%w: %s/%s", ErrUnsupportedPlatform, runtime.GOOS, runtime.GOARCH)
	}
}

// cacheDir returns the cache directory for a (version, platform) pair,
// creating it if needed.
func cacheDir(version string) (string, error) {
	platform, err := platformTriple()
	if err != nil {
		return "", err
	}
	base, err := os.UserCacheDir()
	if err != nil {
		base = os.TempDir()
	}
	dir := filepath.Join(base, "near-sandbox", fmt.Sprintf("%s-%s", version, platform))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating cache dir %s: %w", dir, err)
	}
	return dir, nil
}

func isExecutable(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular() && info.Mode().Perm()&0o111 != 0
}
