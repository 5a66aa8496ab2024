// Package config provides environment-driven configuration for the sandbox.
//
// Everything is optional. Absent variables fall back to defaults that work
// for local test runs.
//
// Environment Variables:
//   - NEAR_SANDBOX_BIN_PATH: use a pre-built node binary, skip the cache
//   - NEAR_SANDBOX_BINARY_URL: override the artifact download URL
//   - NEAR_RPC_TIMEOUT_SECS: readiness deadline in seconds (default 10)
//   - NEAR_ENABLE_SANDBOX_LOG: forward node output (default off)
//   - NEAR_SANDBOX_LOG, NEAR_SANDBOX_LOG_STYLE: node log filter and style
//   - NEAR_SANDBOX_MAX_PAYLOAD_SIZE, NEAR_SANDBOX_MAX_FILES: node limits
package config
