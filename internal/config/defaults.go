package config

// DefaultSubprotocol is the websocket sub-protocol identifier negotiated
// when opening the transport.
const DefaultSubprotocol = "terminal.v1"

// DefaultPingIntervalMs is the liveness probe interval.
const DefaultPingIntervalMs = 20000

// DefaultStaleMultiplier is how many silent probe intervals mark the
// connection as stale.
const DefaultStaleMultiplier = 3

// DefaultMaxRetries is the reconnect budget.
const DefaultMaxRetries = 5

// DefaultRetryDelayMs is the constant delay before each reconnect attempt.
// A fixed delay is a deliberate simplicity/latency tradeoff over
// exponential backoff.
const DefaultRetryDelayMs = 3000

// DefaultResizeDebounceMs is the trailing-edge resize debounce window.
const DefaultResizeDebounceMs = 250

// DefaultInputRateLimit is the maximum input events forwarded per second.
const DefaultInputRateLimit = 200

// DefaultLogLevel is the default logging verbosity.
const DefaultLogLevel = "info"
