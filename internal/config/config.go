package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Roles a node may host.
const (
	RoleCheckout  = "checkout"
	RoleQueue     = "queue"
	RoleExecutor  = "executor"
	RoleInventory = "inventory"
	RolePayment   = "payment"
)

// Result store backends.
const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
	StoreRedis    = "redis"
)

// Config holds node level configuration loaded from environment and flags.
type Config struct {
	RunAddress string
	Roles      []string
	NodeID     int
	// Peers maps executor replica ids to their base URLs, self excluded.
	Peers map[int]string

	QueueURL         string
	InventoryURL     string
	PaymentURL       string
	InventoryBackups []string
	StockSeed        map[string]int

	ResultStore string
	DatabaseURI string
	RedisURL    string
	ResultTTL   time.Duration

	FraudOracleURL          string
	RecommendationOracleURL string
	OracleTimeout           time.Duration
	FraudFailOpen           bool
	FraudClockThreshold     int

	ElectionProbeInterval  time.Duration
	ElectionTimeout        time.Duration
	ElectionReelectOnProbe bool
	DequeueTimeout         time.Duration
	ExecutorWorkers        int

	RPCTimeout         time.Duration
	RPCAttempts        int
	RPCBackoff         time.Duration
	ReplicationTimeout time.Duration

	// AllowedOrigins lists CORS origins of the public API. "*" allows any.
	AllowedOrigins []string
	// CheckoutRateLimit is the sustained checkout rate per client IP in
	// requests per second. Zero disables limiting.
	CheckoutRateLimit float64
	CheckoutBurst     int

	ClusterSecret   string
	ShutdownTimeout time.Duration
}

const (
	defaultRunAddress            = ":8080"
	defaultRoles                 = "checkout,queue,executor,inventory,payment"
	defaultResultStore           = StoreMemory
	defaultResultTTL             = 30 * time.Second
	defaultOracleTimeout         = 5 * time.Second
	defaultFraudClockThreshold   = 3
	defaultElectionProbeInterval = 2 * time.Second
	defaultElectionTimeout       = time.Second
	defaultDequeueTimeout        = 2 * time.Second
	defaultExecutorWorkers       = 1
	defaultRPCTimeout            = 2 * time.Second
	defaultRPCAttempts           = 3
	defaultRPCBackoff            = 500 * time.Millisecond
	defaultReplicationTimeout    = time.Second
	defaultShutdownTimeout       = 10 * time.Second
	defaultEnvFile               = ".env"
	defaultAllowedOrigins        = "*"
	defaultCheckoutBurst         = 10
)

// DefaultStockSeed is the initial inventory used when STOCK_SEED is empty.
func DefaultStockSeed() map[string]int {
	return map[string]int{
		"1984 by George Orwell":                   100,
		"A Brave New World by Aldous Huxley":      100,
		"To Kill a Mockingbird by Harper Lee":     100,
		"The Great Gatsby by F. Scott Fitzgerald": 100,
	}
}

// Load parses configuration from an optional .env file, environment variables and flags.
func Load() (*Config, error) {
	if err := loadEnvFile(os.Getenv("ENV_FILE")); err != nil {
		return nil, err
	}
	return load(os.Args[1:], os.LookupEnv)
}

// loadEnvFile populates the process environment without overriding variables
// that are already set. A missing file is not an error.
func loadEnvFile(path string) error {
	if path == "" {
		path = defaultEnvFile
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load env file: %w", err)
	}
	return nil
}

type envLookup func(string) (string, bool)

func load(args []string, lookup envLookup) (*Config, error) {
	cfg := &Config{
		RunAddress:              getString(lookup, "RUN_ADDRESS", defaultRunAddress),
		NodeID:                  getInt(lookup, "NODE_ID", 0),
		QueueURL:                getString(lookup, "QUEUE_URL", ""),
		InventoryURL:            getString(lookup, "INVENTORY_URL", ""),
		PaymentURL:              getString(lookup, "PAYMENT_URL", ""),
		ResultStore:             getString(lookup, "RESULT_STORE", defaultResultStore),
		DatabaseURI:             getString(lookup, "DATABASE_URI", ""),
		RedisURL:                getString(lookup, "REDIS_URL", ""),
		ResultTTL:               getDuration(lookup, "RESULT_TTL", defaultResultTTL),
		FraudOracleURL:          getString(lookup, "FRAUD_ORACLE_URL", ""),
		RecommendationOracleURL: getString(lookup, "RECOMMENDATION_ORACLE_URL", ""),
		OracleTimeout:           getDuration(lookup, "ORACLE_TIMEOUT", defaultOracleTimeout),
		FraudFailOpen:           getBool(lookup, "FRAUD_FAIL_OPEN", true),
		FraudClockThreshold:     getInt(lookup, "FRAUD_CLOCK_THRESHOLD", defaultFraudClockThreshold),
		ElectionProbeInterval:   getDuration(lookup, "ELECTION_PROBE_INTERVAL", defaultElectionProbeInterval),
		ElectionTimeout:         getDuration(lookup, "ELECTION_TIMEOUT", defaultElectionTimeout),
		ElectionReelectOnProbe:  getBool(lookup, "ELECTION_REELECT_ON_PROBE", false),
		DequeueTimeout:          getDuration(lookup, "DEQUEUE_TIMEOUT", defaultDequeueTimeout),
		ExecutorWorkers:         getInt(lookup, "EXECUTOR_WORKERS", defaultExecutorWorkers),
		RPCTimeout:              getDuration(lookup, "RPC_TIMEOUT", defaultRPCTimeout),
		RPCAttempts:             getInt(lookup, "RPC_ATTEMPTS", defaultRPCAttempts),
		RPCBackoff:              getDuration(lookup, "RPC_BACKOFF", defaultRPCBackoff),
		ReplicationTimeout:      getDuration(lookup, "REPLICATION_TIMEOUT", defaultReplicationTimeout),
		CheckoutRateLimit:       getFloat(lookup, "CHECKOUT_RATE_LIMIT", 0),
		CheckoutBurst:           getInt(lookup, "CHECKOUT_BURST", defaultCheckoutBurst),
		ClusterSecret:           getString(lookup, "CLUSTER_SECRET", ""),
		ShutdownTimeout:         getDuration(lookup, "SHUTDOWN_TIMEOUT", defaultShutdownTimeout),
	}

	fs := flag.NewFlagSet("orderflow", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var (
		rolesStr           = getString(lookup, "ROLES", defaultRoles)
		peersStr           = getString(lookup, "PEERS", "")
		backupsStr         = getString(lookup, "INVENTORY_BACKUPS", "")
		seedStr            = getString(lookup, "STOCK_SEED", "")
		originsStr         = getString(lookup, "ALLOWED_ORIGINS", defaultAllowedOrigins)
		resultTTLStr       = cfg.ResultTTL.String()
		probeIntervalStr   = cfg.ElectionProbeInterval.String()
		shutdownTimeoutStr = cfg.ShutdownTimeout.String()
	)

	fs.StringVar(&cfg.RunAddress, "a", cfg.RunAddress, "HTTP server listen address")
	fs.StringVar(&rolesStr, "roles", rolesStr, "Comma separated roles hosted by this node")
	fs.IntVar(&cfg.NodeID, "node-id", cfg.NodeID, "Executor replica id used by leader election")
	fs.StringVar(&peersStr, "peers", peersStr, "Executor peers as id=url pairs")
	fs.StringVar(&cfg.QueueURL, "queue-url", cfg.QueueURL, "Base URL of a remote order queue")
	fs.StringVar(&cfg.InventoryURL, "inventory-url", cfg.InventoryURL, "Base URL of a remote inventory primary")
	fs.StringVar(&cfg.PaymentURL, "payment-url", cfg.PaymentURL, "Base URL of a remote payment ledger")
	fs.StringVar(&backupsStr, "backups", backupsStr, "Comma separated inventory backup URLs")
	fs.StringVar(&seedStr, "stock-seed", seedStr, "Initial stock as title=qty pairs separated by ';'")
	fs.StringVar(&cfg.ResultStore, "result-store", cfg.ResultStore, "Result store backend: memory, postgres or redis")
	fs.StringVar(&cfg.DatabaseURI, "d", cfg.DatabaseURI, "PostgreSQL DSN")
	fs.StringVar(&cfg.RedisURL, "redis-url", cfg.RedisURL, "Redis URL")
	fs.StringVar(&resultTTLStr, "result-ttl", resultTTLStr, "Lifetime of recorded order results")
	fs.StringVar(&cfg.FraudOracleURL, "fraud-oracle", cfg.FraudOracleURL, "Fraud oracle base URL")
	fs.StringVar(&cfg.RecommendationOracleURL, "recommendation-oracle", cfg.RecommendationOracleURL, "Recommendation oracle base URL")
	fs.BoolVar(&cfg.FraudFailOpen, "fraud-fail-open", cfg.FraudFailOpen, "Accept orders when the fraud oracle fails")
	fs.BoolVar(&cfg.ElectionReelectOnProbe, "reelect-on-probe", cfg.ElectionReelectOnProbe, "Start an own election when probed by a lower id")
	fs.StringVar(&probeIntervalStr, "probe-interval", probeIntervalStr, "Interval between leader liveness probes")
	fs.StringVar(&shutdownTimeoutStr, "shutdown-timeout", shutdownTimeoutStr, "Graceful shutdown timeout")
	fs.StringVar(&originsStr, "allowed-origins", originsStr, "Comma separated CORS origins of the public API")
	fs.Float64Var(&cfg.CheckoutRateLimit, "checkout-rate", cfg.CheckoutRateLimit, "Checkout requests per second per client, 0 disables")
	fs.StringVar(&cfg.ClusterSecret, "cluster-secret", cfg.ClusterSecret, "Secret for signing internal RPC tokens")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	var err error

	if cfg.ResultTTL, err = time.ParseDuration(resultTTLStr); err != nil {
		return nil, fmt.Errorf("invalid result ttl: %w", err)
	}

	if cfg.ElectionProbeInterval, err = time.ParseDuration(probeIntervalStr); err != nil {
		return nil, fmt.Errorf("invalid probe interval: %w", err)
	}

	if cfg.ShutdownTimeout, err = time.ParseDuration(shutdownTimeoutStr); err != nil {
		return nil, fmt.Errorf("invalid shutdown timeout: %w", err)
	}

	if cfg.Roles, err = parseRoles(rolesStr); err != nil {
		return nil, err
	}

	if cfg.Peers, err = parsePeers(peersStr); err != nil {
		return nil, err
	}

	cfg.InventoryBackups = splitList(backupsStr)
	cfg.AllowedOrigins = splitList(originsStr)

	if cfg.StockSeed, err = parseSeed(seedStr); err != nil {
		return nil, err
	}

	normalize(cfg)

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Has reports whether the node hosts role.
func (c *Config) Has(role string) bool {
	for _, r := range c.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// PeerIDs returns the configured executor peer ids in ascending order.
func (c *Config) PeerIDs() []int {
	ids := make([]int, 0, len(c.Peers))
	for id := range c.Peers {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

func normalize(cfg *Config) {
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = defaultResultTTL
	}
	if cfg.OracleTimeout <= 0 {
		cfg.OracleTimeout = defaultOracleTimeout
	}
	if cfg.FraudClockThreshold < 0 {
		cfg.FraudClockThreshold = defaultFraudClockThreshold
	}
	if cfg.ElectionProbeInterval <= 0 {
		cfg.ElectionProbeInterval = defaultElectionProbeInterval
	}
	if cfg.ElectionTimeout <= 0 {
		cfg.ElectionTimeout = defaultElectionTimeout
	}
	if cfg.DequeueTimeout <= 0 {
		cfg.DequeueTimeout = defaultDequeueTimeout
	}
	if cfg.ExecutorWorkers <= 0 {
		cfg.ExecutorWorkers = defaultExecutorWorkers
	}
	if cfg.RPCTimeout <= 0 {
		cfg.RPCTimeout = defaultRPCTimeout
	}
	if cfg.RPCAttempts <= 0 {
		cfg.RPCAttempts = defaultRPCAttempts
	}
	if cfg.RPCBackoff <= 0 {
		cfg.RPCBackoff = defaultRPCBackoff
	}
	if cfg.ReplicationTimeout <= 0 {
		cfg.ReplicationTimeout = defaultReplicationTimeout
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = defaultShutdownTimeout
	}
	if cfg.CheckoutRateLimit < 0 {
		cfg.CheckoutRateLimit = 0
	}
	if cfg.CheckoutBurst <= 0 {
		cfg.CheckoutBurst = defaultCheckoutBurst
	}
	if len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = []string{defaultAllowedOrigins}
	}
	if len(cfg.StockSeed) == 0 {
		cfg.StockSeed = DefaultStockSeed()
	}
	cfg.ResultStore = strings.ToLower(strings.TrimSpace(cfg.ResultStore))
	if cfg.ResultStore == "" {
		cfg.ResultStore = defaultResultStore
	}
}

func validate(cfg *Config) error {
	switch cfg.ResultStore {
	case StoreMemory:
	case StorePostgres:
		if cfg.DatabaseURI == "" {
			return fmt.Errorf("database URI must be provided for postgres result store")
		}
	case StoreRedis:
		if cfg.RedisURL == "" {
			return fmt.Errorf("redis URL must be provided for redis result store")
		}
	default:
		return fmt.Errorf("unknown result store %q", cfg.ResultStore)
	}

	if cfg.Has(RoleExecutor) && cfg.NodeID <= 0 && len(cfg.Peers) > 0 {
		return fmt.Errorf("node id must be positive when executor peers are configured")
	}
	if _, ok := cfg.Peers[cfg.NodeID]; ok && cfg.NodeID != 0 {
		return fmt.Errorf("peers must not include node id %d", cfg.NodeID)
	}

	remote := []struct {
		role string
		url  string
		need bool
	}{
		{RoleQueue, cfg.QueueURL, cfg.Has(RoleCheckout) || cfg.Has(RoleExecutor)},
		{RoleInventory, cfg.InventoryURL, cfg.Has(RoleExecutor) || cfg.Has(RoleCheckout)},
		{RolePayment, cfg.PaymentURL, cfg.Has(RoleExecutor)},
	}
	for _, r := range remote {
		if r.need && !cfg.Has(r.role) && r.url == "" {
			return fmt.Errorf("%s role is not hosted locally and no %s URL is configured", r.role, r.role)
		}
	}
	return nil
}

func parseRoles(raw string) ([]string, error) {
	known := map[string]bool{
		RoleCheckout:  true,
		RoleQueue:     true,
		RoleExecutor:  true,
		RoleInventory: true,
		RolePayment:   true,
	}
	var roles []string
	seen := make(map[string]bool)
	for _, r := range splitList(raw) {
		r = strings.ToLower(r)
		if !known[r] {
			return nil, fmt.Errorf("unknown role %q", r)
		}
		if !seen[r] {
			seen[r] = true
			roles = append(roles, r)
		}
	}
	if len(roles) == 0 {
		return nil, fmt.Errorf("at least one role must be configured")
	}
	return roles, nil
}

func parsePeers(raw string) (map[int]string, error) {
	peers := make(map[int]string)
	for _, pair := range splitList(raw) {
		idStr, url, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("invalid peer %q: expected id=url", pair)
		}
		id, err := strconv.Atoi(strings.TrimSpace(idStr))
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("invalid peer id %q", idStr)
		}
		peers[id] = strings.TrimSpace(url)
	}
	return peers, nil
}

func parseSeed(raw string) (map[string]int, error) {
	seed := make(map[string]int)
	for _, pair := range strings.Split(raw, ";") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		idx := strings.LastIndex(pair, "=")
		if idx <= 0 {
			return nil, fmt.Errorf("invalid stock seed %q: expected title=qty", pair)
		}
		qty, err := strconv.Atoi(strings.TrimSpace(pair[idx+1:]))
		if err != nil || qty < 0 {
			return nil, fmt.Errorf("invalid stock quantity in %q", pair)
		}
		seed[strings.TrimSpace(pair[:idx])] = qty
	}
	return seed, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getString(lookup envLookup, key, def string) string {
	if v, ok := lookup(key); ok && v != "" {
		return v
	}
	return def
}

func getInt(lookup envLookup, key string, def int) int {
	if v, ok := lookup(key); ok && v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getBool(lookup envLookup, key string, def bool) bool {
	if v, ok := lookup(key); ok && v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func getDuration(lookup envLookup, key string, def time.Duration) time.Duration {
	if v, ok := lookup(key); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func getFloat(lookup envLookup, key string, def float64) float64 {
	if v, ok := lookup(key); ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}
