package app

import (
	"context"
	"log/slog"

	"go.uber.org/fx"

	"github.com/vusallyv/ds-practice-2025/internal/adapter/rpc"
	"github.com/vusallyv/ds-practice-2025/internal/config"
	"github.com/vusallyv/ds-practice-2025/internal/domain/repository"
	"github.com/vusallyv/ds-practice-2025/internal/election"
	"github.com/vusallyv/ds-practice-2025/internal/inventory"
	"github.com/vusallyv/ds-practice-2025/internal/payment"
	"github.com/vusallyv/ds-practice-2025/internal/pipeline"
	pkgAuth "github.com/vusallyv/ds-practice-2025/internal/pkg/auth"
	"github.com/vusallyv/ds-practice-2025/internal/queue"
	"github.com/vusallyv/ds-practice-2025/internal/txn"
	"github.com/vusallyv/ds-practice-2025/internal/usecase"
	"github.com/vusallyv/ds-practice-2025/internal/verification"
	"github.com/vusallyv/ds-practice-2025/internal/worker"
)

// Node holds the components hosted by this process. Fields of roles the
// node does not host are nil.
type Node struct {
	Config    *config.Config
	Inventory *inventory.Store
	Ledger    *payment.Ledger
	Queue     *queue.PriorityOrderQueue
	Elector   *election.Elector
}

// OrderQueue is the queue seen by checkout and the executor.
type OrderQueue interface {
	usecase.OrderQueue
	worker.OrderSource
}

// StockReader reads stock of one title.
type StockReader interface {
	Read(ctx context.Context, title string) (int, bool, error)
}

// localStock adapts the in-process store to StockReader.
type localStock struct {
	store *inventory.Store
}

func (l localStock) Read(_ context.Context, title string) (int, bool, error) {
	stock, ok := l.store.Read(title)
	return stock, ok, nil
}

type transportParams struct {
	fx.In

	Config *config.Config
	Tokens pkgAuth.TokenStrategy
	Logger *slog.Logger
}

func newTransport(p transportParams) *rpc.Transport {
	return rpc.NewTransport(p.Tokens, p.Config.NodeID, p.Config.RPCTimeout, p.Logger)
}

type nodeParams struct {
	fx.In

	Config    *config.Config
	Transport *rpc.Transport
	Logger    *slog.Logger
}

func newNode(p nodeParams) *Node {
	cfg := p.Config
	node := &Node{Config: cfg}

	if cfg.Has(config.RoleInventory) {
		backups := make([]inventory.Backup, 0, len(cfg.InventoryBackups))
		for _, addr := range cfg.InventoryBackups {
			backups = append(backups, rpc.NewInventoryClient(addr, p.Transport))
		}
		replicator := inventory.NewReplicator(backups, cfg.ReplicationTimeout, p.Logger)
		node.Inventory = inventory.NewStore(cfg.StockSeed, replicator, p.Logger)
	}
	if cfg.Has(config.RolePayment) {
		node.Ledger = payment.NewLedger(p.Logger)
	}
	if cfg.Has(config.RoleQueue) {
		node.Queue = queue.NewPriorityOrderQueue()
	}
	if cfg.Has(config.RoleExecutor) {
		node.Elector = election.NewElector(
			cfg.NodeID,
			cfg.PeerIDs(),
			rpc.NewPeerClient(cfg.Peers, p.Transport),
			election.Options{Timeout: cfg.ElectionTimeout, ReelectOnProbe: cfg.ElectionReelectOnProbe},
			p.Logger,
		)
	}
	return node
}

func newOrderQueue(node *Node, t *rpc.Transport) OrderQueue {
	if node.Queue != nil {
		return node.Queue
	}
	return rpc.NewQueueClient(node.Config.QueueURL, t)
}

func newStockReader(node *Node, t *rpc.Transport) StockReader {
	if node.Inventory != nil {
		return localStock{store: node.Inventory}
	}
	return rpc.NewInventoryClient(node.Config.InventoryURL, t)
}

func newParticipants(node *Node, t *rpc.Transport) []txn.Participant {
	var inv, pay txn.Participant
	if node.Inventory != nil {
		inv = node.Inventory
	} else {
		inv = rpc.NewParticipantClient("inventory", node.Config.InventoryURL, t)
	}
	if node.Ledger != nil {
		pay = node.Ledger
	} else {
		pay = rpc.NewParticipantClient("payment", node.Config.PaymentURL, t)
	}
	return []txn.Participant{inv, pay}
}

type coordinatorParams struct {
	fx.In

	Config       *config.Config
	Participants []txn.Participant
	Logger       *slog.Logger
}

func newCoordinator(p coordinatorParams) *txn.Coordinator {
	policy := txn.Policy{Attempts: p.Config.RPCAttempts, Backoff: p.Config.RPCBackoff, Timeout: p.Config.RPCTimeout}
	return txn.NewCoordinator(p.Participants, policy, p.Logger)
}

type pipelineParams struct {
	fx.In

	Config         *config.Config
	FraudOracle    verification.FraudOracle
	Recommendation verification.RecommendationOracle
	Logger         *slog.Logger
}

func newVerifier(p pipelineParams) usecase.Verifier {
	cfg := p.Config
	fraud := verification.NewFraudDetector(p.FraudOracle, verification.FraudOptions{
		FailOpen:       cfg.FraudFailOpen,
		ClockThreshold: uint64(cfg.FraudClockThreshold),
		Timeout:        cfg.OracleTimeout,
	}, p.Logger)
	return pipeline.New(
		verification.NewTransactionVerifier(),
		fraud,
		verification.NewRecommender(p.Recommendation, cfg.OracleTimeout, p.Logger),
		p.Logger,
	)
}

type workerParams struct {
	fx.In

	Node        *Node
	Queue       OrderQueue
	Coordinator *txn.Coordinator
	Results     repository.ResultRepository
	Logger      *slog.Logger
}

// newOrderProcessor returns nil on nodes without the executor role.
func newOrderProcessor(p workerParams) *worker.OrderProcessor {
	if p.Node.Elector == nil {
		return nil
	}
	cfg := p.Node.Config
	return worker.NewOrderProcessor(p.Queue, p.Node.Elector, p.Coordinator, p.Results, worker.Options{
		ProbeInterval:  cfg.ElectionProbeInterval,
		DequeueTimeout: cfg.DequeueTimeout,
		Workers:        cfg.ExecutorWorkers,
	}, p.Logger)
}

// Health snapshots node state.
type Health struct {
	NodeID      int
	Roles       []string
	Leader      int
	LeaderKnown bool
	Inventory   bool
	Backups     int
	Replication inventory.Health
}

func (n *Node) Health() Health {
	h := Health{NodeID: n.Config.NodeID, Roles: append([]string(nil), n.Config.Roles...)}
	if n.Elector != nil {
		h.Leader, h.LeaderKnown = n.Elector.Leader()
	}
	if n.Inventory != nil {
		h.Inventory = true
		h.Backups = n.Inventory.Backups()
		h.Replication = n.Inventory.Replication()
	}
	return h
}

var (
	_ StockReader = (*rpc.InventoryClient)(nil)
	_ OrderQueue  = (*rpc.QueueClient)(nil)
	_ OrderQueue  = (*queue.PriorityOrderQueue)(nil)
)
