package inventorybalancer

import (
	"log/slog"
	"math/rand"
	"time"

	"github.com/ileka2468/JuicerScribe/contexts/finance-core/inventory-balancer/adapters/memory"
	"github.com/ileka2468/JuicerScribe/contexts/finance-core/inventory-balancer/application/workers"
	"github.com/ileka2468/JuicerScribe/contexts/finance-core/inventory-balancer/ports"
)

type Module struct {
	Balancer *workers.InventoryBalancer
	Store    *memory.Store
}

type Dependencies struct {
	Finance ports.FinanceRepository
	Videos  ports.VideoRepository
	Search  ports.VideoSearcher
	Clock   ports.Clock
	IDGen   ports.IDGenerator
	Rand    ports.Rand
	Config  workers.Config
	Logger  *slog.Logger
}

func NewModule(deps Dependencies) Module {
	random := deps.Rand
	if random == nil {
		random = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return Module{
		Balancer: &workers.InventoryBalancer{
			Finance: deps.Finance,
			Videos:  deps.Videos,
			Search:  deps.Search,
			Clock:   deps.Clock,
			IDGen:   deps.IDGen,
			Rand:    random,
			Config:  deps.Config,
			Logger:  deps.Logger,
		},
	}
}

// NewInMemoryModule wires the balancer against the in-memory store for local
// runs and tests; only the searcher stays external.
func NewInMemoryModule(cfg workers.Config, search ports.VideoSearcher, logger *slog.Logger) Module {
	store := memory.NewStore()
	module := NewModule(Dependencies{
		Finance: store,
		Videos:  store,
		Search:  search,
		Clock:   store,
		IDGen:   store,
		Config:  cfg,
		Logger:  logger,
	})
	module.Store = store
	return module
}
