package app

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/rs/zerolog/log"

	"github.com/toolback/tokenbridge/internal/metric"
	zerologinit "github.com/toolback/tokenbridge/internal/zerolog"
	"github.com/toolback/tokenbridge/pkg/bridge"
	"github.com/toolback/tokenbridge/pkg/bridge/api"
	"github.com/toolback/tokenbridge/pkg/bridge/ledger"
	"github.com/toolback/tokenbridge/pkg/bridge/registry"
	"github.com/toolback/tokenbridge/pkg/bridge/router"
	"github.com/toolback/tokenbridge/pkg/bridge/types"
	"github.com/toolback/tokenbridge/pkg/config"
)

// App holds all the dependencies of a running bridge node. The node runs the
// local bridge plus, for every configured remote chain, an in-process mirror
// bridge wired through the local router network so devnet transfers complete
// end to end.
type App struct {
	ctx context.Context

	cfg   *config.Config
	admin types.AdminToken

	state    *ledger.State
	events   *bridge.EventLog
	registry *registry.Registry
	network  *router.LocalNetwork
	bridge   *bridge.Bridge

	metricServer *metric.Server
	apiServer    *api.Server
}

// New creates a new application instance
func New(ctx context.Context) *App {
	return &App{ctx: ctx}
}

// Run initializes all components and starts the servers.
func (a *App) Run(cfgPath string, debug bool) error {
	if err := a.initConfig(cfgPath, debug); err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := a.initMetrics(); err != nil {
		return fmt.Errorf("failed to initialize metrics: %w", err)
	}

	if err := a.initState(); err != nil {
		return fmt.Errorf("failed to initialize ledger state: %w", err)
	}

	if err := a.initBridge(); err != nil {
		return fmt.Errorf("failed to initialize bridge: %w", err)
	}

	if err := a.initMirrors(); err != nil {
		return fmt.Errorf("failed to initialize mirror bridges: %w", err)
	}

	if err := a.initAPI(); err != nil {
		return fmt.Errorf("failed to initialize API server: %w", err)
	}

	log.Info().Msg("bridge node started")
	return nil
}

func (a *App) initConfig(cfgPath string, debug bool) error {
	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		return err
	}
	a.cfg = cfg
	zerologinit.InitLogger(cfg.Logging.Level, cfg.Logging.Format, debug)
	return nil
}

func (a *App) initMetrics() error {
	a.metricServer = metric.New(nil)
	go func() {
		if err := a.metricServer.Start(); err != nil {
			log.Error().Err(err).Msg("metric server stopped")
		}
	}()
	return nil
}

func (a *App) initState() error {
	a.state = ledger.NewState()

	faucet := common.HexToAddress(a.cfg.Faucet.Account)
	if faucet == (common.Address{}) {
		return nil
	}
	if supply, ok := new(big.Int).SetString(a.cfg.Faucet.NativeSupply, 10); ok && supply.Sign() > 0 {
		if err := a.state.CreditNative(faucet, supply); err != nil {
			return err
		}
	}
	return nil
}

func (a *App) initBridge() error {
	a.admin = types.NewAdminToken()
	a.events = bridge.NewEventLog()

	reg, err := registry.New(&registry.Config{Admin: a.admin, Events: a.events})
	if err != nil {
		return err
	}
	a.registry = reg

	baseFee, ok := new(big.Int).SetString(a.cfg.Router.BaseFeeWei, 10)
	if !ok {
		return errors.New("invalid router base fee")
	}
	gasPrice, ok := new(big.Int).SetString(a.cfg.Router.GasPriceWei, 10)
	if !ok {
		return errors.New("invalid router gas price")
	}
	a.network, err = router.NewLocalNetwork(&router.Config{BaseFee: baseFee, GasPrice: gasPrice})
	if err != nil {
		return err
	}

	token := common.HexToAddress(a.cfg.Bridge.Token)
	account := common.HexToAddress(a.cfg.Bridge.Account)
	minter, err := a.state.GrantMinter(token)
	if err != nil {
		return err
	}

	// Seed the faucet before the minter capability is sealed inside the
	// bridge.
	faucet := common.HexToAddress(a.cfg.Faucet.Account)
	if faucet != (common.Address{}) {
		if supply, ok := new(big.Int).SetString(a.cfg.Faucet.TokenSupply, 10); ok && supply.Sign() > 0 {
			if err := minter.Mint(faucet, supply); err != nil {
				return err
			}
		}
	}

	localSelector := types.ChainSelector(a.cfg.Bridge.LocalSelector)
	b, err := bridge.New(&bridge.Config{
		Token:         token,
		Account:       account,
		RouterAccount: common.HexToAddress(a.cfg.Bridge.RouterAccount),
		Admin:         a.admin,
		Ledger:        a.state,
		Minter:        minter,
		Router:        a.network.Endpoint(localSelector, account),
		Registry:      reg,
		Events:        a.events,
	})
	if err != nil {
		return err
	}
	a.bridge = b
	a.network.Register(localSelector, b)

	for name, chain := range a.cfg.Chains {
		err := reg.SetEndpoint(a.admin,
			types.ChainSelector(chain.Selector),
			common.HexToAddress(chain.Sender),
			common.HexToAddress(chain.Receiver),
			chain.Paused,
			chain.GasLimit,
			chain.Strict,
		)
		if err != nil {
			return fmt.Errorf("failed to configure chain %s: %w", name, err)
		}
	}
	return nil
}

// initMirrors stands up an in-process counterpart bridge for every configured
// chain. The mirror's custody account is the sender address the local
// registry authenticates, so deliveries pass provenance in both directions.
func (a *App) initMirrors() error {
	localSelector := types.ChainSelector(a.cfg.Bridge.LocalSelector)
	localAccount := common.HexToAddress(a.cfg.Bridge.Account)

	for name, chain := range a.cfg.Chains {
		selector := types.ChainSelector(chain.Selector)
		account := common.HexToAddress(chain.Sender)
		token := mirrorToken(selector)

		admin := types.NewAdminToken()
		events := bridge.NewEventLog()
		reg, err := registry.New(&registry.Config{Admin: admin, Events: events})
		if err != nil {
			return err
		}
		err = reg.SetEndpoint(admin, localSelector, localAccount, localAccount, false, chain.GasLimit, chain.Strict)
		if err != nil {
			return fmt.Errorf("failed to configure mirror %s: %w", name, err)
		}

		minter, err := a.state.GrantMinter(token)
		if err != nil {
			return err
		}
		mirror, err := bridge.New(&bridge.Config{
			Token:         token,
			Account:       account,
			RouterAccount: common.HexToAddress(a.cfg.Bridge.RouterAccount),
			Admin:         admin,
			Ledger:        a.state,
			Minter:        minter,
			Router:        a.network.Endpoint(selector, account),
			Registry:      reg,
			Events:        events,
		})
		if err != nil {
			return err
		}
		a.network.Register(selector, mirror)
		log.Info().Str("chain", name).Uint64("selector", chain.Selector).Msg("mirror bridge registered")
	}
	return nil
}

func (a *App) initAPI() error {
	handler, err := api.NewHandler(&api.Config{
		Bridge:   a.bridge,
		Registry: a.registry,
		Admin:    a.admin,
		AdminKey: a.cfg.HTTP.AdminKey,
	})
	if err != nil {
		return err
	}
	a.apiServer = api.NewServer(handler, a.cfg.HTTP.Host, a.cfg.HTTP.Port)
	go func() {
		if err := a.apiServer.Start(); err != nil {
			log.Error().Err(err).Msg("API server stopped")
		}
	}()
	return nil
}

// Shutdown stops the servers gracefully.
func (a *App) Shutdown() error {
	log.Info().Msg("shutting down bridge node")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if a.apiServer != nil {
		if err := a.apiServer.Shutdown(ctx); err != nil {
			return fmt.Errorf("failed to stop API server: %w", err)
		}
	}
	return nil
}

// mirrorToken derives a deterministic token address for a mirror chain.
func mirrorToken(selector types.ChainSelector) common.Address {
	return common.BytesToAddress(crypto.Keccak256([]byte(fmt.Sprintf("mirror-token-%d", selector)))[12:])
}
