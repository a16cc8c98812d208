// Package v1 contains the full set of handler functions and routes
// supported by the v1 web api.
package v1

import (
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/scremy/blockchain/app/services/node/handlers/v1/public"
	"github.com/scremy/blockchain/foundation/blockchain/state"
	"github.com/scremy/blockchain/foundation/events"
	"github.com/scremy/blockchain/foundation/web"
	"go.uber.org/zap"
)

// The browser client calls the ledger routes at the root of the host.
const version = ""

// Config contains all the mandatory systems required by handlers.
type Config struct {
	Log   *zap.SugaredLogger
	State *state.State
	Evts  *events.Events
}

// PublicRoutes binds all the version 1 public routes.
func PublicRoutes(app *web.App, cfg Config) {
	pbl := public.Handlers{
		Log:   cfg.Log,
		State: cfg.State,
		WS:    websocket.Upgrader{},
		Evts:  cfg.Evts,
	}

	app.Handle(http.MethodGet, version, "/chain", pbl.Chain)
	app.Handle(http.MethodGet, version, "/chain/valid", pbl.Valid)
	app.Handle(http.MethodGet, version, "/balance/:address", pbl.Balance)
	app.Handle(http.MethodPost, version, "/mine", pbl.Mine)
	app.Handle(http.MethodPost, version, "/transaction/new", pbl.SubmitTransaction)
	app.Handle(http.MethodPost, version, "/api/wallet/create", pbl.CreateWallet)
	app.Handle(http.MethodGet, version, "/api/wallet/list", pbl.Wallets)
	app.Handle(http.MethodPost, version, "/api/mining/start", pbl.StartMining)
	app.Handle(http.MethodPost, version, "/api/transfer", pbl.Transfer)
	app.Handle(http.MethodGet, version, "/tx/pending", pbl.Mempool)
	app.Handle(http.MethodGet, version, "/genesis/list", pbl.Genesis)
	app.Handle(http.MethodGet, version, "/accounts/list", pbl.Accounts)
	app.Handle(http.MethodGet, version, "/blocks/list", pbl.BlocksByAddress)
	app.Handle(http.MethodGet, version, "/blocks/list/:address", pbl.BlocksByAddress)
	app.Handle(http.MethodGet, version, "/events", pbl.Events)
}
