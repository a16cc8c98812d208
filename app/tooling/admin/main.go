// This program performs administrative tasks against a node's stored chain.
// The node must be stopped while the admin tool runs against disk storage.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/ardanlabs/conf/v3"
	"github.com/scremy/blockchain/app/tooling/admin/commands"
	"github.com/scremy/blockchain/foundation/blockchain/database"
	"github.com/scremy/blockchain/foundation/blockchain/genesis"
	"github.com/scremy/blockchain/foundation/blockchain/storage"
	"github.com/scremy/blockchain/foundation/blockchain/strategy"
	"github.com/scremy/blockchain/foundation/logger"
	"go.uber.org/zap"
)

// build is the git version of this program. It is set using build flags in the makefile.
var build = "develop"

func main() {

	// Construct the application logger.
	log, err := logger.New("ADMIN")
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	defer log.Sync()

	// Perform the startup and shutdown sequence.
	if err := run(log); err != nil {
		log.Errorw("startup", "ERROR", err)
		log.Sync()
		os.Exit(1)
	}
}

func run(log *zap.SugaredLogger) error {
	cfg := struct {
		conf.Version
		Args  conf.Args
		State struct {
			Storage     string `conf:"default:disk"`
			DBPath      string `conf:"default:zblock/blocks"`
			Strategy    string `conf:"default:Trivial"`
			GenesisPath string
		}
	}{
		Version: conf.Version{
			Build: build,
			Desc:  "scremy ledger admin",
		},
	}

	const prefix = "ADMIN"
	help, err := conf.Parse(prefix, &cfg)
	if err != nil {
		if errors.Is(err, conf.ErrHelpWanted) {
			fmt.Println(help)
			return nil
		}
		return fmt.Errorf("parsing config: %w", err)
	}

	gen := genesis.Default()
	if cfg.State.GenesisPath != "" {
		gen, err = genesis.Load(cfg.State.GenesisPath)
		if err != nil {
			return fmt.Errorf("unable to load genesis file: %w", err)
		}
	}

	strg, err := storage.Open(cfg.State.Storage, cfg.State.DBPath)
	if err != nil {
		return fmt.Errorf("unable to open storage: %w", err)
	}

	ev := func(v string, args ...any) {
		log.Debugw(fmt.Sprintf(v, args...))
	}

	// The database replays and validates every stored block while it loads.
	difficulty := strategy.Difficulty(cfg.State.Strategy, gen.Difficulty)
	db, err := database.New(gen, difficulty, strg, ev)
	if err != nil {
		strg.Close()
		return fmt.Errorf("loading chain: %w", err)
	}
	defer db.Close()

	return processCommands(cfg.Args, db)
}

// processCommands handles the execution of the commands specified on
// the command line.
func processCommands(args conf.Args, db *database.Database) error {
	switch args.Num(0) {
	case "bals":
		if err := commands.Balances(os.Stdout, args.Num(1), db); err != nil {
			return fmt.Errorf("getting balances: %w", err)
		}
	case "trans":
		if err := commands.Transactions(os.Stdout, args.Num(1), db); err != nil {
			return fmt.Errorf("getting transactions: %w", err)
		}
	case "valid":
		if err := commands.Validate(os.Stdout, db); err != nil {
			return fmt.Errorf("validating chain: %w", err)
		}
	default:
		fmt.Println("bals [address]:  print the balances of every account or one address")
		fmt.Println("trans [address]: print the mined transactions of every account or one address")
		fmt.Println("valid:           validate the stored chain")
		fmt.Println("provide a command to get more help.")
	}

	return nil
}
