// This program performs administrative tasks against a node's stored chain.
// The node must not be running while the storage is opened.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/iridium/blockchain/app/tooling/admin/commands"
	"github.com/iridium/blockchain/foundation/blockchain/chain"
	"github.com/iridium/blockchain/foundation/blockchain/database"
	"github.com/iridium/blockchain/foundation/blockchain/storage"
	"github.com/iridium/blockchain/foundation/blockchain/storage/boltdb"
	"github.com/iridium/blockchain/foundation/blockchain/storage/disk"
	"github.com/iridium/blockchain/foundation/logger"
	"go.uber.org/zap"
)

// build is the git version of this program. It is set using build flags in the makefile.
var build = "develop"

const usage = "usage: admin <disk|bolt> <path> <bals|trans|validate> [account]"

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
	if len(os.Args) < 4 {
		return errors.New(usage)
	}

	log.Infow("startup", "version", build, "kind", os.Args[1], "path", os.Args[2])

	var strg storage.Serializer
	var err error
	switch os.Args[1] {
	case "disk":
		strg, err = disk.New(os.Args[2])
	case "bolt":
		strg, err = boltdb.New(os.Args[2])
	default:
		return errors.New(usage)
	}
	if err != nil {
		return fmt.Errorf("opening storage: %w", err)
	}
	defer strg.Close()

	blocks, err := storage.ReadAllBlocks(strg)
	if err != nil {
		return fmt.Errorf("reading blocks: %w", err)
	}

	return processCommands(os.Args[3:], blocks, log)
}

// processCommands handles the execution of the commands specified on
// the command line.
func processCommands(args []string, blocks []database.Block, log *zap.SugaredLogger) error {
	ev := func(v string, args ...any) {
		log.Debugf(v, args...)
	}

	switch args[0] {
	case "bals":
		bc, err := chain.FromBlocks(blocks, ev)
		if err != nil {
			return fmt.Errorf("loading chain: %w", err)
		}
		commands.Balances(args, bc)

	case "trans":
		commands.Transactions(args, blocks)

	case "validate":
		if err := commands.Validate(blocks, ev); err != nil {
			return fmt.Errorf("validating chain: %w", err)
		}

	default:
		return errors.New(usage)
	}

	return nil
}
