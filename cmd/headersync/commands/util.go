package commands

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	dbm "github.com/tendermint/tm-db"

	"github.com/crosschain/headersync/config"
	"github.com/crosschain/headersync/libs/log"
	"github.com/crosschain/headersync/light"
	"github.com/crosschain/headersync/light/store"
	dbs "github.com/crosschain/headersync/light/store/db"
	"github.com/crosschain/headersync/types"
)

const headerDBName = "headers"

// node bundles what the commands operating on the header store need.
type node struct {
	logger log.Logger
	db     dbm.DB
	store  store.Store
	client *light.Client
}

func newLogger(cmd *cobra.Command, conf *config.Config) (log.Logger, error) {
	return log.NewLogger(cmd.ErrOrStderr(), conf.LogFormat, conf.LogLevel)
}

// openNode opens the header database and builds a light client over it.
// The caller must call close.
func openNode(cmd *cobra.Command, conf *config.Config, options ...light.Option) (*node, error) {
	logger, err := newLogger(cmd, conf)
	if err != nil {
		return nil, err
	}
	db, err := config.DefaultDBProvider(&config.DBContext{ID: headerDBName, Config: conf})
	if err != nil {
		return nil, fmt.Errorf("open header database: %w", err)
	}
	s := dbs.New(db)

	options = append([]light.Option{
		light.Logger(logger),
		light.StrictBlockHash(conf.Sync.StrictBlockHash),
	}, options...)

	return &node{
		logger: logger,
		db:     db,
		store:  s,
		client: light.NewClient(s, options...),
	}, nil
}

func (n *node) close() {
	if err := n.db.Close(); err != nil {
		n.logger.Error("failed to close header database", "err", err)
	}
}

// readHeader decodes one hex encoded header from the file named by args[0],
// or from stdin when no file or "-" is given.
func readHeader(cmd *cobra.Command, args []string) (*types.Header, error) {
	var (
		bz  []byte
		err error
	)
	if len(args) == 0 || args[0] == "-" {
		bz, err = io.ReadAll(cmd.InOrStdin())
	} else {
		bz, err = os.ReadFile(args[0])
	}
	if err != nil {
		return nil, err
	}
	return decodeHexHeader(bytes.TrimSpace(bz))
}

func decodeHexHeader(line []byte) (*types.Header, error) {
	raw := make([]byte, hex.DecodedLen(len(line)))
	if _, err := hex.Decode(raw, line); err != nil {
		return nil, fmt.Errorf("header is not hex encoded: %w", err)
	}
	return types.UnmarshalHeader(raw)
}

func printJSON(w io.Writer, v interface{}) error {
	bz, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(bz))
	return err
}
