package test

import (
	"encoding/hex"
	"path/filepath"
	"testing"

	"github.com/crosschain/headersync/config"
	"github.com/crosschain/headersync/internal/test/factory"
	hsos "github.com/crosschain/headersync/libs/os"
)

const genesisFileName = "genesis.hex"

// ResetTestRoot creates a home directory for testName holding a default
// config file and a hex encoded genesis header of chainID at height 0,
// signed by signers. It returns the test config rooted there and the path
// of the genesis file.
func ResetTestRoot(t *testing.T, testName string, chainID uint64, signers []factory.Signer) (*config.Config, string) {
	t.Helper()

	conf, err := config.ResetTestRoot(t.TempDir(), testName)
	if err != nil {
		t.Fatal(err)
	}

	genesis := factory.GenesisHeader(chainID, 0, signers)
	genesisFile := filepath.Join(conf.RootDir, "config", genesisFileName)
	if err := hsos.WriteFileAtomic(genesisFile, []byte(hex.EncodeToString(genesis.Marshal())), 0644); err != nil {
		t.Fatal(err)
	}
	return conf, genesisFile
}
