package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/segmentio/encoding/json"
	"github.com/stretchr/testify/require"
	"github.com/warehousesim/gridexport/layout"
)

func TestExportScene(t *testing.T) {
	ctx := context.Background()
	store := layout.NewMemoryStore()

	key, err := crypto.GenerateKey()
	require.NoError(t, err)

	snap, err := exportScene(ctx, store, "testdata/warehouse.yaml", layout.Options{Markers: true}, key)
	require.NoError(t, err)
	require.Equal(t, 5, snap.Data.Grid.Rows)
	require.NotEmpty(t, snap.Signature)

	stored, err := store.Get(ctx, snap.ID)
	require.NoError(t, err)
	require.Equal(t, snap.Digest, stored.Digest)

	output := filepath.Join(t.TempDir(), "layout.json")
	require.NoError(t, writeOutput(output, snap.Data))

	b, err := os.ReadFile(output)
	require.NoError(t, err)

	var data layout.FactoryData
	require.NoError(t, json.Unmarshal(b, &data))
	require.Equal(t, snap.Data, data)

	t.Run("missing scene", func(t *testing.T) {
		_, err := exportScene(ctx, store, "testdata/missing.yaml", layout.Options{}, nil)
		require.Error(t, err)
	})

	t.Run("no output", func(t *testing.T) {
		require.NoError(t, writeOutput("", snap.Data))
	})
}

func TestValidateConfig(t *testing.T) {
	valid := config{
		FrameDuration:      1,
		LogSummaryInterval: 1,
		PublicEndpoint:     "http://localhost:4000",
	}

	tests := []struct {
		name  string
		conf  func(c config) config
		valid bool
	}{
		{
			name:  "defaults",
			conf:  func(c config) config { return c },
			valid: true,
		},
		{
			name: "both private keys",
			conf: func(c config) config {
				c.PrivateKey = "a"
				c.PrivateKeyFile = "b"
				return c
			},
		},
		{
			name: "export only without scene",
			conf: func(c config) config {
				c.ExportOnly = true
				return c
			},
		},
		{
			name: "fraction too large",
			conf: func(c config) config {
				c.Fraction = 2
				return c
			},
		},
		{
			name: "invalid public endpoint",
			conf: func(c config) config {
				c.PublicEndpoint = "localhost"
				return c
			},
		},
		{
			name: "zero frame duration",
			conf: func(c config) config {
				c.FrameDuration = 0
				return c
			},
		},
		{
			name: "zero log summary interval",
			conf: func(c config) config {
				c.LogSummaryInterval = 0
				return c
			},
		},
		{
			name: "negative max cells",
			conf: func(c config) config {
				c.MaxCells = -1
				return c
			},
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			err := validateConfig(test.conf(valid))
			if test.valid {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
		})
	}
}

func TestLoadPrivateKey(t *testing.T) {
	key, err := loadPrivateKey(config{})
	require.NoError(t, err)
	require.Nil(t, key)

	generated, err := crypto.GenerateKey()
	require.NoError(t, err)

	file := filepath.Join(t.TempDir(), "key")
	require.NoError(t, crypto.SaveECDSA(file, generated))

	key, err = loadPrivateKey(config{PrivateKeyFile: file})
	require.NoError(t, err)
	require.Equal(t, generated.D, key.D)
}
