package main

import (
	"context"
	"crypto/ecdsa"
	"os"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/segmentio/encoding/json"
	"github.com/warehousesim/gridexport/layout"
	"github.com/warehousesim/gridexport/scene"
)

// exportScene rasterizes the scene file at path and stores the snapshot.
func exportScene(ctx context.Context, store layout.Store, path string, opts layout.Options, key *ecdsa.PrivateKey) (layout.Snapshot, error) {
	s, err := scene.Load(path)
	if err != nil {
		return layout.Snapshot{}, err
	}

	data, err := layout.Build(s, opts)
	if err != nil {
		return layout.Snapshot{}, err
	}

	snap, err := layout.NewSnapshot(data)
	if err != nil {
		return layout.Snapshot{}, err
	}
	if key != nil {
		if err := layout.Sign(&snap, key); err != nil {
			return layout.Snapshot{}, err
		}
	}

	if err := store.Save(ctx, snap); err != nil {
		return layout.Snapshot{}, err
	}
	return snap, nil
}

// writeOutput writes data as indented JSON to path, to stdout when path is
// "-". Nothing is written when path is empty.
func writeOutput(path string, data layout.FactoryData) error {
	if path == "" {
		return nil
	}

	b, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return errors.New("encoding layout failed").Wrap(err)
	}
	b = append(b, '\n')

	if path == "-" {
		_, err = os.Stdout.Write(b)
		return err
	}

	if err := os.WriteFile(path, b, 0o644); err != nil {
		return errors.New("writing layout failed").
			WithTag("path", path).
			Wrap(err)
	}
	return nil
}
