package layout

import (
	"time"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/google/uuid"
	"github.com/segmentio/encoding/json"
)

// Snapshot is a stored payload with the plan the planner returned for it.
type Snapshot struct {
	ID        string      `json:"id"`
	CreatedAt time.Time   `json:"createdAt"`
	Digest    string      `json:"digest"`
	Data      FactoryData `json:"data"`
	Plan      *Plan       `json:"plan,omitempty"`

	// Signature is set when the exporter has a signing key.
	Signature string `json:"signature,omitempty"`
}

// NewSnapshot returns a snapshot of data with a fresh id.
func NewSnapshot(data FactoryData) (Snapshot, error) {
	digest, err := Digest(data)
	if err != nil {
		return Snapshot{}, err
	}

	return Snapshot{
		ID:        uuid.NewString(),
		CreatedAt: time.Now().UTC(),
		Digest:    digest,
		Data:      data,
	}, nil
}

// Digest returns the keccak256 hash of the JSON encoding of data. Equal
// payloads have equal digests.
func Digest(data FactoryData) (string, error) {
	b, err := json.Marshal(data)
	if err != nil {
		return "", errors.New("encoding layout failed").Wrap(err)
	}
	return crypto.Keccak256Hash(b).Hex(), nil
}
