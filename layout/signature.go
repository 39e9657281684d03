package layout

import (
	"crypto/ecdsa"
	"strings"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

const (
	ErrTypeInvalidSignature = "invalid-signature"
)

// Sign signs the snapshot digest with key so that a planner can check which
// exporter produced the payload.
func Sign(s *Snapshot, key *ecdsa.PrivateKey) error {
	signature, err := crypto.Sign(common.HexToHash(s.Digest).Bytes(), key)
	if err != nil {
		return errors.New("signing snapshot failed").
			WithTag("id", s.ID).
			Wrap(err)
	}
	s.Signature = hexutil.Encode(signature)
	return nil
}

// Signer returns the address that signed s.
func Signer(s Snapshot) (string, error) {
	signature, err := hexutil.Decode(s.Signature)
	if err != nil {
		return "", errors.New("decoding signature failed").
			WithTag("id", s.ID).
			WithType(ErrTypeInvalidSignature).
			Wrap(err)
	}

	pub, err := crypto.SigToPub(common.HexToHash(s.Digest).Bytes(), signature)
	if err != nil {
		return "", errors.New("recovering signer failed").
			WithTag("id", s.ID).
			WithType(ErrTypeInvalidSignature).
			Wrap(err)
	}
	return crypto.PubkeyToAddress(*pub).Hex(), nil
}

// LoadPrivateKey parses a hex encoded secp256k1 key, with or without the 0x
// prefix.
func LoadPrivateKey(hexKey string) (*ecdsa.PrivateKey, error) {
	hexKey = strings.TrimPrefix(strings.TrimSpace(hexKey), "0x")
	if hexKey == "" {
		return nil, errors.New("signing key is empty")
	}

	key, err := crypto.HexToECDSA(hexKey)
	if err != nil {
		return nil, errors.New("parsing signing key failed").Wrap(err)
	}
	return key, nil
}
