package ledger

import (
	"crypto/ed25519"
	"math"
	"testing"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecord_Validate(t *testing.T) {
	pub, _, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	address := base58.Encode(pub)
	owner := base58.Encode(make([]byte, ed25519.PublicKeySize))

	valid := &Record{Address: address, Owner: owner, Lamports: 10}
	assert.NoError(t, valid.Validate())

	for _, invalid := range []*Record{
		{Address: "", Owner: owner},
		{Address: "not-base58-0OIl", Owner: owner},
		{Address: base58.Encode(pub[:16]), Owner: owner},
		{Address: address, Owner: ""},
		{Address: address, Owner: owner, Lamports: math.MaxInt64 + 1},
	} {
		assert.True(t, errors.Is(invalid.Validate(), ErrInvalidRecord))
	}
}

func TestRecord_Clone(t *testing.T) {
	original := &Record{Address: "a", Owner: "o", Lamports: 5, Data: []byte{1, 2, 3}, Version: 2}

	cloned := original.Clone()
	assert.Equal(t, *original, cloned)

	cloned.Data[0] = 9
	assert.EqualValues(t, 1, original.Data[0])

	var dst Record
	original.CopyTo(&dst)
	assert.Equal(t, *original, dst)
}
