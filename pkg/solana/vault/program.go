package vault

import (
	"crypto/ed25519"

	"github.com/mr-tron/base58"
)

var (
	PROGRAM_ADDRESS = mustBase58Decode("7VaBq8KWHH8vNAxhoS4vHYeU8rfi1uNUWdHfffpmpKEg")
	PROGRAM_ID      = ed25519.PublicKey(PROGRAM_ADDRESS)
)

func mustBase58Decode(value string) []byte {
	decoded, err := base58.Decode(value)
	if err != nil {
		panic(err)
	}
	return decoded
}
