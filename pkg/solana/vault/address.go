package vault

import (
	"crypto/ed25519"

	"github.com/code-payments/code-vault-server/pkg/solana"
)

var (
	treasuryPrefix = []byte("treasury")
)

type GetUserInfoAddressArgs struct {
	Authority ed25519.PublicKey
	UserKey   UserKey
}

type GetVaultAddressArgs struct {
	VaultId VaultId
}

type GetTreasuryAddressArgs struct {
	VaultId VaultId
}

// UserInfoSeeds are the seeds of a user record address.
func UserInfoSeeds(authority ed25519.PublicKey, userKey UserKey) [][]byte {
	return [][]byte{authority, userKey.Seed()}
}

// VaultSeeds are the seeds of a vault pool address.
func VaultSeeds(vaultId VaultId) [][]byte {
	return [][]byte{vaultId.Seed()}
}

// TreasurySeeds are the seeds of a vault's treasury pool address.
func TreasurySeeds(vaultId VaultId) [][]byte {
	return [][]byte{treasuryPrefix, vaultId.Seed()}
}

func GetUserInfoAddress(args *GetUserInfoAddressArgs) (ed25519.PublicKey, uint8, error) {
	return solana.FindProgramAddressAndBump(
		PROGRAM_ID,
		UserInfoSeeds(args.Authority, args.UserKey)...,
	)
}

func GetVaultAddress(args *GetVaultAddressArgs) (ed25519.PublicKey, uint8, error) {
	return solana.FindProgramAddressAndBump(
		PROGRAM_ID,
		VaultSeeds(args.VaultId)...,
	)
}

func GetTreasuryAddress(args *GetTreasuryAddressArgs) (ed25519.PublicKey, uint8, error) {
	return solana.FindProgramAddressAndBump(
		PROGRAM_ID,
		TreasurySeeds(args.VaultId)...,
	)
}
