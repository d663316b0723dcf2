// Package processor executes vault program instructions against a set of
// accounts supplied by a host.
package processor

import (
	"context"
	"crypto/ed25519"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/code-payments/code-vault-server/pkg/metrics"
	"github.com/code-payments/code-vault-server/pkg/solana"
	"github.com/code-payments/code-vault-server/pkg/solana/vault"
)

const (
	metricsStructName = "vault.processor"
)

// Processor runs vault instructions.
//
// Process only mutates accounts after every check for the instruction has
// passed, so a failed instruction leaves its accounts untouched. Hosts are
// still expected to stage accounts so failures across a multi-instruction
// transaction are discarded together.
type Processor struct {
	log     *logrus.Entry
	conf    *conf
	program ed25519.PublicKey
	derive  solana.DeriveFunc
}

// New returns a processor for vault.PROGRAM_ID deriving addresses with derive.
func New(derive solana.DeriveFunc, configProvider ConfigProvider) *Processor {
	return &Processor{
		log:     logrus.StandardLogger().WithField("type", "solana/vault/processor"),
		conf:    configProvider(),
		program: vault.PROGRAM_ID,
		derive:  derive,
	}
}

// ProgramID returns the program the processor executes instructions for.
func (p *Processor) ProgramID() ed25519.PublicKey {
	return p.program
}

// Process decodes data and dispatches the instruction with accounts in the
// positional order the instruction defines.
func (p *Processor) Process(ctx context.Context, accounts []*solana.AccountInfo, data []byte) error {
	decoded, err := vault.DecodeInstruction(data)
	if err != nil {
		p.log.WithError(err).Debug("invalid instruction data")
		return err
	}

	tracer := metrics.TraceMethodCall(ctx, metricsStructName, decoded.InstructionType().String())
	defer tracer.End()

	switch args := decoded.(type) {
	case *vault.InitializeVaultInstructionArgs:
		err = p.initializeVault(ctx, accounts, args)
	case *vault.DepositInstructionArgs:
		err = p.deposit(ctx, accounts, args)
	case *vault.WithdrawInstructionArgs:
		err = p.withdraw(ctx, accounts, args)
	default:
		err = errors.Wrapf(vault.ErrInvalidInstructionData, "unhandled instruction %T", decoded)
	}

	tracer.OnError(err)
	return err
}
