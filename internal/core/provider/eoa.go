package provider

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	solanarpc "github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
)

// ChainEOAChecker implements EOAChecker against live EVM and Solana RPC
// nodes, adapted from the teacher's pkg/evm_client/pkg/solana_client
// dial helpers. The Migration Handler (C8) uses this to reject
// candidate recipients that are contracts rather than wallets
// (spec §4.8 step 3).
type ChainEOAChecker struct {
	evm    map[string]*ethclient.Client
	solana *rpc.Client
}

func NewChainEOAChecker(evm map[string]*ethclient.Client, solana *rpc.Client) *ChainEOAChecker {
	return &ChainEOAChecker{evm: evm, solana: solana}
}

func (c *ChainEOAChecker) IsEOA(ctx context.Context, chain, address string) (bool, error) {
	switch chain {
	case "solana":
		return c.isSolanaEOA(ctx, address)
	default:
		return c.isEVMEOA(ctx, chain, address)
	}
}

func (c *ChainEOAChecker) isEVMEOA(ctx context.Context, chain, address string) (bool, error) {
	client, ok := c.evm[chain]
	if !ok {
		return false, fmt.Errorf("no evm rpc client configured for chain %q", chain)
	}
	code, err := client.CodeAt(ctx, common.HexToAddress(address), nil)
	if err != nil {
		return false, fmt.Errorf("code lookup for %s on %s: %w", address, chain, err)
	}
	return len(code) == 0, nil
}

// isSolanaEOA treats any account owned by the System Program as an EOA;
// anything else (the Token Program, a PDA, a deployed program) is not.
func (c *ChainEOAChecker) isSolanaEOA(ctx context.Context, address string) (bool, error) {
	pub, err := solanarpc.PublicKeyFromBase58(address)
	if err != nil {
		return false, fmt.Errorf("invalid solana address %s: %w", address, err)
	}
	info, err := c.solana.GetAccountInfo(ctx, pub)
	if err != nil {
		return false, fmt.Errorf("account lookup for %s on solana: %w", address, err)
	}
	if info == nil || info.Value == nil {
		return false, fmt.Errorf("no account info for %s on solana", address)
	}
	return info.Value.Owner.Equals(solanarpc.SystemProgramID), nil
}
