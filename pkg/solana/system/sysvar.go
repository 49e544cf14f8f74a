package system

import (
	"github.com/code-payments/code-solana-sdk/pkg/solana"
)

// ProgramKey is the address of the system program.
//
// https://explorer.solana.com/address/11111111111111111111111111111111
var ProgramKey solana.PublicKey

// RentSysVar points to the system variable "Rent"
//
// Source: https://github.com/solana-labs/solana/blob/f02a78d8fff2dd7297dc6ce6eb5a68a3002f5359/sdk/src/sysvar/rent.rs#L11
var RentSysVar = solana.MustPublicKeyFromBase58("SysvarRent111111111111111111111111111111111")

// RecentBlockhashesSysVar points to the system variable "Recent Blockhashes"
//
// Source: https://github.com/solana-labs/solana/blob/f02a78d8fff2dd7297dc6ce6eb5a68a3002f5359/sdk/src/sysvar/recent_blockhashes.rs#L12-L15
var RecentBlockhashesSysVar = solana.MustPublicKeyFromBase58("SysvarRecentB1ockHashes11111111111111111111")
