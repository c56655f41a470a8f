package config

import (
	"crypto/ed25519"
	"math"

	"github.com/mr-tron/base58/base58"

	"github.com/aura0x/aura-server/pkg/config"
	"github.com/aura0x/aura-server/pkg/config/env"
)

// The aura settlement token. Quark amounts are expressed against 9 decimal
// places, not the usual 6 of most SPL tokens.
const (
	Mint          = "5n4U8hnwBiQeJzcZMD5U2me8DemfQL8NeFgT4k2YkNEk"
	QuarksPerAura = 1_000_000_000
	Decimals      = 9
)

var TokenMint ed25519.PublicKey

func init() {
	var err error
	TokenMint, err = base58.Decode(Mint)
	if err != nil {
		panic(err)
	}
}

const (
	envMintAddress           = "AURA_MINT_ADDRESS"
	envPlatformWalletAddress = "AURA_PLATFORM_WALLET_ADDRESS"
	envPoolAuthorityKeypair  = "AURA_POOL_AUTHORITY_KEYPAIR"
	envSolanaRPCEndpoint     = "AURA_SOLANA_RPC_ENDPOINT"
	envSellRate              = "AURA_SELL_RATE"
	envBuyRate               = "AURA_BUY_RATE"
	envPointsRate            = "AURA_POINTS_RATE"

	defaultPlatformWalletAddress = "2msPD51wiqCDVRijPLAHjwvSU9N7XiwfAabMUv945w6L"
	defaultSolanaRPCEndpoint     = "http://localhost:8899"
	defaultSellRate              = 0.007
	defaultBuyRate               = 0.007
	defaultPointsRate            = 10.0
)

// Config wraps the environment-configurable settlement values. The pool
// authority keypair has no default and is sourced from the environment at
// process start only.
type Config struct {
	MintAddress           config.String
	PlatformWalletAddress config.String
	PoolAuthorityKeypair  config.String
	SolanaRPCEndpoint     config.String
	SellRate              config.Float64
	BuyRate               config.Float64
	PointsRate            config.Float64
}

func New() *Config {
	return &Config{
		MintAddress:           env.NewStringConfig(envMintAddress, Mint),
		PlatformWalletAddress: env.NewStringConfig(envPlatformWalletAddress, defaultPlatformWalletAddress),
		PoolAuthorityKeypair:  env.NewStringConfig(envPoolAuthorityKeypair, ""),
		SolanaRPCEndpoint:     env.NewStringConfig(envSolanaRPCEndpoint, defaultSolanaRPCEndpoint),
		SellRate:              env.NewFloat64Config(envSellRate, defaultSellRate),
		BuyRate:               env.NewFloat64Config(envBuyRate, defaultBuyRate),
		PointsRate:            env.NewFloat64Config(envPointsRate, defaultPointsRate),
	}
}

// ToQuarks converts a decimal token amount to quarks, truncating anything
// below quark precision.
func ToQuarks(amount float64) uint64 {
	return uint64(math.Floor(amount * QuarksPerAura))
}

// FromQuarks converts quarks to a decimal token amount.
func FromQuarks(quarks uint64) float64 {
	return float64(quarks) / QuarksPerAura
}
