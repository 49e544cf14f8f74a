package solana

// Environment is the JSON RPC endpoint of a public cluster.
type Environment string

const (
	EnvironmentDev  Environment = "https://api.devnet.solana.com"
	EnvironmentTest Environment = "https://api.testnet.solana.com"
	EnvironmentProd Environment = "https://api.mainnet-beta.solana.com"
)

// ParseEnvironment maps a cluster name to its endpoint. Unknown names are
// treated as custom endpoints.
func ParseEnvironment(name string) Environment {
	switch name {
	case "devnet":
		return EnvironmentDev
	case "testnet":
		return EnvironmentTest
	case "mainnet", "mainnet-beta":
		return EnvironmentProd
	default:
		return Environment(name)
	}
}
