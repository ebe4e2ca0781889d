package constants

const (
	RuntimeName       = "local_fabric"
	ContainerPrefix   = "fabricvscodelocalfabric"
	AdminUser         = "admin"
	LocalWallet       = "local_wallet"
	OpsWalletSuffix   = "-ops"
	ConnectionProfile = "connection.json"

	// Environment variable read by the network scripts.
	EnvChaincodeMode  = "CORE_CHAINCODE_MODE"
	ChaincodeModeDev  = "dev"
	ChaincodeModeNet  = "net"
	DefaultConfigName = "localfabric"
	DefaultConfigType = "yml"
)

// OpsWallet is the wallet holding the admin identity used to operate the network.
func OpsWallet() string {
	return LocalWallet + OpsWalletSuffix
}
