package wallet

import "errors"

var (
	ErrIdentityNotFound = errors.New("identity not found")
	ErrInvalidIdentity  = errors.New("invalid identity")
)

type WalletNotFoundError struct {
	walletName string
}

func (e *WalletNotFoundError) Error() string {
	return "wallet " + e.walletName + " does not exist"
}
