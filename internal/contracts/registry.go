package contracts

import "github.com/roach88/augurlite/internal/chain"

// Contract names, as registered in the Controller and used by the deployer.
const (
	ControllerName               = "Controller"
	AugurLiteName                = "AugurLite"
	UniverseName                 = "Universe"
	TestNetDenominationTokenName = "TestNetDenominationToken"
	TimeName                     = "Time"
	TimeControlledName           = "TimeControlled"
)

// All returns the code of every contract kind, for chain.WithCode.
func All() []chain.Code {
	return []chain.Code{
		Controller(),
		AugurLite(),
		Universe(),
		TestNetDenominationToken(),
		Time(),
		TimeControlled(),
	}
}
