package emulation

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Manu343726/atomicemu/pkg/utils"
)

var ErrUnknownPolicy = errors.New("unknown policy")

// Decides what happens when a trapped WSR targets a special register other than SCOMPARE1
type UnwatchedWritePolicy int

const (
	// Report the trap as not handled so the dispatcher applies its own policy
	UnwatchedWritePolicy_Forward UnwatchedWritePolicy = iota
	// Treat the instruction as a no-op and report it as handled
	UnwatchedWritePolicy_Ignore
	// Fail with ErrUnwatchedAuxiliaryRegister
	UnwatchedWritePolicy_Fatal
)

var unwatchedWritePolicyNames = map[UnwatchedWritePolicy]string{
	UnwatchedWritePolicy_Forward: "forward",
	UnwatchedWritePolicy_Ignore:  "ignore",
	UnwatchedWritePolicy_Fatal:   "fatal",
}

func (p UnwatchedWritePolicy) String() string {
	if name, ok := unwatchedWritePolicyNames[p]; ok {
		return name
	}

	return fmt.Sprintf("unknown(%d)", int(p))
}

// Parses a policy name (forward, ignore, fatal)
func ParseUnwatchedWritePolicy(name string) (UnwatchedWritePolicy, error) {
	for policy, policyName := range unwatchedWritePolicyNames {
		if strings.EqualFold(name, policyName) {
			return policy, nil
		}
	}

	return UnwatchedWritePolicy_Forward, utils.MakeError(ErrUnknownPolicy, "'%v', expected one of forward, ignore, fatal", name)
}
