package cpu

import (
	"github.com/Manu343726/atomicemu/pkg/utils"
)

func makeError(err error, message string, args ...any) error {
	return utils.MakeError(err, message, args...)
}
