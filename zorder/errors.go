package zorder

import (
	"errors"
	"math/big"

	"github.com/muesli/reflow/truncate"
)

// ErrInvalidArgument is wrapped by every error returned for a violated call
// contract (wrong dimensionality, negative values, malformed range, ...).
var ErrInvalidArgument = errors.New(`invalid argument`)

const maxOperandLen = 40

// short keeps arbitrarily large operands from flooding error messages.
func short(x *big.Int) string {
	return truncate.StringWithTail(x.String(), maxOperandLen, "...")
}
