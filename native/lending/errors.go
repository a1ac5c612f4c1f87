package lending

import "errors"

var (
	ErrPriceStale                 = errors.New("lending: price observation stale")
	ErrPriceIdentifierMismatch    = errors.New("lending: price feed identifier mismatch")
	ErrInvalidPrice               = errors.New("lending: invalid price observation")
	ErrDepositLimitExceeded       = errors.New("lending: deposit limit exceeded")
	ErrBorrowLimitExceeded        = errors.New("lending: borrow limit exceeded")
	ErrMinAvailableAmountViolated = errors.New("lending: available amount below protocol minimum")
	ErrInvalidReserveConfig       = errors.New("lending: invalid reserve config")
	ErrInvalidUtilization         = errors.New("lending: utilization exceeds 100%")
	ErrRepayAmountMismatch        = errors.New("lending: repay coin does not match settle amount")
)
