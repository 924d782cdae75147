package types

import "errors"

var (
	ErrUserNotFound        = errors.New("user not found")
	ErrHeadquarterNotFound = errors.New("headquarter not found")
	ErrBeneficiaryNotFound = errors.New("beneficiary not found")
	ErrProjectNotFound     = errors.New("project not found")
	ErrDonationNotFound    = errors.New("donation not found")
	ErrInvalidAmount       = errors.New("invalid amount")
)
