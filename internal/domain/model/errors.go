package model

import "errors"

// Business-rule errors surfaced by the ledger aggregates. Validation failures
// are rejected before any mutation takes place.
var (
	// ErrPlanAlreadyExists is returned when a sale already has a payment plan.
	ErrPlanAlreadyExists = errors.New("payment plan already exists for sale")

	// ErrPlanTerminal is returned when mutating a completed or cancelled plan.
	ErrPlanTerminal = errors.New("payment plan is in a terminal state")

	// ErrOverAllocation is returned when allocations exceed the transaction
	// amount, or a single allocation exceeds an installment's pending amount.
	ErrOverAllocation = errors.New("allocation exceeds available amount")

	// ErrRefundExceedsAmount is returned when a refund is larger than the
	// transaction it reverses.
	ErrRefundExceedsAmount = errors.New("refund exceeds transaction amount")

	// ErrNotWaivable is returned when waiving an installment that is not
	// marked waivable or is already settled.
	ErrNotWaivable = errors.New("installment cannot be waived")

	// ErrInvalidAdjustment is returned for amount or due-date edits that would
	// leave an installment in an invalid state.
	ErrInvalidAdjustment = errors.New("invalid installment adjustment")

	// ErrTransactionTerminal is returned when mutating a bounced, cancelled,
	// or refunded transaction.
	ErrTransactionTerminal = errors.New("transaction is in a terminal state")

	// ErrTemplatePercentage is returned when a template's installment
	// percentages do not sum to 100.
	ErrTemplatePercentage = errors.New("template percentages must sum to 100")
)
