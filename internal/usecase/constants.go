package usecase

import "github.com/shopspring/decimal"

// OpeningBalance is the fixed starting balance granted at registration,
// recorded as a CREDIT entry so the ledger stays self-consistent.
var OpeningBalance = decimal.NewFromInt(1000)
