package aiusage

import "errors"

// ErrInsufficientTokens is returned when the daily AI allowance is used up.
var ErrInsufficientTokens = errors.New("insufficient tokens")

// DefaultTokens is the number of generations allowed per partner per day.
const DefaultTokens = 24

const dayLayout = "2006-01-02"
