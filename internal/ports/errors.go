package ports

import "errors"

// Standard application-level errors.
// Adapters should wrap underlying infrastructure errors with these standard errors.
var (
	// General Errors
	ErrUnknown            = errors.New("unknown error occurred")
	ErrInvalidRequest     = errors.New("invalid request parameters or format")
	ErrTimeout            = errors.New("operation timed out")
	ErrContextCanceled    = errors.New("operation canceled via context")
	ErrConfigurationError = errors.New("invalid or missing configuration")

	// Market Data Errors
	ErrNoData            = errors.New("no bar data available for the requested ticker and range")
	ErrMalformedData     = errors.New("market data response could not be parsed")
	ErrSourceUnavailable = errors.New("market data source is unavailable")
	ErrRateLimited       = errors.New("market data API rate limit exceeded")

	// Simulation Outcomes
	// These are named outcomes rather than failures: the caller is expected
	// to branch on them (e.g. suggest relaxing parameters in the UI).
	ErrNoTrades     = errors.New("backtest produced no completed trades")
	ErrNoCandidates = errors.New("scan produced no qualifying tickers")

	// Cache Errors
	ErrCacheMiss    = errors.New("cache entry missing or expired")
	ErrDBConnection = errors.New("database connection error")
	ErrQueryFailed  = errors.New("database query failed")
)
