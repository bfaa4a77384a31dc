package hivsim

import "github.com/pkg/errors"

// Format strings shared by tests and by config validation error paths.
const (
	InvalidFloatParameterError  = "invalid %s %f, %s"
	InvalidIntParameterError    = "invalid %s %d, %s"
	InvalidStringParameterError = "invalid %s %s, %s"

	UnequalFloatParameterError  = "expected %s %f, instead got %f"
	UnequalIntParameterError    = "expected %s %d, instead got %d"
	UnequalStringParameterError = "expected %s %s, instead got %s"
	UnexpectedErrorWhileError   = "encountered error while %s: %s"
	ExpectedErrorWhileError     = "expected an error while %s, instead got none"
)

// ConfigError wraps a failure discovered while loading or validating the
// parameter tree (spec §7, "Configuration error"). The run aborts before a
// Model is ever constructed.
type ConfigError struct {
	Path string
	Err  error
}

func (e *ConfigError) Error() string {
	return errors.Wrapf(e.Err, "config error at %s", e.Path).Error()
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

func newConfigError(path string, err error) error {
	return &ConfigError{Path: path, Err: err}
}

// InvariantError marks a call site that would otherwise silently corrupt
// model state (spec §7, "Invariant violation"): transmission attempted on a
// relationship that doesn't have exactly one HIV+ endpoint, AIDS progression
// on an HIV-negative agent, PrEP initiation on an ineligible agent, and so
// on. These are programmer errors, not run-time data conditions, so callers
// are expected to guard against them; production code paths never trigger
// one unless an invariant from spec §8 has already been broken.
type InvariantError struct {
	Op      string
	Message string
}

func (e *InvariantError) Error() string {
	return e.Op + ": " + e.Message
}

func newInvariantError(op, message string) error {
	return &InvariantError{Op: op, Message: message}
}

var (
	errMissingDemographic = errors.New("missing demographic parameters")
	errUnknownSexType     = errors.New("unknown sex type")
	errUnknownDrugType    = errors.New("unknown drug type")
	errUnknownBondType    = errors.New("unknown bond type")
	errMalformedBins      = errors.New("malformed bin distribution")
	errNonPositivePop     = errors.New("num_pop must be greater than zero")
	errNonIntegerSeed     = errors.New("seed must be a non-negative integer")
)
