// Package sercoserr defines the error and warning kinds shared across the
// SoftMaster core. Configuration errors are localized to an offending
// (slave, connection) pair so a caller can point a diagnostic straight at
// the catalog entry that failed the check.
package sercoserr

import "fmt"

// Kind partitions errors into the three families from the error-handling
// design: configuration-time plausibility failures, runtime state
// violations, and hardware-capability mismatches.
type Kind int

const (
	Configuration Kind = iota
	State
	Hardware
)

func (k Kind) String() string {
	switch k {
	case Configuration:
		return "configuration"
	case State:
		return "state"
	case Hardware:
		return "hardware"
	default:
		return "unknown"
	}
}

// Code names one specific error condition. Values are stable strings so
// they can be logged, compared in tests, and matched with errors.Is.
type Code string

const (
	TooManyMasterConnections  Code = "TooManyMasterConnections"
	NoUniqueConnNbr           Code = "NoUniqueConnNbr"
	SlaveProduceInMdt         Code = "SlaveProduceInMdt"
	ProdCycTimeInvalid        Code = "ProdCycTimeInvalid"
	ConnectionLength0         Code = "ConnectionLength0"
	WrongConnectionIndex      Code = "WrongConnectionIndex"
	ConfigurationNotConfigured Code = "ConfigurationNotConfigured"
	WrongScpCapConfiguration  Code = "WrongScpCapConfiguration"
	InvalidSercosCycleTime    Code = "InvalidSercosCycleTime"
	InvalidMasterJitter       Code = "InvalidMasterJitter"
	IllegalTimingMethod       Code = "IllegalTimingMethod"
	TelLenGtTscyc             Code = "TelLenGtTscyc"
	MaxTNetworkGtTSyncDelay   Code = "MaxTNetworkGtTSyncDelay"
	TooManyProducerCycletimes Code = "TooManyProducerCycletimes"
	ConnectionNotConsumed     Code = "ConnectionNotConsumed"
	ConnectionNotProduced     Code = "ConnectionNotProduced"
	TelNbrMdtRtd              Code = "TelNbrMdtRtd"
	TelNbrAtRtd               Code = "TelNbrAtRtd"

	WrongPhase       Code = "WrongPhase"
	TooManyOperSlaves Code = "TooManyOperSlaves"
	HwSvcError       Code = "HwSvcError"
	BufferError      Code = "BufferError"
	SystemError      Code = "SystemError"
)

// Error carries a Kind/Code plus optional offending indices. A negative
// SlaveIndex/ConnectionIndex means "not applicable" — this is a distinct
// sentinel from the 0xFFFF "empty" marker used for arena indices in
// pkg/connection, since -1 here means "this error isn't about a specific
// slave/connection at all", not "the slot is empty".
type Error struct {
	Kind            Kind
	Code            Code
	SlaveIndex      int
	ConnectionIndex int
	msg             string
}

func (e *Error) Error() string {
	switch {
	case e.SlaveIndex >= 0 && e.ConnectionIndex >= 0:
		return fmt.Sprintf("%s: %s (slave=%d, connection=%d)%s", e.Kind, e.Code, e.SlaveIndex, e.ConnectionIndex, suffix(e.msg))
	case e.SlaveIndex >= 0:
		return fmt.Sprintf("%s: %s (slave=%d)%s", e.Kind, e.Code, e.SlaveIndex, suffix(e.msg))
	default:
		return fmt.Sprintf("%s: %s%s", e.Kind, e.Code, suffix(e.msg))
	}
}

func suffix(msg string) string {
	if msg == "" {
		return ""
	}
	return ": " + msg
}

// Is lets errors.Is(err, target) match on Code alone, so callers can test
// for a specific condition without comparing slave/connection indices.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// New builds a configuration/state/hardware error with no offending index.
func New(kind Kind, code Code, msg string) *Error {
	return &Error{Kind: kind, Code: code, SlaveIndex: -1, ConnectionIndex: -1, msg: msg}
}

// NewAt builds an error localized to a (slave, connection) pair. Pass -1
// for whichever index doesn't apply.
func NewAt(kind Kind, code Code, slaveIndex, connectionIndex int, msg string) *Error {
	return &Error{Kind: kind, Code: code, SlaveIndex: slaveIndex, ConnectionIndex: connectionIndex, msg: msg}
}

// Sentinel matchers for the Code-only comparisons callers most commonly need.
func IsCode(err error, code Code) bool {
	e, ok := err.(*Error)
	return ok && e.Code == code
}

// WarningCode names an advisory condition returned alongside a successful
// computation.
type WarningCode string

const (
	WarningIfgMismatch     WarningCode = "WarningIfgMismatch"
	WarnRecalculatedMTU    WarningCode = "WarnRecalculatedMTU"
)

// Warning is returned alongside a value, never in place of one: a warning
// never aborts the computation that produced it.
type Warning struct {
	Code WarningCode
	Msg  string
}

func (w *Warning) String() string {
	if w == nil {
		return ""
	}
	if w.Msg == "" {
		return string(w.Code)
	}
	return fmt.Sprintf("%s: %s", w.Code, w.Msg)
}

func NewWarning(code WarningCode, msg string) *Warning {
	return &Warning{Code: code, Msg: msg}
}
