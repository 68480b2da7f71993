package timemachinet

// Error is a wrapper for specific types of errors for which there is no additional information
// necessary. These errors are defined as global variables.
type Error struct{ string }

func (err Error) Error() string {
	return err.string
}

// These are the global errors that may be returned.
var (
	ErrConditionSize = Error{"Conditions do not match the condition scheme"}
	ErrImageSize     = Error{"Images do not match the configured image size"}
	ErrUnknownDevice = Error{"Device is not recognized"}
	ErrNoData        = Error{"No training data"}
)

// NilArgError documents errors resulting from certain arguments provided to a function being nil.
type NilArgError struct{ string }

func (err NilArgError) Error() string {
	return err.string + " is nil"
}
