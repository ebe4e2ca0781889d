package runtime

import "fmt"

// PersistenceError is returned when a connection profile cannot be written.
type PersistenceError struct {
	Dir string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("Issue saving runtime connection profile in directory %s with error: %s", e.Dir, e.Err.Error())
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
