package geocache

import "fmt"

// LoadError reports a cache file that exists but cannot be read or decoded.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("geocache: failed to load %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// SaveError reports a failed cache flush. It is never fatal to a pass.
type SaveError struct {
	Path string
	Err  error
}

func (e *SaveError) Error() string {
	return fmt.Sprintf("geocache: failed to save %s: %v", e.Path, e.Err)
}

func (e *SaveError) Unwrap() error { return e.Err }

// LookupFailure reports a place the geocoder could not resolve.
type LookupFailure struct {
	Key string
	Err error
}

func (e *LookupFailure) Error() string {
	return fmt.Sprintf("geocache: lookup failed for %q: %v", e.Key, e.Err)
}

func (e *LookupFailure) Unwrap() error { return e.Err }
