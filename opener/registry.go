package opener

import (
	"fmt"
	"strings"
	"sync"
)

// Factory expands a source specification into one or more openers.
type Factory func(spec string) ([]Opener, error)

// Scheme identifies how a specification is accessed.
type Scheme string

const (
	SchemeUnknown Scheme = "unknown"
	// SchemeFile covers file:// URLs and bare paths or globs.
	SchemeFile Scheme = "file"
	// SchemeS3 covers s3://bucket/prefix URLs.
	SchemeS3 Scheme = "s3"
)

var (
	registry   = map[Scheme]Factory{SchemeFile: RegularFileOpenerFactory}
	registryMu sync.RWMutex
)

// Register associates scheme with f for the lifetime of the process. The
// file scheme is registered by default; s3 needs a client and is left to
// the caller (see NewS3OpenerFactory). Registering a scheme twice fails.
func Register(scheme Scheme, f Factory) error {
	if f == nil {
		return fmt.Errorf("nil factory for scheme %q", scheme)
	}
	registryMu.Lock()
	defer registryMu.Unlock()
	if _, ok := registry[scheme]; ok {
		return fmt.Errorf("opener for scheme %q already registered", scheme)
	}
	registry[scheme] = f
	return nil
}

// FromSpec resolves spec through the factory of its scheme.
func FromSpec(spec string) ([]Opener, error) {
	scheme := DetectScheme(spec)
	if scheme == SchemeUnknown {
		return nil, fmt.Errorf("unknown scheme for %q", spec)
	}
	registryMu.RLock()
	f, ok := registry[scheme]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("no opener registered for scheme %q (spec %q)", scheme, spec)
	}
	return f(spec)
}

// FromSpecs resolves every spec in order and concatenates the openers.
func FromSpecs(specs ...string) ([]Opener, error) {
	var all []Opener
	for _, spec := range specs {
		ops, err := FromSpec(spec)
		if err != nil {
			return nil, err
		}
		all = append(all, ops...)
	}
	return all, nil
}

// DetectScheme infers the scheme of spec. Anything without "://" is a
// file path.
func DetectScheme(spec string) Scheme {
	spec = strings.ToLower(strings.TrimSpace(spec))
	switch {
	case strings.HasPrefix(spec, "file://"):
		return SchemeFile
	case strings.HasPrefix(spec, "s3://"):
		return SchemeS3
	case !strings.Contains(spec, "://"):
		return SchemeFile
	default:
		return SchemeUnknown
	}
}
