package modkit

import "reflect"

// Module is the common surface of a wired service module
// keep this tiny so modules stay decoupled from the binaries that run them
type Module interface {
	// Name returns the module name used in logs
	Name() string
	// Ports returns a module specific port set
	Ports() any
	// Close releases what the module opened itself
	Close() error
}

// PortsOf pulls an interface T out of a module's Ports() bundle.
// It returns ok=false if neither Ports() nor any exported field implements T
func PortsOf[T any](m Module) (t T, ok bool) {
	p := m.Ports()
	if p == nil {
		return t, false
	}
	if v, ok2 := p.(T); ok2 {
		return v, true
	}
	rv := reflect.ValueOf(p)
	if rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return t, false
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return t, false
	}
	for i := 0; i < rv.NumField(); i++ {
		f := rv.Field(i)
		if !f.CanInterface() {
			continue
		}
		if v, ok2 := f.Interface().(T); ok2 {
			return v, true
		}
	}
	return t, false
}

// MustPortsOf is PortsOf that panics naming the module
func MustPortsOf[T any](m Module) T {
	if v, ok := PortsOf[T](m); ok {
		return v
	}
	panic("modkit: requested port not found on module " + m.Name())
}
