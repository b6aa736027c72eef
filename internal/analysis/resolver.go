package analysis

import "errors"

// ErrUnresolvable is returned by resolvers when the owner class cannot be
// located.
var ErrUnresolvable = errors.New("class not resolvable")

// AbstractMethodResolver answers whether a method is declared abstract.
// An error means the answer is unknown. Implementations must be safe for
// concurrent use by multiple analyses.
type AbstractMethodResolver interface {
	IsAbstract(class, name, desc string) (bool, error)
}

// ResolverFunc adapts a function to AbstractMethodResolver.
type ResolverFunc func(class, name, desc string) (bool, error)

func (f ResolverFunc) IsAbstract(class, name, desc string) (bool, error) {
	return f(class, name, desc)
}

// NoResolver never resolves anything, so only interface calls count as
// polymorphic.
var NoResolver AbstractMethodResolver = ResolverFunc(func(string, string, string) (bool, error) {
	return false, ErrUnresolvable
})
