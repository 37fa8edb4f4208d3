// Package gateways defines interfaces for external service adapters.
package gateways

import (
	"context"

	"github.com/ochairo/reachstrap/internal/classfile"
	"github.com/ochairo/reachstrap/internal/domain/entities"
)

// ClassPipeline loads game classes and defines patched replacements that
// take precedence over the originals at runtime.
type ClassPipeline interface {
	// LoadClass reads a class from the game jar by internal name
	LoadClass(ctx context.Context, internalName string) (*classfile.ClassFile, error)

	// Define registers a patched class together with the method it targets
	Define(ctx context.Context, target entities.MethodSelector, cf *classfile.ClassFile) error

	// Classpath returns the entries that must precede the game jar
	Classpath() []string
}

// EntryPointInvoker hands control to the game.
// Failures are reported as *entities.EntryPointInvocationFailure.
type EntryPointInvoker interface {
	Invoke(ctx context.Context, entry entities.EntryPoint, classpath, args []string) error
}
