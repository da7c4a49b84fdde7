//go:build purego

package vecmath

import (
	// Generic implementations (pure Go fallback)
	_ "github.com/rolandzwaga/krate-audio/internal/vecmath/arch/generic"
	// Import registry package
	_ "github.com/rolandzwaga/krate-audio/internal/vecmath/registry"
)
