package nn

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"

	"pixelgene/internal/codec"
)

const (
	SupportedSchemaVersion = 1
	SupportedCodecVersion  = 1
)

// Built-in activation names, as written into structural reports.
const (
	ActivationCosinus  = "cosinus"
	ActivationSinus    = "sinus"
	ActivationTangens  = "tangens"
	ActivationClamp    = "clamp"
	ActivationSigmoid  = "sigmoid"
	ActivationIdentity = "identity"
)

var (
	ErrActivationExists   = errors.New("activation already registered")
	ErrActivationNotFound = errors.New("activation not found")
	ErrActivationVersion  = errors.New("activation version mismatch")
)

type ActivationFunc func(x float64) float64

type ActivationSpec struct {
	Name          string
	Func          ActivationFunc
	SchemaVersion int
	CodecVersion  int
}

type registeredActivation struct {
	fn            ActivationFunc
	schemaVersion int
	codecVersion  int
}

var activationRegistry = struct {
	mu sync.RWMutex
	m  map[string]registeredActivation
}{
	m: make(map[string]registeredActivation),
}

// selectorTable maps a decoded function selector to its activation. The
// decoder may yield the modulus itself at the top of its range, so 5 shares
// the sigmoid branch with 4.
var selectorTable = [...]string{
	ActivationCosinus,
	ActivationSinus,
	ActivationTangens,
	ActivationClamp,
	ActivationSigmoid,
	ActivationSigmoid,
}

// SelectorModulus is the number of distinct selectable activations.
const SelectorModulus = 5

func init() {
	initializeBuiltInActivations()
}

func initializeBuiltInActivations() {
	MustRegisterActivation(ActivationCosinus, math.Cos)
	MustRegisterActivation(ActivationSinus, math.Sin)
	MustRegisterActivation(ActivationTangens, math.Tan)
	MustRegisterActivation(ActivationClamp, func(x float64) float64 {
		if x < 0 {
			return 0
		}
		if x > 1 {
			return 1
		}
		return x
	})
	MustRegisterActivation(ActivationSigmoid, codec.Sigmoid)
	MustRegisterActivation(ActivationIdentity, func(x float64) float64 { return x })
}

func RegisterActivation(name string, fn ActivationFunc) error {
	return RegisterActivationWithSpec(ActivationSpec{
		Name:          name,
		Func:          fn,
		SchemaVersion: SupportedSchemaVersion,
		CodecVersion:  SupportedCodecVersion,
	})
}

func MustRegisterActivation(name string, fn ActivationFunc) {
	if err := RegisterActivation(name, fn); err != nil {
		panic(err)
	}
}

func RegisterActivationWithSpec(spec ActivationSpec) error {
	if spec.Name == "" {
		return errors.New("activation name is required")
	}
	if spec.Func == nil {
		return errors.New("activation function is required")
	}
	if spec.SchemaVersion != SupportedSchemaVersion || spec.CodecVersion != SupportedCodecVersion {
		return fmt.Errorf("%w: schema=%d codec=%d", ErrActivationVersion, spec.SchemaVersion, spec.CodecVersion)
	}

	activationRegistry.mu.Lock()
	defer activationRegistry.mu.Unlock()

	if _, exists := activationRegistry.m[spec.Name]; exists {
		return fmt.Errorf("%w: %s", ErrActivationExists, spec.Name)
	}

	activationRegistry.m[spec.Name] = registeredActivation{
		fn:            spec.Func,
		schemaVersion: spec.SchemaVersion,
		codecVersion:  spec.CodecVersion,
	}
	return nil
}

func GetActivation(name string) (ActivationFunc, error) {
	activationRegistry.mu.RLock()
	entry, ok := activationRegistry.m[name]
	activationRegistry.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrActivationNotFound, name)
	}
	if entry.schemaVersion != SupportedSchemaVersion || entry.codecVersion != SupportedCodecVersion {
		return nil, fmt.Errorf("%w: %s", ErrActivationVersion, name)
	}
	return entry.fn, nil
}

// SelectActivation resolves a decoded function selector in [0, 5].
func SelectActivation(selector int) (string, ActivationFunc, error) {
	if selector < 0 || selector >= len(selectorTable) {
		return "", nil, fmt.Errorf("%w: selector %d", ErrActivationNotFound, selector)
	}
	name := selectorTable[selector]
	fn, err := GetActivation(name)
	if err != nil {
		return "", nil, err
	}
	return name, fn, nil
}

func ListActivations() []string {
	activationRegistry.mu.RLock()
	defer activationRegistry.mu.RUnlock()

	names := make([]string, 0, len(activationRegistry.m))
	for name := range activationRegistry.m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func resetActivationRegistryForTests() {
	activationRegistry.mu.Lock()
	activationRegistry.m = make(map[string]registeredActivation)
	activationRegistry.mu.Unlock()
	initializeBuiltInActivations()
}
