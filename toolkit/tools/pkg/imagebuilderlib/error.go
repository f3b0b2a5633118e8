// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

package imagebuilderlib

// ImageBuilderError is a named sentinel error. The name ("Area:Name") is stable and is what telemetry reports.
type ImageBuilderError struct {
	name    string
	message string
}

func NewImageBuilderError(name string, message string) *ImageBuilderError {
	return &ImageBuilderError{
		name:    name,
		message: message,
	}
}

func (e *ImageBuilderError) Name() string {
	return e.name
}

func (e *ImageBuilderError) Error() string {
	return e.message
}

// GetAllImageBuilderErrors returns every ImageBuilderError in err's tree, outermost first.
func GetAllImageBuilderErrors(err error) []*ImageBuilderError {
	found := []*ImageBuilderError(nil)

	var walk func(err error)
	walk = func(err error) {
		if err == nil {
			return
		}

		if builderErr, ok := err.(*ImageBuilderError); ok {
			found = append(found, builderErr)
		}

		switch unwrapper := err.(type) {
		case interface{ Unwrap() []error }:
			for _, inner := range unwrapper.Unwrap() {
				walk(inner)
			}

		case interface{ Unwrap() error }:
			walk(unwrapper.Unwrap())
		}
	}

	walk(err)
	return found
}
