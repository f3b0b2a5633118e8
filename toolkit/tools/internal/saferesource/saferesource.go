// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

// Package saferesource pairs a setup command with the teardown command that undoes it.
//
// A Resource exists only if its setup command succeeded. Its teardown runs at most once, normally from
// a defer in the scope that acquired it:
//
//	res, err := saferesource.Acquire(ctx, executor, spec)
//	if err != nil {
//		return err
//	}
//	defer res.Close()
package saferesource

import (
	"context"
	"fmt"
	"strings"

	"github.com/runtimeos/image-builder/toolkit/tools/internal/logger"
	"github.com/runtimeos/image-builder/toolkit/tools/internal/shell"
)

// Spec describes how to acquire and release one kind of resource.
type Spec struct {
	// Kind names the resource in logs and errors (e.g. "loopback device").
	Kind string

	// Setup acquires the resource.
	Setup shell.ExecBuilder

	// Identify derives the resource's identifier from the setup command's stdout.
	// When nil, the trimmed stdout is used and must not be empty.
	Identify func(stdout string) (string, error)

	// Teardown builds the command that releases the resource with the given identifier.
	Teardown func(id string) shell.ExecBuilder
}

type ResourceAcquisitionError struct {
	Kind  string
	Cause error
}

func (e *ResourceAcquisitionError) Error() string {
	return fmt.Sprintf("failed to acquire %s:\n%v", e.Kind, e.Cause)
}

func (e *ResourceAcquisitionError) Unwrap() error {
	return e.Cause
}

type ResourceReleaseError struct {
	Kind  string
	ID    string
	Cause error
}

func (e *ResourceReleaseError) Error() string {
	return fmt.Sprintf("failed to release %s (%s):\n%v", e.Kind, e.ID, e.Cause)
}

func (e *ResourceReleaseError) Unwrap() error {
	return e.Cause
}

type Resource struct {
	kind     string
	id       string
	executor shell.Executor
	teardown shell.ExecBuilder
	released bool
}

// Acquire runs the spec's setup command. On failure no Resource is returned and nothing needs to be
// released.
func Acquire(ctx context.Context, executor shell.Executor, spec Spec) (*Resource, error) {
	stdout, err := executor.Execute(ctx, spec.Setup)
	if err != nil {
		return nil, &ResourceAcquisitionError{Kind: spec.Kind, Cause: err}
	}

	identify := spec.Identify
	if identify == nil {
		identify = trimmedOutput
	}

	id, err := identify(stdout)
	if err != nil {
		// Nothing identifiable was produced, so there is nothing to tear down.
		return nil, &ResourceAcquisitionError{Kind: spec.Kind, Cause: err}
	}

	logger.Log.Debugf("Acquired %s (%s)", spec.Kind, id)

	return &Resource{
		kind:     spec.Kind,
		id:       id,
		executor: executor,
		teardown: spec.Teardown(id),
	}, nil
}

// Use acquires a resource, runs fn with it and releases it on every exit path.
// The result is fn's error; release failures are only logged.
func Use(ctx context.Context, executor shell.Executor, spec Spec, fn func(res *Resource) error) error {
	res, err := Acquire(ctx, executor, spec)
	if err != nil {
		return err
	}
	defer res.Close()

	return fn(res)
}

func (r *Resource) ID() string {
	return r.id
}

func (r *Resource) Kind() string {
	return r.kind
}

// Close runs the teardown command. Only the first call does anything. A failed teardown is logged and
// returned as a *ResourceReleaseError; it is not retried.
func (r *Resource) Close() error {
	if r.released {
		return nil
	}
	r.released = true

	// Not tied to the acquiring context, which may already be cancelled.
	_, err := r.executor.Execute(context.Background(), r.teardown)
	if err != nil {
		releaseErr := &ResourceReleaseError{Kind: r.kind, ID: r.id, Cause: err}
		logger.Log.Warnf("%v", releaseErr)
		return releaseErr
	}

	logger.Log.Debugf("Released %s (%s)", r.kind, r.id)
	return nil
}

func trimmedOutput(stdout string) (string, error) {
	id := strings.TrimSpace(stdout)
	if id == "" {
		return "", fmt.Errorf("setup command produced no output")
	}
	return id, nil
}
