// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

// Package targetgraph runs named build targets after their prerequisites.
package targetgraph

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/runtimeos/image-builder/toolkit/tools/internal/logger"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	otelTracerName = "github.com/runtimeos/image-builder/targetgraph"
)

// Action is the work a target does. A nil Action marks an aggregate target.
type Action func(ctx context.Context) error

type UnknownTargetError struct {
	Name string
	// RequiredBy is the target that listed Name as a prerequisite. Empty for a requested target.
	RequiredBy string
}

func (e *UnknownTargetError) Error() string {
	if e.RequiredBy != "" {
		return fmt.Sprintf("target (%s) required by (%s) is not registered", e.Name, e.RequiredBy)
	}
	return fmt.Sprintf("target (%s) is not registered", e.Name)
}

type CyclicDependencyError struct {
	// Path lists the targets along the cycle, starting and ending with the same name.
	Path []string
}

func (e *CyclicDependencyError) Error() string {
	return fmt.Sprintf("targets have a dependency cycle: %s", strings.Join(e.Path, " -> "))
}

type TargetFailedError struct {
	Target string
	Cause  error
}

func (e *TargetFailedError) Error() string {
	return fmt.Sprintf("target (%s) failed:\n%v", e.Target, e.Cause)
}

func (e *TargetFailedError) Unwrap() error {
	return e.Cause
}

type Target struct {
	Name          string
	Prerequisites []string
	action        Action
}

type Graph struct {
	targets map[string]*Target
}

func New() *Graph {
	return &Graph{
		targets: make(map[string]*Target),
	}
}

// Register adds a target, replacing any existing one with the same name. Prerequisites are not checked
// until the graph is planned.
func (g *Graph) Register(name string, action Action, prerequisites ...string) {
	g.targets[name] = &Target{
		Name:          name,
		Prerequisites: slices.Clone(prerequisites),
		action:        action,
	}
}

// Targets returns the registered targets sorted by name.
func (g *Graph) Targets() []Target {
	targets := make([]Target, 0, len(g.targets))
	for _, target := range g.targets {
		targets = append(targets, *target)
	}

	slices.SortFunc(targets, func(a, b Target) int {
		return strings.Compare(a.Name, b.Name)
	})
	return targets
}

// Plan returns the order the target and its transitive prerequisites run in. Each prerequisite list is
// walked depth-first in declared order and a target appears once, before anything that needs it.
func (g *Graph) Plan(name string) ([]string, error) {
	const (
		inProgress = iota + 1
		done
	)

	state := make(map[string]int)
	order := []string(nil)
	stack := []string(nil)

	var visit func(name string, requiredBy string) error
	visit = func(name string, requiredBy string) error {
		target, ok := g.targets[name]
		if !ok {
			return &UnknownTargetError{Name: name, RequiredBy: requiredBy}
		}

		switch state[name] {
		case done:
			return nil

		case inProgress:
			start := slices.Index(stack, name)
			path := append(slices.Clone(stack[start:]), name)
			return &CyclicDependencyError{Path: path}
		}

		state[name] = inProgress
		stack = append(stack, name)

		for _, prerequisite := range target.Prerequisites {
			err := visit(prerequisite, name)
			if err != nil {
				return err
			}
		}

		stack = stack[:len(stack)-1]
		state[name] = done
		order = append(order, name)
		return nil
	}

	err := visit(name, "")
	if err != nil {
		return nil, err
	}

	return order, nil
}

// Run executes the target and its prerequisites in plan order, each at most once. The whole plan is
// resolved before any action runs. The first failing action stops the run.
func (g *Graph) Run(ctx context.Context, name string) error {
	order, err := g.Plan(name)
	if err != nil {
		return err
	}

	logger.Log.Debugf("Target order: %s", strings.Join(order, ", "))

	for _, targetName := range order {
		err := g.runTarget(ctx, g.targets[targetName])
		if err != nil {
			return &TargetFailedError{Target: targetName, Cause: err}
		}
	}

	return nil
}

func (g *Graph) runTarget(ctx context.Context, target *Target) error {
	if target.action == nil {
		return nil
	}

	ctx, span := otel.GetTracerProvider().Tracer(otelTracerName).Start(ctx, "target."+target.Name)
	defer span.End()
	span.SetAttributes(attribute.StringSlice("target.prerequisites", target.Prerequisites))

	logger.Log.Infof("Starting target (%s)", target.Name)
	start := time.Now()

	err := target.action(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "target failed")
		logger.Log.Errorf("Target (%s) failed after %s", target.Name, time.Since(start).Round(time.Millisecond))
		return err
	}

	logger.Log.Infof("Finished target (%s) in %s", target.Name, time.Since(start).Round(time.Millisecond))
	return nil
}
