// Copyright 2025 HealthTriage Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package cor (Chain of Responsibility) provides the building blocks for the
// triage workflows. This file defines the interfaces that govern the behavior
// of all components in the pattern: the shared Context that carries state
// through a pipeline run, the atomic Command, and the composable Chain.
package cor

import (
	"context"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// CtxIn and CtxOut are the keys used to manage the primary data flow within a
// BaseChain. The chain pipes the value a command wrote to CtxOut into CtxIn
// before running the next command.
const (
	CtxIn  = "__IN__"
	CtxOut = "__OUT__"
)

// MeterName is the namespace used for all OpenTelemetry meters created by the
// workflow engine.
const MeterName = "github.com/healthtriage/gcp-go-video-triage"

// Context is the shared state object passed through a chain of commands. It
// acts as a property bag for a single workflow execution, carrying data,
// errors, and temporary-file bookkeeping between commands.
type Context interface {
	// SetContext sets the standard Go context.Context, used for cancellation
	// signals and OpenTelemetry trace propagation.
	SetContext(context context.Context)

	// GetContext retrieves the standard Go context.Context.
	GetContext() context.Context

	// Add stores a key-value pair in the context. It returns the Context to
	// allow fluent chaining.
	Add(key string, value interface{}) Context

	// AddError records an error produced by a command. The key should be the
	// name of the command that produced it.
	AddError(key string, err error)

	// GetErrors returns all errors collected during the workflow.
	GetErrors() map[string]error

	// Get retrieves a value from the context by its key.
	Get(key string) interface{}

	// Remove deletes a key-value pair from the context.
	Remove(key string)

	// HasErrors reports whether any errors have been recorded.
	HasErrors() bool

	// AddTempFile tracks a temporary file created during the workflow so the
	// context can reclaim it at the end of the run.
	AddTempFile(file string)

	// GetTempFiles returns all tracked temporary file paths.
	GetTempFiles() []string

	// Close deletes all temporary files tracked by AddTempFile. It should be
	// deferred at the start of a workflow so cleanup happens on every exit
	// path, including failures.
	Close()
}

// Executable is any object with a core execution step.
type Executable interface {
	// Execute runs the primary business logic, reading inputs from and
	// writing outputs to the given Context.
	Execute(context Context)
}

// Command represents an atomic, testable unit of work. It is the fundamental
// building block of a workflow.
type Command interface {
	Executable

	// GetName returns the unique name of the command, used for logging and
	// telemetry.
	GetName() string

	// GetInputParam returns the context key the command reads its primary
	// input from.
	GetInputParam() string

	// GetOutputParam returns the context key the command writes its primary
	// output to.
	GetOutputParam() string

	// IsExecutable is a precondition check run before Execute.
	IsExecutable(context Context) bool

	// GetTracer returns the OpenTelemetry tracer for this command.
	GetTracer() trace.Tracer

	// GetMeter returns the OpenTelemetry meter for creating metrics.
	GetMeter() metric.Meter

	// GetSuccessCounter returns a metric counter for successful executions.
	GetSuccessCounter() metric.Int64Counter

	// GetErrorCounter returns a metric counter for failed executions.
	GetErrorCounter() metric.Int64Counter
}

// Chain is a sequence of commands. A Chain is itself a Command, so chains can
// be nested within other chains.
type Chain interface {
	Command

	// ContinueOnFailure configures whether the chain keeps executing after a
	// command adds an error to the context.
	ContinueOnFailure(bool) Chain

	// AddCommand appends a command to the execution sequence.
	AddCommand(command Command) Chain
}
