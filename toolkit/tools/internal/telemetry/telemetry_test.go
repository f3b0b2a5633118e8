// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInitTelemetryDisabled(t *testing.T) {
	t.Setenv(otlpEndpointEnv, "http://localhost:4318")

	err := InitTelemetry(true, "1.0.0", "Release")
	assert.NoError(t, err)
	assert.Nil(t, tracerProvider)
	assert.NoError(t, ShutdownTelemetry(context.Background()))
}

func TestInitTelemetryNoEndpoint(t *testing.T) {
	t.Setenv(otlpEndpointEnv, "")

	err := InitTelemetry(false, "1.0.0", "Release")
	assert.NoError(t, err)
	assert.Nil(t, tracerProvider)
}
