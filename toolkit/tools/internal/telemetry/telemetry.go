// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

package telemetry

import (
	"context"
	"fmt"
	"os"
	"runtime"

	"github.com/runtimeos/image-builder/toolkit/tools/internal/logger"
	"github.com/runtimeos/image-builder/toolkit/tools/internal/osinfo"
	autoexport "go.opentelemetry.io/contrib/exporters/autoexport"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.4.0"
)

const (
	ServiceName = "imagebuilder"

	otlpEndpointEnv = "OTEL_EXPORTER_OTLP_ENDPOINT"
)

var tracerProvider *sdktrace.TracerProvider

// InitTelemetry installs a global tracer provider exporting to the OTLP endpoint from the environment.
// Without an endpoint, or when disabled, spans go to the default no-op provider.
func InitTelemetry(disableTelemetry bool, toolVersion string, buildConfiguration string) error {
	if disableTelemetry {
		logger.Log.Info("Disabled telemetry collection")
		return nil
	} else if os.Getenv(otlpEndpointEnv) == "" {
		logger.Log.Debug("No OTLP endpoint set, telemetry will not be collected")
		return nil
	}

	exporter, err := autoexport.NewSpanExporter(context.Background())
	if err != nil {
		return fmt.Errorf("failed to create OTLP exporter:\n%w", err)
	}

	distro, version := osinfo.GetDistroAndVersion()

	res, _ := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceNameKey.String(ServiceName),
			semconv.ServiceVersionKey.String(toolVersion),
			attribute.String("host.architecture", runtime.GOARCH),
			attribute.String("host.os", distro),
			attribute.String("host.os.version", version),
			attribute.String("build.configuration", buildConfiguration),
		),
	)

	tracerProvider = sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tracerProvider)
	return nil
}

// ShutdownTelemetry flushes pending spans and stops the exporter. It is a no-op if telemetry is off.
func ShutdownTelemetry(ctx context.Context) error {
	if tracerProvider == nil {
		return nil
	}

	err := tracerProvider.ForceFlush(ctx)
	if err != nil {
		logger.Log.Warnf("Failed to flush telemetry spans: %v", err)
	}

	err = tracerProvider.Shutdown(ctx)
	tracerProvider = nil
	return err
}
