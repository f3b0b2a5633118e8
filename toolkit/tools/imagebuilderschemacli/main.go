// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

// Tool to generate the JSON schema of the image builder config file

package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/invopop/jsonschema"
	"github.com/runtimeos/image-builder/toolkit/tools/imagebuilderapi"
	"github.com/runtimeos/image-builder/toolkit/tools/internal/exe"
	"github.com/runtimeos/image-builder/toolkit/tools/internal/logger"
	"gopkg.in/alecthomas/kingpin.v2"
)

var (
	app = kingpin.New("imagebuilderschemacli", "Writes the JSON schema of the image builder config file")

	outputFile = app.Arg("output-file", "Path to write the schema to.").Required().String()
	logFlags   = exe.SetupLogFlags(app)
)

func main() {
	exe.ParseArgs(app, logFlags, os.Args[1:])

	err := writeSchema(*outputFile)
	if err != nil {
		logger.Log.Fatalf("schema generation failed:\n%v", err)
	}

	logger.Log.Infof("JSON schema has been written to (%s)", *outputFile)
}

func generateSchema() ([]byte, error) {
	reflector := jsonschema.Reflector{}
	reflector.RequiredFromJSONSchemaTags = true
	schema := reflector.Reflect(&imagebuilderapi.Config{})

	schemaJSON, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal schema:\n%w", err)
	}

	return schemaJSON, nil
}

func writeSchema(outputFile string) error {
	schemaJSON, err := generateSchema()
	if err != nil {
		return err
	}

	err = os.WriteFile(outputFile, schemaJSON, 0o644)
	if err != nil {
		return fmt.Errorf("failed to write schema to file (%s):\n%w", outputFile, err)
	}

	return nil
}
