// Command generate-schema writes the JSON schema of the dittostore
// configuration file, for editor completion of config.yaml.
package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/invopop/jsonschema"

	"github.com/marmos91/dittostore/pkg/config"
)

func main() {
	outputFile := "config.schema.json"
	if len(os.Args) > 1 {
		outputFile = os.Args[1]
	}

	if err := writeSchema(outputFile); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if outputFile != "-" {
		fmt.Printf("JSON schema written to %s\n", outputFile)
	}
}

func writeSchema(outputFile string) error {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
		// struct tags drive the key names, same as the loader
		FieldNameTag: "mapstructure",
	}

	schema := reflector.Reflect(&config.Config{})
	schema.Title = "dittostore Configuration"
	schema.Description = "Configuration schema for the dittostore file store"
	schema.Version = "1.0.0"

	schemaJSON, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}

	if outputFile == "-" {
		_, err = os.Stdout.Write(append(schemaJSON, '\n'))
		return err
	}
	return os.WriteFile(outputFile, schemaJSON, 0644)
}
