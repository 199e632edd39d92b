package reagents

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	readManifestErrorTemplateConstant    = "unable to read reagent manifest %s: %w"
	decodeManifestErrorTemplateConstant  = "unable to parse reagent manifest: %w"
	invalidManifestEntryTemplateConstant = "manifest entry %d: %w"
)

// ErrManifestMissing indicates that the seed manifest file does not exist.
var ErrManifestMissing = errors.New("reagent manifest not found")

// Manifest lists reagents to seed into a store.
type Manifest struct {
	Reagents []Reagent `yaml:"reagents"`
}

// LoadManifest reads a YAML manifest from path.
func LoadManifest(path string) (Manifest, error) {
	manifestFile, openError := os.Open(path)
	if openError != nil {
		if errors.Is(openError, os.ErrNotExist) {
			return Manifest{}, fmt.Errorf(readManifestErrorTemplateConstant, path, ErrManifestMissing)
		}
		return Manifest{}, fmt.Errorf(readManifestErrorTemplateConstant, path, openError)
	}
	defer manifestFile.Close()
	return DecodeManifest(manifestFile)
}

// DecodeManifest parses a YAML manifest and validates every entry.
func DecodeManifest(reader io.Reader) (Manifest, error) {
	var manifest Manifest
	decoder := yaml.NewDecoder(reader)
	if decodeError := decoder.Decode(&manifest); decodeError != nil && !errors.Is(decodeError, io.EOF) {
		return Manifest{}, fmt.Errorf(decodeManifestErrorTemplateConstant, decodeError)
	}
	for entryIndex, reagent := range manifest.Reagents {
		normalized := reagent.Normalized()
		if validationError := normalized.Validate(); validationError != nil {
			return Manifest{}, fmt.Errorf(invalidManifestEntryTemplateConstant, entryIndex+1, validationError)
		}
		manifest.Reagents[entryIndex] = normalized
	}
	return manifest, nil
}
