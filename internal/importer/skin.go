package importer

import (
	"archive/zip"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// skinManifestName is the manifest every skin package carries at its root.
const skinManifestName = "info.json"

// SkinManifest is the subset of a skin package's info.json the library needs.
type SkinManifest struct {
	Name               string `json:"name"`
	Identifier         string `json:"identifier"`
	GameTypeIdentifier string `json:"gameTypeIdentifier"`
}

// ReadSkinManifest opens a skin package and decodes its manifest.
// The package must be a zip holding info.json at the top level with a
// non-empty name, identifier and gameTypeIdentifier.
func ReadSkinManifest(path string) (*SkinManifest, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("open skin package: %w", err)
	}
	defer func() { _ = zr.Close() }()

	for _, f := range zr.File {
		if f.Name != skinManifestName {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", skinManifestName, err)
		}
		data, err := io.ReadAll(rc)
		_ = rc.Close()
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", skinManifestName, err)
		}

		var m SkinManifest
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("decode %s: %w", skinManifestName, err)
		}
		if m.Name == "" || m.Identifier == "" || m.GameTypeIdentifier == "" {
			return nil, fmt.Errorf("%s: name, identifier and gameTypeIdentifier are required", skinManifestName)
		}
		return &m, nil
	}
	return nil, errors.New("missing " + skinManifestName)
}
