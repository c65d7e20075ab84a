package deployer

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
)

// writeAddressMapping merges this deployment into the address mapping file:
//
//	{ "<network>": { "<Contract>": "0x..." } }
//
// Entries for other networks are preserved.
func writeAddressMapping(path string, d *Deployment) error {
	mapping := map[string]map[string]string{}
	if err := readJSONIfExists(path, &mapping); err != nil {
		return fmt.Errorf("address mapping: %w", err)
	}
	mapping[d.NetworkName] = d.AddressMapping()
	return writeJSON(path, mapping, " ")
}

// writeUploadBlockNumbers merges this deployment's upload block into the
// upload block numbers file: { "<network>": <block> }.
func writeUploadBlockNumbers(path string, d *Deployment) error {
	blocks := map[string]uint64{}
	if err := readJSONIfExists(path, &blocks); err != nil {
		return fmt.Errorf("upload block numbers: %w", err)
	}
	blocks[d.NetworkName] = d.UploadBlock
	return writeJSON(path, blocks, "  ")
}

func readJSONIfExists(path string, v any) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

func writeJSON(path string, v any, indent string) error {
	data, err := json.MarshalIndent(v, "", indent)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
