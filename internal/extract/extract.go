// Package extract pulls the JSON payload out of command output that may be
// preceded by banners, warnings, or other noise.
package extract

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrNoData is returned when output carries no decodable JSON object.
var ErrNoData = errors.New("no JSON object in output")

// Object returns the first JSON object in output. Everything before the first
// '{' is ignored, as is anything after the object closes. If the text starting
// at the first '{' is not valid JSON, Object fails; it does not scan for a
// later brace.
func Object(output []byte) (json.RawMessage, error) {
	start := bytes.IndexByte(output, '{')
	if start < 0 {
		return nil, ErrNoData
	}

	dec := json.NewDecoder(bytes.NewReader(output[start:]))

	var raw json.RawMessage
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoData, err) //nolint:errorlint // only ErrNoData is part of the contract
	}

	return raw, nil
}

// Into extracts the first JSON object from output and decodes it into dst.
func Into(output []byte, dst any) error {
	raw, err := Object(output)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("%w: %v", ErrNoData, err) //nolint:errorlint // only ErrNoData is part of the contract
	}

	return nil
}
