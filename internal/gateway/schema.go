package gateway

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	jsonpatch "github.com/evanphx/json-patch/v5"
	"github.com/qri-io/jsonschema"
	"github.com/wI2L/jsondiff"
)

//go:embed schema.json
var profileSchema []byte

func keyError(errs []jsonschema.KeyError) error {
	s := strings.Builder{}
	for _, e := range errs {
		s.WriteString(fmt.Sprintf("%s\n", e.Error()))
	}
	return errors.New(s.String())
}

func Validate(profile []byte) error {
	rs := &jsonschema.Schema{}
	if err := json.Unmarshal(profileSchema, rs); err != nil {
		return fmt.Errorf("invalid JSON schema: %s", err)
	}
	keyErrs, err := rs.ValidateBytes(context.Background(), profile)
	if err != nil {
		return fmt.Errorf("error validating connection profile: %s", err)
	}
	if len(keyErrs) != 0 {
		return keyError(keyErrs)
	}
	return nil
}

func ApplyPatch(profile []byte, patchJSON []byte) ([]byte, error) {
	patch, err := jsonpatch.DecodePatch(patchJSON)
	if err != nil {
		return nil, fmt.Errorf("invalid JSON patch: %s", err)
	}
	updated, err := patch.Apply(profile)
	if err != nil {
		return nil, fmt.Errorf("error applying patch to connection profile: %s", err)
	}
	return updated, nil
}

// Diff returns the operations turning previous into current. An empty patch
// means the documents are equivalent.
func Diff(previous, current []byte) (jsondiff.Patch, error) {
	var before, after map[string]interface{}
	if err := json.Unmarshal(previous, &before); err != nil {
		return nil, fmt.Errorf("error reading previous connection profile: %w", err)
	}
	if err := json.Unmarshal(current, &after); err != nil {
		return nil, err
	}
	return jsondiff.Compare(before, after)
}
