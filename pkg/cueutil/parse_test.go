// SPDX-License-Identifier: MPL-2.0

package cueutil

import (
	"strings"
	"testing"
)

const testSchema = `
#Config: {
	output?: string & !=""
	site?:   bool
	serve?: {
		port?: int & >=0 & <=65535
	}
}

#Strict: {
	name:  string
	count: int
}
`

type strict struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestParseAndDecode(t *testing.T) {
	t.Parallel()

	t.Run("decodes into a struct", func(t *testing.T) {
		t.Parallel()
		res, err := ParseAndDecodeString[strict](testSchema, []byte(`name: "x", count: 3`), "#Strict")
		if err != nil {
			t.Fatal(err)
		}
		if res.Value.Name != "x" || res.Value.Count != 3 {
			t.Errorf("got %+v", *res.Value)
		}
		if !res.Unified.Exists() {
			t.Error("Unified should be set")
		}
	})

	t.Run("missing required field fails when concrete", func(t *testing.T) {
		t.Parallel()
		_, err := ParseAndDecodeString[strict](testSchema, []byte(`name: "x"`), "#Strict", WithFilename("s.cue"))
		if err == nil || !strings.Contains(err.Error(), "s.cue") {
			t.Errorf("expected error naming s.cue, got %v", err)
		}
	})

	t.Run("optional fields decode to a map of set keys", func(t *testing.T) {
		t.Parallel()
		res, err := ParseAndDecodeString[map[string]any](testSchema, []byte(`site: true`), "#Config", WithConcrete(false))
		if err != nil {
			t.Fatal(err)
		}
		m := *res.Value
		if len(m) != 1 || m["site"] != true {
			t.Errorf("got %v", m)
		}
	})

	t.Run("closed definition rejects unknown fields", func(t *testing.T) {
		t.Parallel()
		_, err := ParseAndDecodeString[map[string]any](testSchema, []byte(`bogus: 1`), "#Config", WithConcrete(false))
		if err == nil {
			t.Fatal("expected error for unknown field")
		}
	})

	t.Run("syntax error", func(t *testing.T) {
		t.Parallel()
		_, err := ParseAndDecodeString[map[string]any](testSchema, []byte(`site: {`), "#Config")
		if err == nil || !strings.HasPrefix(err.Error(), "<input>") {
			t.Errorf("expected error prefixed with <input>, got %v", err)
		}
	})

	t.Run("size limit", func(t *testing.T) {
		t.Parallel()
		_, err := ParseAndDecodeString[map[string]any](testSchema, []byte(`site: true`), "#Config", WithMaxFileSize(4))
		if err == nil || !strings.Contains(err.Error(), "exceeds maximum") {
			t.Errorf("got %v", err)
		}
	})

	t.Run("unknown definition is an internal error", func(t *testing.T) {
		t.Parallel()
		_, err := ParseAndDecodeString[map[string]any](testSchema, []byte(`site: true`), "#Missing")
		if err == nil || !strings.Contains(err.Error(), "internal error") {
			t.Errorf("got %v", err)
		}
	})
}
