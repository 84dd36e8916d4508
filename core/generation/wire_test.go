package generation

import (
	"encoding/json"
	"testing"
)

func TestFlexMillisToleratesGeneratorNumberSpellings(t *testing.T) {
	cases := []struct {
		raw   string
		want  float64
		valid bool
	}{
		{`1500`, 1500, true},
		{`1500.5`, 1500.5, true},
		{`"2000"`, 2000, true},
		{`" 2000 "`, 2000, true},
		{`"soon"`, 0, false},
		{`null`, 0, false},
		{`[1500]`, 0, false},
		{`"NaN"`, 0, false},
	}

	for _, tc := range cases {
		var m FlexMillis
		if err := json.Unmarshal([]byte(tc.raw), &m); err != nil {
			t.Fatalf("FlexMillis(%s) returned error: %v", tc.raw, err)
		}
		if m.Valid != tc.valid || (tc.valid && m.Millis != tc.want) {
			t.Fatalf("FlexMillis(%s) = %+v, want %v (valid=%t)", tc.raw, m, tc.want, tc.valid)
		}
	}
}

func TestFlexMillisRoundTripsValidValues(t *testing.T) {
	data, err := json.Marshal(Ms(1500))
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	if string(data) != "1500" {
		t.Fatalf("expected 1500, got %s", data)
	}
}

func TestSceneSchemaIsSelfContained(t *testing.T) {
	schema := SceneSchema()
	if schema == nil {
		t.Fatal("expected a schema")
	}

	data, err := schema.MarshalJSON()
	if err != nil {
		t.Fatalf("schema did not marshal: %v", err)
	}
	if len(schema.Definitions) != 0 {
		t.Fatal("expected an inlined schema without definitions")
	}

	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("schema is not valid JSON: %v", err)
	}
	properties, ok := decoded["properties"].(map[string]any)
	if !ok {
		t.Fatal("expected top-level properties")
	}
	if _, ok := properties["characters"]; !ok {
		t.Fatal("expected a characters property in the schema")
	}
}
