package docs

import (
	"encoding/json"
	"testing"

	"github.com/swaggo/swag"
)

func TestRegisteredDocIsValidJSON(t *testing.T) {
	doc, err := swag.ReadDoc()
	if err != nil {
		t.Fatalf("ReadDoc: %v", err)
	}
	var out struct {
		Paths map[string]any `json:"paths"`
	}
	if err := json.Unmarshal([]byte(doc), &out); err != nil {
		t.Fatalf("doc is not JSON: %v", err)
	}
	for _, p := range []string{"/api/data", "/api/controls", "/api/rooms/{controllerId}/{roomId}/temperature", "/api/events"} {
		if _, ok := out.Paths[p]; !ok {
			t.Fatalf("missing path %s", p)
		}
	}
}
