package registry

import (
	"encoding/json"
	"testing"

	"github.com/lokapasar/lokapasar-backend/pkg/enums"
)

func TestDecoderRegistryRoundTrip(t *testing.T) {
	reg := NewDecoderRegistry()
	reg.Register(enums.OutboxEventTypeOrgStatusChanged, 1, func(payload json.RawMessage) (any, error) {
		var decoded map[string]string
		if err := json.Unmarshal(payload, &decoded); err != nil {
			return nil, err
		}
		return decoded, nil
	})

	input := json.RawMessage(`{"status":"active"}`)

	output, err := reg.Decode(enums.OutboxEventTypeOrgStatusChanged, 1, input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	decoded, ok := output.(map[string]string)
	if !ok {
		t.Fatalf("output type = %T", output)
	}
	if decoded["status"] != "active" {
		t.Fatalf("status = %q, want active", decoded["status"])
	}

	if _, err := reg.Decode(enums.OutboxEventTypeOrderPaid, 1, input); err == nil {
		t.Fatal("expected error for unregistered decoder")
	}
	if _, err := reg.Decode(enums.OutboxEventTypeOrgStatusChanged, 2, input); err == nil {
		t.Fatal("expected error for unregistered version")
	}
}
