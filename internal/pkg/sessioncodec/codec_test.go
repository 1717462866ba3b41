package sessioncodec

import (
	"errors"
	"testing"
	"time"

	"github.com/caparizon/qa-dashboard/internal/core/domain"
)

func sampleRecord() domain.SessionRecord {
	return domain.SessionRecord{
		Identity: domain.Identity{
			ID:          3,
			Username:    "qa.lead",
			Email:       "qa.lead@example.com",
			Role:        domain.RoleUser,
			Designation: "QA Lead",
			EmployeeID:  "E-003",
		},
		LoginTime: time.UnixMilli(1714557600123).UTC(),
	}
}

func TestCodecs_RoundTrip(t *testing.T) {
	for name, c := range map[string]Codec{"json": JSON{}, "signed": NewSigned("s3cret")} {
		raw, err := c.Encode(sampleRecord())
		if err != nil {
			t.Fatalf("%s: encode: %v", name, err)
		}
		got, err := c.Decode(raw)
		if err != nil {
			t.Fatalf("%s: decode: %v", name, err)
		}
		if got.Identity != sampleRecord().Identity {
			t.Fatalf("%s: identity mismatch: %+v", name, got.Identity)
		}
		if !got.LoginTime.Equal(sampleRecord().LoginTime) {
			t.Fatalf("%s: login time mismatch: %v", name, got.LoginTime)
		}
	}
}

func TestCodecs_AbsentValues(t *testing.T) {
	for name, c := range map[string]Codec{"json": JSON{}, "signed": NewSigned("s3cret")} {
		for _, raw := range []string{"", "undefined", "  ", "null"} {
			if _, err := c.Decode(raw); !errors.Is(err, domain.ErrNoSession) {
				t.Fatalf("%s: %q: expected ErrNoSession, got %v", name, raw, err)
			}
		}
	}
}

func TestJSON_Malformed(t *testing.T) {
	cases := []string{
		`{not json`,
		`{"user":null,"login_time":1714557600123}`,
		`{"user":{"id":3,"username":"qa.lead","role":"User"}}`,
		`{"user":{"id":0,"username":"qa.lead","role":"User"},"login_time":1}`,
		`"just a string"`,
	}
	for _, raw := range cases {
		if _, err := (JSON{}).Decode(raw); !errors.Is(err, domain.ErrDeserialization) {
			t.Fatalf("%q: expected ErrDeserialization, got %v", raw, err)
		}
	}
}

func TestSigned_RejectsTamperingAndForeignKeys(t *testing.T) {
	raw, err := NewSigned("s3cret").Encode(sampleRecord())
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if _, err := NewSigned("other").Decode(raw); !errors.Is(err, domain.ErrDeserialization) {
		t.Fatalf("expected ErrDeserialization for wrong key, got %v", err)
	}
	if _, err := NewSigned("s3cret").Decode(raw + "x"); !errors.Is(err, domain.ErrDeserialization) {
		t.Fatalf("expected ErrDeserialization for tampered token, got %v", err)
	}
	plain, _ := JSON{}.Encode(sampleRecord())
	if _, err := NewSigned("s3cret").Decode(plain); !errors.Is(err, domain.ErrDeserialization) {
		t.Fatalf("expected ErrDeserialization for unsigned record, got %v", err)
	}
}

func TestNew_SelectsBySecret(t *testing.T) {
	if _, ok := New("").(JSON); !ok {
		t.Fatalf("expected JSON codec without a secret")
	}
	if _, ok := New("k").(*Signed); !ok {
		t.Fatalf("expected signed codec with a secret")
	}
}
