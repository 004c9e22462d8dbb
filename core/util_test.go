package core

import (
	"testing"
	"time"
)

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		phone   string
		want    string
		wantErr bool
	}{
		{phone: "+91 (98) 765-43210", want: "919876543210"},
		{phone: "243812345678", want: "243812345678"},
		{phone: " +243.81.234.5678 ", want: "243812345678"},
		{phone: "123456789", wantErr: true},
		{phone: "1234567890123456", wantErr: true},
		{phone: "24381234567a", wantErr: true},
		{phone: "243+812345678", wantErr: true},
		{phone: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.phone, func(t *testing.T) {
			got, err := NormalizePhone(tt.phone)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NormalizePhone() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("NormalizePhone() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestStartOfDay(t *testing.T) {
	kinshasa := time.FixedZone("WAT", 3600)
	at := time.Date(2026, 3, 9, 23, 30, 0, 0, time.UTC) // already the 10th in WAT

	if got, want := StartOfDay(at, time.UTC), time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC); !got.Equal(want) {
		t.Errorf("StartOfDay(UTC) = %v, want %v", got, want)
	}
	if got, want := StartOfDay(at, kinshasa), time.Date(2026, 3, 10, 0, 0, 0, 0, kinshasa); !got.Equal(want) {
		t.Errorf("StartOfDay(WAT) = %v, want %v", got, want)
	}
}

func TestAllowedOrderings(t *testing.T) {
	got := AllowedOrderings(
		[]DBOrdering{{Field: "name", Ascending: true}, {Field: "password"}, {Field: "created_at"}},
		"name", "created_at",
	)
	want := []DBOrdering{{Field: "name", Ascending: true}, {Field: "created_at"}}
	if len(got) != len(want) {
		t.Fatalf("AllowedOrderings() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("AllowedOrderings()[%d] = %v, want %v", i, got[i], want[i])
		}
	}
	if AllowedOrderings(nil, "name") != nil {
		t.Error("AllowedOrderings(nil) != nil")
	}
}
