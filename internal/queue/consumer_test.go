package queue

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/iliyamo/house-rental-booking/internal/booking"
)

func sampleEvent(t *testing.T) BookingStatusChangedEvent {
	t.Helper()
	start, _ := booking.ParseDay("2024-06-01")
	end, _ := booking.ParseDay("2024-06-10")
	b := booking.Booking{
		ID:              uuid.MustParse("4f1f3b7e-8a51-4c43-9b1d-0d5c7a9e2f10"),
		HouseID:         3,
		TenantID:        20,
		Period:          booking.DateRange{Start: start, End: end},
		TotalAmount:     decimal.RequireFromString("300"),
		Status:          booking.StatusRejected,
		RejectionReason: "under repair",
		UpdatedAt:       time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}
	return NewStatusChangedEvent(b, 10, booking.StatusPending, booking.ActorOwner)
}

func TestNewStatusChangedEvent(t *testing.T) {
	ev := sampleEvent(t)
	if ev.From != "PENDING" || ev.To != "REJECTED" || ev.Actor != "owner" {
		t.Errorf("transition fields = %s/%s/%s", ev.From, ev.To, ev.Actor)
	}
	if ev.TotalAmount != "300.00" {
		t.Errorf("TotalAmount = %s, want 300.00", ev.TotalAmount)
	}
	if ev.StartDate != "2024-06-01" || ev.EndDate != "2024-06-10" {
		t.Errorf("dates = %s..%s", ev.StartDate, ev.EndDate)
	}
	if ev.ChangedAt != "2024-05-01T12:00:00Z" {
		t.Errorf("ChangedAt = %s", ev.ChangedAt)
	}
}

func TestWriteLine(t *testing.T) {
	var buf bytes.Buffer
	if err := writeLine(&buf, sampleEvent(t)); err != nil {
		t.Fatalf("writeLine() error: %v", err)
	}
	got := buf.String()
	for _, want := range []string{
		"Booking PENDING -> REJECTED",
		"booking_id=4f1f3b7e-8a51-4c43-9b1d-0d5c7a9e2f10",
		"house_id=3",
		"total=300.00",
		`reason="under repair"`,
	} {
		if !strings.Contains(got, want) {
			t.Errorf("line %q missing %q", got, want)
		}
	}
	if !strings.HasSuffix(got, "\n") {
		t.Error("line not newline-terminated")
	}
}

func TestHandleMessage(t *testing.T) {
	LogPath = filepath.Join(t.TempDir(), "logs", "booking.log")

	if err := handleMessage([]byte(`{"booking_id":"abc","to":"APPROVED","changed_at":"now"}`)); err != nil {
		t.Fatalf("handleMessage() error: %v", err)
	}
	data, err := os.ReadFile(LogPath)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(data), "Booking - -> APPROVED") {
		t.Errorf("log = %q", data)
	}

	for _, body := range []string{`not json`, `{"to":"APPROVED"}`} {
		if err := handleMessage([]byte(body)); err == nil {
			t.Errorf("handleMessage(%s) error = nil, want error", body)
		}
	}
}
