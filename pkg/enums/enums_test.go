package enums

import "testing"

func TestOrderStatusTerminality(t *testing.T) {
	if OrderStatusPending.IsTerminal() {
		t.Fatal("pending must not be terminal")
	}
	for _, status := range []OrderStatus{OrderStatusConfirmed, OrderStatusCancelled, OrderStatusExpired, OrderStatusFailed} {
		if !status.IsTerminal() {
			t.Fatalf("%s should be terminal", status)
		}
	}
	if OrderStatus("refunded").IsTerminal() {
		t.Fatal("unknown status must not report terminal")
	}
}

func TestParseOrderStatus(t *testing.T) {
	if _, err := ParseOrderStatus("pending"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := ParseOrderStatus("PENDING"); err == nil {
		t.Fatal("parse must be case sensitive")
	}
}

func TestListingStatusTerminality(t *testing.T) {
	if ListingStatusActive.IsTerminal() {
		t.Fatal("active must not be terminal")
	}
	for _, status := range []ListingStatus{ListingStatusSold, ListingStatusCancelled, ListingStatusExpired} {
		if !status.IsTerminal() {
			t.Fatalf("%s should be terminal", status)
		}
	}
}

func TestParseListingStatus(t *testing.T) {
	if _, err := ParseListingStatus("sold"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := ParseListingStatus("bought"); err == nil {
		t.Fatal("expected error for unknown status")
	}
}
