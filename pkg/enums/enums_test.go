package enums

import "testing"

func TestParseOrderStatus(t *testing.T) {
	for _, status := range OrderStatuses() {
		got, err := ParseOrderStatus(string(status))
		if err != nil {
			t.Fatalf("unexpected error for %s: %v", status, err)
		}
		if got != status {
			t.Fatalf("expected %s got %s", status, got)
		}
	}
	if _, err := ParseOrderStatus("pending"); err == nil {
		t.Fatal("expected lowercase status to be rejected")
	}
	if OrderStatus("SHIPPED").IsValid() {
		t.Fatal("unknown status should be invalid")
	}
}

func TestOrderStatusTerminal(t *testing.T) {
	if !OrderStatusCompleted.IsTerminal() || !OrderStatusCancelled.IsTerminal() {
		t.Fatal("completed and cancelled must be terminal")
	}
	if OrderStatusDelivering.IsTerminal() {
		t.Fatal("delivering is not terminal")
	}
}

func TestParseUserRole(t *testing.T) {
	if role, err := ParseUserRole("livreur"); err != nil || role != UserRoleDriver {
		t.Fatalf("expected driver role, got %q err=%v", role, err)
	}
	if _, err := ParseUserRole("driver"); err == nil {
		t.Fatal("expected unknown role to be rejected")
	}
}

func TestPaymentEnums(t *testing.T) {
	if _, err := ParsePaymentStatus("PAID"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := ParsePaymentMethod("CARD"); err == nil {
		t.Fatal("expected unknown payment method to be rejected")
	}
	if !PaymentMethodMobileMoney.IsValid() {
		t.Fatal("mobile money should be valid")
	}
}

func TestVehicleType(t *testing.T) {
	if _, err := ParseVehicleType("moto"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := ParseVehicleType("camion"); err == nil {
		t.Fatal("expected unknown vehicle type to be rejected")
	}
}
