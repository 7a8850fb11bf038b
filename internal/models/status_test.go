package models

import "testing"

func TestParseStatus(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    OrderStatus
		wantErr bool
	}{
		{name: "canonical token", raw: "pending", want: StatusPending},
		{name: "mixed case", raw: "Sent_To_Kitchen", want: StatusSentToKitchen},
		{name: "dashes for underscores", raw: "sent-to-kitchen", want: StatusSentToKitchen},
		{name: "surrounding whitespace", raw: "  served  ", want: StatusServed},
		{name: "plain alias", raw: "da phuc vu", want: StatusServed},
		{name: "accented alias", raw: "Đã phục vụ", want: StatusServed},
		{name: "accented cancel alias", raw: "đã hủy", want: StatusCancelled},
		{name: "kitchen queue alias", raw: "cho bep", want: StatusSentToKitchen},
		{name: "processing alias", raw: "Bếp đang làm", want: StatusProcessing},
		{name: "empty", raw: "", wantErr: true},
		{name: "unknown token", raw: "shipped", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseStatus(tt.raw)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseStatus(%q) error = %v, wantErr %v", tt.raw, err, tt.wantErr)
			}
			if err != nil {
				if !IsKind(err, KindValidation) {
					t.Errorf("ParseStatus(%q) error kind = %v, want %v", tt.raw, KindOf(err), KindValidation)
				}
				return
			}
			if got != tt.want {
				t.Errorf("ParseStatus(%q) = %v, want %v", tt.raw, got, tt.want)
			}
		})
	}
}

func TestValidateTransition_Graph(t *testing.T) {
	allowed := map[OrderStatus][]OrderStatus{
		StatusPending:       {StatusConfirmed, StatusCancelled},
		StatusConfirmed:     {StatusSentToKitchen, StatusCancelled},
		StatusSentToKitchen: {StatusProcessing, StatusCancelled},
		StatusProcessing:    {StatusCompleted, StatusCancelled},
		StatusCompleted:     {StatusServed},
		StatusServed:        {},
		StatusCancelled:     {},
	}

	isAllowed := func(from, to OrderStatus) bool {
		if from == to {
			return true
		}
		for _, s := range allowed[from] {
			if s == to {
				return true
			}
		}
		return false
	}

	for _, from := range AllStatuses() {
		for _, to := range AllStatuses() {
			err := ValidateTransition(from, to)
			if isAllowed(from, to) {
				if err != nil {
					t.Errorf("ValidateTransition(%s, %s) = %v, want nil", from, to, err)
				}
				continue
			}
			if err == nil {
				t.Errorf("ValidateTransition(%s, %s) = nil, want conflict", from, to)
				continue
			}
			if !IsKind(err, KindConflict) {
				t.Errorf("ValidateTransition(%s, %s) error kind = %v, want %v", from, to, KindOf(err), KindConflict)
			}
		}
	}
}

func TestIsTerminal(t *testing.T) {
	for _, status := range AllStatuses() {
		terminal := status == StatusServed || status == StatusCancelled
		if status.IsTerminal() != terminal {
			t.Errorf("%s.IsTerminal() = %v, want %v", status, status.IsTerminal(), terminal)
		}
	}
}

func TestRequiresTable(t *testing.T) {
	tests := []struct {
		orderType string
		want      bool
	}{
		{"", true},
		{"dine_in", true},
		{"Dine-In", true},
		{"tại chỗ", true},
		{"takeout", false},
		{"Take Away", false},
		{"TAKEAWAY", false},
		{"delivery", false},
		{"mang về", false},
		{"giao hàng", false},
	}

	for _, tt := range tests {
		if got := RequiresTable(tt.orderType); got != tt.want {
			t.Errorf("RequiresTable(%q) = %v, want %v", tt.orderType, got, tt.want)
		}
	}
}

func TestNormalizeKey(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"  Sent_To_Kitchen ", "sent to kitchen"},
		{"Đã   phục  vụ", "da phuc vu"},
		{"BÀN 5", "ban 5"},
		{"take-away", "take away"},
	}

	for _, tt := range tests {
		if got := NormalizeKey(tt.raw); got != tt.want {
			t.Errorf("NormalizeKey(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}
