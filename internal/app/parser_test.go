package app

import (
	"testing"

	"github.com/knightvest/assistant-service/internal/domain"
)

func TestParseCommand(t *testing.T) {
	tests := []struct {
		name        string
		text        string
		want        domain.Command
		wantBadAmnt bool
	}{
		{
			name: "deposit with whole amount",
			text: "deposit 1000",
			want: domain.DepositCommand{Amount: dec(t, "1000")},
		},
		{
			name: "deposit keyword is case insensitive",
			text: "DEPOSIT 250",
			want: domain.DepositCommand{Amount: dec(t, "250")},
		},
		{
			name: "deposit with decimal amount",
			text: "deposit 10.50",
			want: domain.DepositCommand{Amount: dec(t, "10.50")},
		},
		{
			name: "withdraw",
			text: "withdraw 500",
			want: domain.WithdrawCommand{Amount: dec(t, "500")},
		},
		{
			name: "invest with plan token",
			text: "invest 2000 silver",
			want: domain.InvestCommand{Amount: dec(t, "2000"), PlanToken: "silver"},
		},
		{
			name: "extra trailing tokens are ignored",
			text: "deposit 100 please",
			want: domain.DepositCommand{Amount: dec(t, "100")},
		},
		{
			name:        "deposit with unparsable amount is invalid, not a fall-through",
			text:        "deposit abc",
			wantBadAmnt: true,
		},
		{
			name:        "withdraw with negative amount is invalid",
			text:        "withdraw -5",
			wantBadAmnt: true,
		},
		{
			name:        "invest with unparsable amount is invalid",
			text:        "invest lots gold",
			wantBadAmnt: true,
		},
		{
			name: "deposit with no amount falls through",
			text: "deposit",
			want: domain.UnrecognizedCommand{Text: "deposit"},
		},
		{
			name: "invest without plan token falls through",
			text: "invest 2000",
			want: domain.UnrecognizedCommand{Text: "invest 2000"},
		},
		{
			name: "free text falls through",
			text: "what plans do you offer?",
			want: domain.UnrecognizedCommand{Text: "what plans do you offer?"},
		},
		{
			name: "empty text falls through",
			text: "",
			want: domain.UnrecognizedCommand{Text: ""},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseCommand(tt.text)
			if tt.wantBadAmnt {
				if err != ErrInvalidAmount {
					t.Fatalf("expected ErrInvalidAmount, got cmd=%#v err=%v", got, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !commandsEqual(got, tt.want) {
				t.Fatalf("expected %#v, got %#v", tt.want, got)
			}
		})
	}
}

func commandsEqual(a, b domain.Command) bool {
	switch av := a.(type) {
	case domain.DepositCommand:
		bv, ok := b.(domain.DepositCommand)
		return ok && av.Amount.Equal(bv.Amount)
	case domain.WithdrawCommand:
		bv, ok := b.(domain.WithdrawCommand)
		return ok && av.Amount.Equal(bv.Amount)
	case domain.InvestCommand:
		bv, ok := b.(domain.InvestCommand)
		return ok && av.Amount.Equal(bv.Amount) && av.PlanToken == bv.PlanToken
	case domain.UnrecognizedCommand:
		bv, ok := b.(domain.UnrecognizedCommand)
		return ok && av.Text == bv.Text
	}
	return false
}
