package ledger

import "testing"

func TestDefaults(t *testing.T) {
	l := NewDefault()
	if l.Credits() != 100 {
		t.Fatalf("credits: %d", l.Credits())
	}
	if l.Balance() != "1000" {
		t.Fatalf("balance: %q", l.Balance())
	}
}

func TestSpendCredits(t *testing.T) {
	l := NewDefault()
	if err := l.SpendCredits(30); err != nil {
		t.Fatal(err)
	}
	if l.Credits() != 70 {
		t.Fatalf("credits after spend: %d", l.Credits())
	}
	if err := l.SpendCredits(71); err == nil {
		t.Fatal("expected insufficient credits error")
	}
	if l.Credits() != 70 {
		t.Fatalf("failed spend mutated credits: %d", l.Credits())
	}
}

func TestDepositWithdraw(t *testing.T) {
	l := NewDefault()
	if err := l.Deposit("10.5"); err != nil {
		t.Fatal(err)
	}
	if l.Balance() != "1010.5" {
		t.Fatalf("balance after deposit: %q", l.Balance())
	}
	if err := l.Withdraw("0.5"); err != nil {
		t.Fatal(err)
	}
	if l.Balance() != "1010" {
		t.Fatalf("balance after withdraw: %q", l.Balance())
	}
}

func TestWithdrawOverdraftRejected(t *testing.T) {
	l, err := New(0, "5")
	if err != nil {
		t.Fatal(err)
	}
	if err := l.Withdraw("5.01"); err == nil {
		t.Fatal("expected overdraft to fail")
	}
	if l.Balance() != "5" {
		t.Fatalf("failed withdraw mutated balance: %q", l.Balance())
	}
}

func TestInvalidAmounts(t *testing.T) {
	l := NewDefault()
	for _, amount := range []string{"", "abc", "-3", "0"} {
		if err := l.Deposit(amount); err == nil {
			t.Fatalf("deposit %q: expected error", amount)
		}
	}
	if _, err := New(10, "not-a-number"); err == nil {
		t.Fatal("expected constructor to reject bad balance")
	}
}

func TestAddCreditsClampsAtZero(t *testing.T) {
	l := NewDefault()
	if got := l.AddCredits(-500); got != 0 {
		t.Fatalf("expected clamp to zero, got %d", got)
	}
	if got := l.AddCredits(25); got != 25 {
		t.Fatalf("expected 25, got %d", got)
	}
}
