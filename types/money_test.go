package types

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
)

func TestMoneyConstructors(t *testing.T) {
	tests := []struct {
		name     string
		money    Money
		amount   int64
		currency string
		display  string
	}{
		{"PHP", PHP(125000), 125000, "php", "₱1250.00"},
		{"USD", USD(4900), 4900, "usd", "$49.00"},
		{"Zero PHP", Zero("PHP"), 0, "php", "₱0.00"},
		{"Zero USD", Zero("USD"), 0, "usd", "$0.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.money.Amount != tt.amount {
				t.Errorf("Amount: got %d, want %d", tt.money.Amount, tt.amount)
			}
			if tt.money.Currency != tt.currency {
				t.Errorf("Currency: got %s, want %s", tt.money.Currency, tt.currency)
			}
			if tt.money.String() != tt.display {
				t.Errorf("Display: got %s, want %s", tt.money.String(), tt.display)
			}
		})
	}
}

func TestMoneyArithmetic(t *testing.T) {
	tests := []struct {
		name     string
		op       func() Money
		expected Money
	}{
		{"Add", func() Money { return PHP(100).Add(PHP(200)) }, PHP(300)},
		{"Subtract", func() Money { return PHP(500).Subtract(PHP(200)) }, PHP(300)},
		{"Multiply", func() Money { return PHP(100).Multiply(3) }, PHP(300)},
		{"Divide", func() Money { return PHP(900).Divide(3) }, PHP(300)},
		{"Negate", func() Money { return PHP(100).Negate() }, PHP(-100)},
		{"Abs positive", func() Money { return PHP(100).Abs() }, PHP(100)},
		{"Abs negative", func() Money { return PHP(-100).Abs() }, PHP(100)},
		{"Complex", func() Money {
			return PHP(1000).Add(PHP(500)).Multiply(2).Subtract(PHP(1000))
		}, PHP(2000)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tt.op()
			if !result.Equal(tt.expected) {
				t.Errorf("Got %v, want %v", result, tt.expected)
			}
		})
	}
}

func TestMoneyApplyRate(t *testing.T) {
	tests := []struct {
		name     string
		money    Money
		rate     string
		expected Money
	}{
		{"Two percent", PHP(1200000), "0.02", PHP(24000)},
		{"One and a half percent", PHP(100000), "0.015", PHP(1500)},
		{"Rounds half up", PHP(125), "0.02", PHP(3)},     // 2.5 -> 3
		{"Rounds down below half", PHP(120), "0.02", PHP(2)}, // 2.4 -> 2
		{"Zero rate", PHP(100000), "0", PHP(0)},
		{"Fractional centavo up", PHP(333), "0.015", PHP(5)}, // 4.995 -> 5
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rate, err := decimal.NewFromString(tt.rate)
			if err != nil {
				t.Fatalf("bad rate %q: %v", tt.rate, err)
			}
			result := tt.money.ApplyRate(rate)
			if !result.Equal(tt.expected) {
				t.Errorf("ApplyRate(%s): got %v, want %v", tt.rate, result, tt.expected)
			}
		})
	}
}

func TestMoneyCurrencyMismatch(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("Expected panic for currency mismatch")
		}
	}()

	// This should panic
	_ = PHP(100).Add(USD(100))
}

func TestMoneyDivisionByZero(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("Expected panic for division by zero")
		}
	}()

	// This should panic
	_ = PHP(100).Divide(0)
}

func TestMoneyComparison(t *testing.T) {
	tests := []struct {
		name    string
		a, b    Money
		less    bool
		greater bool
		equal   bool
	}{
		{"Equal", PHP(100), PHP(100), false, false, true},
		{"Less", PHP(50), PHP(100), true, false, false},
		{"Greater", PHP(200), PHP(100), false, true, false},
		{"Zero equal", PHP(0), Zero("php"), false, false, true},
		{"Negative less", PHP(-100), PHP(100), true, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.LessThan(tt.b); got != tt.less {
				t.Errorf("LessThan: got %v, want %v", got, tt.less)
			}
			if got := tt.a.GreaterThan(tt.b); got != tt.greater {
				t.Errorf("GreaterThan: got %v, want %v", got, tt.greater)
			}
			if got := tt.a.Equal(tt.b); got != tt.equal {
				t.Errorf("Equal: got %v, want %v", got, tt.equal)
			}
		})
	}
}

func TestMoneyMinMax(t *testing.T) {
	tests := []struct {
		name     string
		a, b     Money
		min, max Money
	}{
		{"First smaller", PHP(50), PHP(100), PHP(50), PHP(100)},
		{"Second smaller", PHP(100), PHP(50), PHP(50), PHP(100)},
		{"Equal", PHP(100), PHP(100), PHP(100), PHP(100)},
		{"Negative", PHP(-50), PHP(50), PHP(-50), PHP(50)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if minVal := tt.a.Min(tt.b); !minVal.Equal(tt.min) {
				t.Errorf("Min: got %v, want %v", minVal, tt.min)
			}
			if maxVal := tt.a.Max(tt.b); !maxVal.Equal(tt.max) {
				t.Errorf("Max: got %v, want %v", maxVal, tt.max)
			}
		})
	}
}

func TestMoneyFormatMajor(t *testing.T) {
	tests := []struct {
		money    Money
		expected string
	}{
		{PHP(125000), "1250.00"},
		{PHP(100), "1.00"},
		{PHP(1), "0.01"},
		{PHP(0), "0.00"},
		{PHP(-125000), "-1250.00"},
		{PHP(-1), "-0.01"},
		{USD(9999), "99.99"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if got := tt.money.FormatMajor(); got != tt.expected {
				t.Errorf("FormatMajor: got %s, want %s", got, tt.expected)
			}
		})
	}
}

func TestMoneyJSON(t *testing.T) {
	m := USD(4900)

	data, err := json.Marshal(m)
	if err != nil {
		t.Fatalf("Marshal error: %v", err)
	}

	expected := `{"amount":4900,"currency":"usd","display":"$49.00"}`
	if string(data) != expected {
		t.Errorf("JSON: got %s, want %s", string(data), expected)
	}
}

func TestSum(t *testing.T) {
	tests := []struct {
		name     string
		values   []Money
		expected Money
	}{
		{"Empty", []Money{}, Zero("php")},
		{"Single", []Money{PHP(100)}, PHP(100)},
		{"Multiple", []Money{PHP(100), PHP(200), PHP(300)}, PHP(600)},
		{"With negatives", []Money{PHP(100), PHP(-50), PHP(200)}, PHP(250)},
		{"All zero", []Money{PHP(0), PHP(0), PHP(0)}, PHP(0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Sum(tt.values...)
			if !result.Equal(tt.expected) {
				t.Errorf("Sum: got %v, want %v", result, tt.expected)
			}
		})
	}
}

func BenchmarkMoneyAdd(b *testing.B) {
	m1 := PHP(100)
	m2 := PHP(200)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = m1.Add(m2)
	}
}

func BenchmarkMoneyApplyRate(b *testing.B) {
	m := PHP(1200000)
	rate := decimal.RequireFromString("0.02")
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = m.ApplyRate(rate)
	}
}
