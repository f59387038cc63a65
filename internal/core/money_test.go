package core

import (
	"encoding/json"
	"testing"
)

func TestParseDecimalToCents(t *testing.T) {
	cases := []struct {
		in  string
		out int64
		ok  bool
	}{
		{"1", 100, true},
		{"1.0", 100, true},
		{"1.23", 123, true},
		{"1,23", 123, true},
		{"0.01", 1, true},
		{"1.005", 101, true}, // half-up rounding
		{"12.344", 1234, true},
		{"12.345", 1235, true},
		{" 2.50 ", 250, true},
		{".5", 50, true},
		{"-1", 0, false},
		{"+1", 0, false},
		{"0", 0, false},
		{"0.00", 0, false},
		{"abc", 0, false},
		{"1.2.3", 0, false},
		{"", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseDecimalToCents(tc.in)
		if tc.ok {
			if err != nil || got != tc.out {
				t.Fatalf("%q expected %d, got %d (err=%v)", tc.in, tc.out, got, err)
			}
		} else {
			if err == nil {
				t.Fatalf("%q expected error", tc.in)
			}
		}
	}
}

func TestMoneyString(t *testing.T) {
	cases := []struct {
		cents int64
		want  string
	}{
		{1234, "12.34"},
		{100, "1.00"},
		{5, "0.05"},
		{-5, "-0.05"},
		{0, "0.00"},
		{-1234, "-12.34"},
	}
	for _, tc := range cases {
		if got := (Money{Cents: tc.cents}).String(); got != tc.want {
			t.Fatalf("Money{%d}.String() = %q, want %q", tc.cents, got, tc.want)
		}
	}
}

func TestMoneyJSONRoundTrip(t *testing.T) {
	data, err := json.Marshal(Money{Cents: 1234})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != "12.34" {
		t.Fatalf("marshal = %s, want 12.34", data)
	}

	var m Money
	if err := json.Unmarshal([]byte(`"56.78"`), &m); err != nil {
		t.Fatalf("unmarshal string: %v", err)
	}
	if m.Cents != 5678 {
		t.Fatalf("unmarshal string = %d, want 5678", m.Cents)
	}

	if err := json.Unmarshal([]byte(`9.99`), &m); err != nil {
		t.Fatalf("unmarshal number: %v", err)
	}
	if m.Cents != 999 {
		t.Fatalf("unmarshal number = %d, want 999", m.Cents)
	}

	if err := json.Unmarshal([]byte(`0`), &m); err == nil {
		t.Fatal("expected error for zero amount")
	}
}

func TestMoneyArithmetic(t *testing.T) {
	a := Money{Cents: 300}
	b := Money{Cents: 125}
	if got := a.Add(b).Cents; got != 425 {
		t.Fatalf("Add = %d, want 425", got)
	}
	if got := a.Sub(b).Cents; got != 175 {
		t.Fatalf("Sub = %d, want 175", got)
	}
	if got := b.Sub(a).Cents; got != -175 {
		t.Fatalf("Sub negative = %d, want -175", got)
	}
}

func TestMoneyValidate(t *testing.T) {
	if err := (Money{Cents: 1}).Validate(); err != nil {
		t.Fatalf("positive amount: %v", err)
	}
	if err := (Money{}).Validate(); err == nil {
		t.Fatal("zero amount should be invalid")
	}
	if err := (Money{Cents: -100}).Validate(); err == nil {
		t.Fatal("negative amount should be invalid")
	}
}
