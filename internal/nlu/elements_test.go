package nlu

import (
	"testing"
)

// TestExtractElementsEnumeration verifies a narrated enumeration splits
// into named specs with amounts and colors.
func TestExtractElementsEnumeration(t *testing.T) {
	got := ExtractElements("el espacio tiene 2 sillas y una mesa roja")
	want := []ElementSpec{
		{Name: "sillas", Amount: 2},
		{Name: "mesa", Amount: 1, Color: "rojo"},
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d specs, got %d: %+v", len(want), len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("spec %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

// TestExtractElementsNumberWords verifies spelled-out amounts.
func TestExtractElementsNumberWords(t *testing.T) {
	got := ExtractElements("tres lámparas, dos cuadros y un sofá negro")
	want := []ElementSpec{
		{Name: "lámparas", Amount: 3},
		{Name: "cuadros", Amount: 2},
		{Name: "sofá", Amount: 1, Color: "negro"},
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d specs, got %d: %+v", len(want), len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("spec %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

// TestExtractElementsColorOrderIsStable verifies a part matching two color
// stems always resolves to the earlier one in the list, on every run.
func TestExtractElementsColorOrderIsStable(t *testing.T) {
	for i := 0; i < 200; i++ {
		got := ExtractElements("un sofá gris azulado")
		if len(got) != 1 {
			t.Fatalf("expected one spec, got %+v", got)
		}
		if got[0].Color != "azul" {
			t.Fatalf("run %d: color = %q, want %q", i, got[0].Color, "azul")
		}
	}
}

// TestExtractElementsBarePart verifies a part without amount or color
// defaults to a single unit.
func TestExtractElementsBarePart(t *testing.T) {
	got := ExtractElements("escritorio")
	if len(got) != 1 {
		t.Fatalf("expected one spec, got %+v", got)
	}
	if got[0].Name != "escritorio" || got[0].Amount != 1 || got[0].Color != "" {
		t.Fatalf("unexpected spec %+v", got[0])
	}
}

// TestExtractElementsEmpty verifies no specs come from empty input.
func TestExtractElementsEmpty(t *testing.T) {
	if got := ExtractElements("el espacio tiene"); len(got) != 0 {
		t.Fatalf("expected no specs, got %+v", got)
	}
}
