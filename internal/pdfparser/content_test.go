package pdfparser

import (
	"reflect"
	"testing"
)

func TestContentRunsPositionsText(t *testing.T) {
	stream := []byte(`
BT /F1 10 Tf 20 800 Td (Header) Tj ET
q 1 0 0 1 0 -100 cm
BT /F1 10 Tf 20 800 Td (Shifted) Tj ET
Q
BT /F1 12 Tf 14 TL 1 0 0 1 50 500 Tm (first) Tj T* (second \(x\)) Tj ET
BT 100 400 Td [(Ker) 20 (ned) -300 (word)] TJ ET
BT 10 300 Td <48656C6C6F> Tj ET
`)
	runs := ContentRuns(stream)
	want := []Run{
		{X: 20, Y: 800, Text: "Header"},
		{X: 20, Y: 700, Text: "Shifted"},
		{X: 50, Y: 500, Text: "first"},
		{X: 50, Y: 486, Text: "second (x)"},
		{X: 100, Y: 400, Text: "Kerned word"},
		{X: 10, Y: 300, Text: "Hello"},
	}
	if !reflect.DeepEqual(runs, want) {
		t.Fatalf("ContentRuns =\n%+v\nwant\n%+v", runs, want)
	}
}

func TestLiteralStringEscapes(t *testing.T) {
	runs := ContentRuns([]byte(`BT 0 0 Td (a\101\tb\\c) Tj ET`))
	if len(runs) != 1 || runs[0].Text != "aA\tb\\c" {
		t.Fatalf("unexpected runs %+v", runs)
	}
}

func TestGroupLines(t *testing.T) {
	runs := []Run{
		{X: 200, Y: 700.5, Text: "B"},
		{X: 10, Y: 700, Text: "A"},
		{X: 10, Y: 650, Text: "next"},
		{X: 300, Y: 699.2, Text: "C"},
		{X: 50, Y: 650, Text: " "},
	}
	got := GroupLines(runs, 0)
	want := []string{"A B C", "next"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("GroupLines = %v, want %v", got, want)
	}
}
