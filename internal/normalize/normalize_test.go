package normalize

import (
	"math"
	"reflect"
	"strings"
	"testing"
	"time"
)

func TestValue_Nil(t *testing.T) {
	t.Parallel()
	if got := Value(nil); got != nil {
		t.Fatalf("expected nil, got %v", got)
	}
}

func TestValue_Passthrough(t *testing.T) {
	t.Parallel()
	if got := Value(true); got != true {
		t.Fatalf("expected true, got %v", got)
	}
	if got := Value("hello"); got != "hello" {
		t.Fatalf("expected hello, got %v", got)
	}
	if got := Value(int64(42)); got != int64(42) {
		t.Fatalf("expected 42, got %v", got)
	}
	if got := Value(3.14); got != 3.14 {
		t.Fatalf("expected 3.14, got %v", got)
	}
}

func TestValue_DecimalTextStaysText(t *testing.T) {
	t.Parallel()
	// Both drivers deliver DECIMAL as text; it must never become a float.
	if got := Value([]byte("12.50")); got != "12.50" {
		t.Fatalf("expected string 12.50, got %v (%T)", got, got)
	}
	if got := Value("99999999999999999999.99"); got != "99999999999999999999.99" {
		t.Fatalf("expected text preserved, got %v", got)
	}
}

func TestValue_Time(t *testing.T) {
	t.Parallel()
	ts := time.Date(2024, 3, 1, 12, 30, 45, 123000000, time.UTC)
	got := Value(ts)
	if got != "2024-03-01T12:30:45.123Z" {
		t.Fatalf("expected RFC3339 string, got %v", got)
	}
}

func TestValue_Duration(t *testing.T) {
	t.Parallel()
	if got := Value(90 * time.Second); got != "PT1M30S" {
		t.Fatalf("expected PT1M30S, got %v", got)
	}
	if got := Value(3*time.Hour + 4*time.Second); got != "PT3H4S" {
		t.Fatalf("expected PT3H4S, got %v", got)
	}
	if got := Value(1500 * time.Millisecond); got != "PT1.5S" {
		t.Fatalf("expected PT1.5S, got %v", got)
	}
	if got := Value(time.Duration(0)); got != "PT0S" {
		t.Fatalf("expected PT0S, got %v", got)
	}
	if got := Value(-5 * time.Second); got != "-PT5S" {
		t.Fatalf("expected -PT5S, got %v", got)
	}
}

func TestValue_BinaryToBase64(t *testing.T) {
	t.Parallel()
	got := Value([]byte{0xff, 0xfe, 0x01})
	s, ok := got.(string)
	if !ok || !strings.HasPrefix(s, Base64Prefix) {
		t.Fatalf("expected base64-prefixed string, got %v (%T)", got, got)
	}
	if s != Base64Prefix+"//4B" {
		t.Fatalf("unexpected encoding: %q", s)
	}
}

func TestValue_UTF8BytesToString(t *testing.T) {
	t.Parallel()
	if got := Value([]byte("héllo")); got != "héllo" {
		t.Fatalf("expected héllo, got %v", got)
	}
}

func TestValue_NonFiniteFloats(t *testing.T) {
	t.Parallel()
	if got := Value(math.NaN()); got != "NaN" {
		t.Fatalf("expected NaN string, got %v", got)
	}
	if got := Value(math.Inf(1)); got != "Infinity" {
		t.Fatalf("expected Infinity string, got %v", got)
	}
	if got := Value(math.Inf(-1)); got != "-Infinity" {
		t.Fatalf("expected -Infinity string, got %v", got)
	}
	if got := Value(float32(1.5)); got != 1.5 {
		t.Fatalf("expected finite float32 to stay numeric, got %v", got)
	}
}

func TestValue_Recursion(t *testing.T) {
	t.Parallel()
	in := map[string]any{
		"raw":  []byte("text"),
		"list": []any{[]byte{0xff}, nil, int64(7)},
	}
	got := Value(in)
	want := map[string]any{
		"raw":  "text",
		"list": []any{Base64Prefix + "/w==", nil, int64(7)},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestValue_UnknownTypeFormatted(t *testing.T) {
	t.Parallel()
	type point struct{ X, Y int }
	got := Value(point{1, 2})
	if got != "{1 2}" {
		t.Fatalf("expected formatted fallback, got %v", got)
	}
}

func TestRow(t *testing.T) {
	t.Parallel()
	got := Row([]string{"id", "name"}, []any{int64(1), []byte("ada")})
	want := map[string]any{"id": int64(1), "name": "ada"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}
