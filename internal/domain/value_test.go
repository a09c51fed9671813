package domain

import (
	"errors"
	"reflect"
	"testing"
)

func TestDecodeStoredValue(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		raw  string
		want []string
	}{
		{name: "empty", raw: "", want: nil},
		{name: "scalar", raw: "alumni", want: []string{"alumni"}},
		{name: "json array", raw: `["staff","alumni"]`, want: []string{"staff", "alumni"}},
		{name: "php string", raw: `s:6:"alumni";`, want: []string{"alumni"}},
		{name: "php array", raw: `a:2:{i:0;s:5:"staff";i:1;s:6:"alumni";}`, want: []string{"staff", "alumni"}},
		{name: "php null", raw: "N;", want: nil},
		{name: "php empty array", raw: "a:0:{}", want: []string{}},
		{name: "php int", raw: "i:42;", want: []string{"42"}},
		{name: "php bool", raw: "b:1;", want: []string{"1"}},
		{name: "php keyed out of order", raw: `a:2:{i:1;s:5:"staff";i:0;s:6:"alumni";}`, want: []string{"alumni", "staff"}},
		{name: "php null entry", raw: `a:2:{i:0;N;i:1;s:5:"staff";}`, want: []string{"staff"}},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, err := DecodeStoredValue(tc.raw)
			if err != nil {
				t.Fatalf("DecodeStoredValue(%q) err=%v", tc.raw, err)
			}
			if !reflect.DeepEqual(got.Values, tc.want) {
				t.Fatalf("DecodeStoredValue(%q)=%#v, want %#v", tc.raw, got.Values, tc.want)
			}
		})
	}
}

func TestDecodeStoredValue_Undecodable(t *testing.T) {
	t.Parallel()

	for _, raw := range []string{
		`a:1:{i:0;a:0:{}}`,
		`a:1:{i:0;O:8:"stdClass":0:{}}`,
		`O:8:"stdClass":0:{}`,
		`["unterminated"`,
	} {
		if _, err := DecodeStoredValue(raw); !errors.Is(err, ErrUndecodable) {
			t.Fatalf("DecodeStoredValue(%q) err=%v, want ErrUndecodable", raw, err)
		}
	}
}

func TestStoredValue_FirstAndEmpty(t *testing.T) {
	t.Parallel()

	v, err := DecodeStoredValue(`a:2:{i:0;s:0:"";i:1;s:5:"staff";}`)
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if v.IsEmpty() {
		t.Fatalf("expected non-empty")
	}
	if v.First() != "" {
		t.Fatalf("First()=%q, want empty first entry", v.First())
	}
	if !(StoredValue{Values: []string{""}}).IsEmpty() {
		t.Fatalf("expected [\"\"] to be empty")
	}
}

func TestEncodeStoredValue_RoundTrip(t *testing.T) {
	t.Parallel()

	for _, in := range [][]string{{"alumni"}, {"alumni", "staff"}} {
		got, err := DecodeStoredValue(EncodeStoredValue(in))
		if err != nil {
			t.Fatalf("err=%v", err)
		}
		if !reflect.DeepEqual(got.Values, in) {
			t.Fatalf("round trip=%v, want %v", got.Values, in)
		}
	}
}
