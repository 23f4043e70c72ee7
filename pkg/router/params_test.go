package router

import (
	"fmt"
	"reflect"
	"strings"
	"testing"
)

type upper string

func (u *upper) UnmarshalText(b []byte) error {
	if len(b) == 0 {
		return fmt.Errorf("empty")
	}
	*u = upper(strings.ToUpper(string(b)))
	return nil
}

type decoded struct {
	Name     string   `param:"name"`
	ID       int      `param:"id"`
	Big      int64    `param:"big"`
	Small    int8     `param:"small"`
	Count    uint     `param:"count"`
	Ratio    float64  `param:"ratio"`
	Enabled  bool     `param:"enabled"`
	Page     []string `param:"page"`
	Code     upper    `param:"code"`
	Untagged string
	hidden   string   `param:"hidden"`
}

func TestParamsDecode(t *testing.T) {
	tests := []struct {
		name   string
		params Params
		want   decoded
	}{
		{
			name:   "scalars",
			params: Params{"name": "vcra", "id": "123", "count": "42", "ratio": "0.5", "enabled": "true"},
			want:   decoded{Name: "vcra", ID: 123, Count: 42, Ratio: 0.5, Enabled: true},
		},
		{
			name:   "int64 max",
			params: Params{"big": "9223372036854775807"},
			want:   decoded{Big: 9223372036854775807},
		},
		{
			name:   "catch-all",
			params: Params{"page": "guides/setup/linux"},
			want:   decoded{Page: []string{"guides", "setup", "linux"}},
		},
		{
			name:   "empty catch-all",
			params: Params{"page": ""},
			want:   decoded{},
		},
		{
			name:   "text unmarshaler",
			params: Params{"code": "abc"},
			want:   decoded{Code: "ABC"},
		},
		{
			name:   "unknown and unexported ignored",
			params: Params{"hidden": "x", "Untagged": "y", "other": "z"},
			want:   decoded{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got decoded
			if err := tt.params.Decode(&got); err != nil {
				t.Fatalf("Decode() error: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Decode() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestParamsDecodeErrors(t *testing.T) {
	tests := []struct {
		name   string
		params Params
		target any
		want   string
	}{
		{"bad int", Params{"id": "abc"}, &decoded{}, `param "id"`},
		{"int8 overflow", Params{"small": "300"}, &decoded{}, `param "small"`},
		{"negative uint", Params{"count": "-1"}, &decoded{}, `param "count"`},
		{"bad bool", Params{"enabled": "maybe"}, &decoded{}, `param "enabled"`},
		{"unmarshaler error", Params{"code": ""}, &decoded{}, `param "code"`},
		{"not a pointer", Params{}, decoded{}, "pointer to a struct"},
		{"pointer to non-struct", Params{}, new(int), "pointer to a struct"},
		{"unsupported slice", Params{"ids": "1/2"}, &struct {
			IDs []int `param:"ids"`
		}{}, "unsupported slice"},
		{"unsupported type", Params{"m": "x"}, &struct {
			M map[string]string `param:"m"`
		}{}, "unsupported field type"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.params.Decode(tt.target)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Decode() error = %v, want it to mention %q", err, tt.want)
			}
		})
	}
}

func TestParamsDecodeNil(t *testing.T) {
	if err := (Params{"id": "1"}).Decode(nil); err != nil {
		t.Errorf("Decode(nil) = %v, want nil", err)
	}
}

func TestParamsDecodeEmbedded(t *testing.T) {
	type Base struct {
		ID int `param:"id"`
	}
	var byValue struct {
		Base
		Tab string `param:"tab"`
	}
	if err := (Params{"id": "7", "tab": "posts"}).Decode(&byValue); err != nil {
		t.Fatal(err)
	}
	if byValue.ID != 7 || byValue.Tab != "posts" {
		t.Errorf("got %+v", byValue)
	}

	var byPointer struct {
		*Base
	}
	if err := (Params{"id": "7"}).Decode(&byPointer); err != nil {
		t.Fatal(err)
	}
	if byPointer.Base != nil {
		t.Error("nil embedded pointer was allocated")
	}
}

func TestParamsCloneAndGet(t *testing.T) {
	var nilParams Params
	if c := nilParams.Clone(); c == nil || len(c) != 0 {
		t.Errorf("Clone(nil) = %v, want empty non-nil", c)
	}

	p := Params{"id": "7"}
	c := p.Clone()
	c["id"] = "8"
	if p.Get("id") != "7" {
		t.Error("Clone shares storage with original")
	}
	if p.Get("missing") != "" {
		t.Error("Get(missing) should be empty")
	}
}
