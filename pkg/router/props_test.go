package router

import (
	"fmt"
	"strings"
	"testing"

	"github.com/vango-dev/routetable/pkg/lazy"
)

func TestLayerDecode(t *testing.T) {
	reg := lazy.NewRegistry(lazy.NewStaticLoader(nil))
	table := MustNew([]Route{
		{Path: "/adminPage/notice/:id", Component: reg.Ref("NoticeDetail"), Props: true},
		{Path: "/article/:slug", Component: reg.Ref("Article")},
	}, WithLogger(quietLogger()))

	var props struct {
		ID    int    `param:"id"`
		Other string `param:"other"`
		Skip  string
	}
	props.Other = "unchanged"

	if err := table.Resolve("/adminPage/notice/42").Leaf().Decode(&props); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if props.ID != 42 {
		t.Errorf("ID = %d, want 42", props.ID)
	}
	if props.Other != "unchanged" {
		t.Errorf("Other = %q, missing keys must not touch fields", props.Other)
	}

	var article struct {
		Slug string `param:"slug"`
	}
	if err := table.Resolve("/article/hello").Leaf().Decode(&article); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if article.Slug != "" {
		t.Errorf("Slug = %q, route without props must decode nothing", article.Slug)
	}
}

func TestDecodeParams(t *testing.T) {
	type target struct {
		S string  `param:"s"`
		I int64   `param:"i"`
		U uint8   `param:"u"`
		F float64 `param:"f"`
		B bool    `param:"b"`
	}

	params := map[string]string{"s": "x", "i": "-7", "u": "200", "f": "1.5", "b": "true"}
	var got target
	if err := DecodeParams(params, &got); err != nil {
		t.Fatalf("DecodeParams: %v", err)
	}
	want := target{S: "x", I: -7, U: 200, F: 1.5, B: true}
	if got != want {
		t.Errorf("got %+v, want %+v", got, want)
	}

	tests := []struct {
		name   string
		params map[string]string
		target any
	}{
		{"not a pointer", params, target{}},
		{"pointer to non-struct", params, new(int)},
		{"bad int", map[string]string{"i": "seven"}, &target{}},
		{"uint overflow", map[string]string{"u": "300"}, &target{}},
		{"bad bool", map[string]string{"b": "maybe"}, &target{}},
		{"unsupported kind", map[string]string{"x": "1"}, &struct {
			X []string `param:"x"`
		}{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := DecodeParams(tt.params, tt.target); err == nil {
				t.Error("expected error")
			}
		})
	}

	if err := DecodeParams(params, nil); err != nil {
		t.Errorf("nil target: %v", err)
	}
}

type level int

func (l *level) UnmarshalText(b []byte) error {
	switch string(b) {
	case "low":
		*l = 1
	case "high":
		*l = 2
	default:
		return fmt.Errorf("unknown level %q", b)
	}
	return nil
}

func TestDecodeParamsExtended(t *testing.T) {
	var got struct {
		ID    *int  `param:"id,required"`
		Level level `param:"level"`
		Page  int   `param:"page"`
	}
	if err := DecodeParams(map[string]string{"id": "9", "level": "high"}, &got); err != nil {
		t.Fatalf("DecodeParams: %v", err)
	}
	if got.ID == nil || *got.ID != 9 || got.Level != 2 || got.Page != 0 {
		t.Errorf("got %+v", got)
	}

	err := DecodeParams(map[string]string{"level": "mid", "page": "x"}, &got)
	if err == nil {
		t.Fatal("expected errors")
	}
	for _, want := range []string{`param "id": missing`, `param "level"`, `param "page"`} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q missing %q", err, want)
		}
	}
}
