package pagination

import "testing"

func TestNormalize(t *testing.T) {
	cases := []struct {
		in   Params
		want Params
	}{
		{Params{}, Params{Page: 1, Limit: DefaultLimit}},
		{Params{Page: -3, Limit: 500}, Params{Page: 1, Limit: MaxLimit}},
		{Params{Page: 4, Limit: 10}, Params{Page: 4, Limit: 10}},
	}
	for _, tc := range cases {
		if got := tc.in.Normalize(); got != tc.want {
			t.Fatalf("Normalize(%+v) = %+v, want %+v", tc.in, got, tc.want)
		}
	}
}

func TestOffsetAndMeta(t *testing.T) {
	p := Params{Page: 3, Limit: 20}
	if p.Offset() != 40 {
		t.Fatalf("expected offset 40, got %d", p.Offset())
	}
	meta := NewMeta(p, 41)
	if meta.TotalPages != 3 || meta.Total != 41 || meta.Page != 3 {
		t.Fatalf("unexpected meta %+v", meta)
	}
	if NewMeta(Params{}, 0).TotalPages != 0 {
		t.Fatal("expected zero pages for empty result")
	}
}
