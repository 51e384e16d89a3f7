package jsonapi

import (
	"net/url"
	"testing"
)

func mustURL(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("parse %q: %v", raw, err)
	}
	return u
}

func TestParsePage(t *testing.T) {
	tests := []struct {
		name      string
		query     string
		wantNum   int
		wantSize  int
		wantParam string
	}{
		{name: "defaults", query: "", wantNum: 1, wantSize: 20},
		{name: "explicit", query: "page[number]=3&page[size]=5", wantNum: 3, wantSize: 5},
		{name: "clamped size", query: "page[size]=500", wantNum: 1, wantSize: 100},
		{name: "zero number", query: "page[number]=0", wantParam: "page[number]"},
		{name: "negative size", query: "page[size]=-1", wantParam: "page[size]"},
		{name: "not a number", query: "page[size]=ten", wantParam: "page[size]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, bad := ParsePage(mustURL(t, "/api/posts?"+tt.query), 20, 100)
			if tt.wantParam != "" {
				if bad == nil {
					t.Fatalf("ParsePage() error = nil, want %s", tt.wantParam)
				}
				if bad.Code != "invalid_parameter" || bad.Source.Parameter != tt.wantParam {
					t.Errorf("error = %+v", bad)
				}
				return
			}
			if bad != nil {
				t.Fatalf("ParsePage() error = %+v", bad)
			}
			if p.Number != tt.wantNum || p.Size != tt.wantSize {
				t.Errorf("page = %d/%d, want %d/%d", p.Number, p.Size, tt.wantNum, tt.wantSize)
			}
		})
	}
}

func TestPage_TakeSkip(t *testing.T) {
	p := Page{Number: 3, Size: 10}
	if p.Take() != 10 || p.Skip() != 20 {
		t.Errorf("Take/Skip = %d/%d, want 10/20", p.Take(), p.Skip())
	}
}

func TestPage_Count(t *testing.T) {
	tests := []struct {
		total, size, want int
	}{
		{0, 10, 1},
		{10, 10, 1},
		{11, 10, 2},
		{25, 10, 3},
		{5, 0, 1},
	}
	for _, tt := range tests {
		if got := (Page{Size: tt.size, Total: tt.total}).Count(); got != tt.want {
			t.Errorf("Count(total=%d, size=%d) = %d, want %d", tt.total, tt.size, got, tt.want)
		}
	}
}

func TestPage_Meta(t *testing.T) {
	m := Page{Number: 2, Size: 10, Total: 25}.Meta()
	want := Meta{"total": 25, "pageNumber": 2, "pageSize": 10, "pageCount": 3}
	for k, v := range want {
		if m[k] != v {
			t.Errorf("Meta[%s] = %v, want %v", k, m[k], v)
		}
	}
}

func TestPage_Links(t *testing.T) {
	u := mustURL(t, "/api/posts?sort=-title&page[number]=2&page[size]=10")

	t.Run("middle page", func(t *testing.T) {
		l := Page{Number: 2, Size: 10, Total: 25, URL: u}.Links()
		if l.Prev != "/api/posts?page%5Bnumber%5D=1&page%5Bsize%5D=10&sort=-title" {
			t.Errorf("Prev = %q", l.Prev)
		}
		if l.Next != "/api/posts?page%5Bnumber%5D=3&page%5Bsize%5D=10&sort=-title" {
			t.Errorf("Next = %q", l.Next)
		}
		if l.Last != l.Next {
			t.Errorf("Last = %q, want %q", l.Last, l.Next)
		}
	})

	t.Run("only page", func(t *testing.T) {
		l := Page{Number: 1, Size: 10, Total: 4, URL: u}.Links()
		if l.Prev != "" || l.Next != "" {
			t.Errorf("Prev/Next = %q/%q, want none", l.Prev, l.Next)
		}
		if l.Self != l.First || l.First != l.Last {
			t.Errorf("Self/First/Last = %q/%q/%q", l.Self, l.First, l.Last)
		}
	})

	t.Run("past the end", func(t *testing.T) {
		l := Page{Number: 9, Size: 10, Total: 25, URL: u}.Links()
		if l.Next != "" {
			t.Errorf("Next = %q, want none", l.Next)
		}
		if l.Prev != l.Last {
			t.Errorf("Prev = %q, want last page %q", l.Prev, l.Last)
		}
	})

	t.Run("no url", func(t *testing.T) {
		if l := (Page{Number: 1, Size: 10}).Links(); l != nil {
			t.Errorf("Links() = %+v, want nil", l)
		}
	})

	if u.RawQuery != "sort=-title&page[number]=2&page[size]=10" {
		t.Errorf("request URL was modified: %q", u.RawQuery)
	}
}
