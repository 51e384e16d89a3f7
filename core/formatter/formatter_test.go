package formatter

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/artpar/contentgate/blog"
	"github.com/artpar/contentgate/core/convention"
	"github.com/artpar/contentgate/core/runtime"
	"github.com/artpar/contentgate/core/schema"
)

var created = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func userItems() []runtime.Item {
	return []runtime.Item{
		{"id": "u1", "name": "Ada", "email": "ada@example.com", "password": schema.PasswordState{IsSet: true},
			"isAdmin": true, "created_at": created, "updated_at": created},
		{"id": "u2", "name": "Grace", "email": nil, "password": schema.PasswordState{},
			"isAdmin": false, "created_at": created, "updated_at": created},
	}
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()

	if got := strings.Join(r.Names(), ","); got != "json,table,yaml" {
		t.Errorf("Names() = %q", got)
	}

	f, err := r.Get("")
	if err != nil || f.Name() != "table" {
		t.Errorf("default formatter = %v, %v", f, err)
	}

	if _, err := r.Get("csv"); err == nil || !strings.Contains(err.Error(), "unknown format") {
		t.Errorf("Get(csv) error = %v", err)
	}

	if err := r.Register(JSONFormatter{}); err == nil || !strings.Contains(err.Error(), "already registered") {
		t.Errorf("duplicate Register error = %v", err)
	}
}

func TestColumns(t *testing.T) {
	d := convention.Derive(blog.User())

	tests := []struct {
		name      string
		requested []string
		want      string
	}{
		{"default skips password and to-many", nil, "id,name,email,isAdmin,created_at,updated_at"},
		{"requested", []string{"email", "name"}, "email,name"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := strings.Join(Columns(d, tt.requested), ","); got != tt.want {
				t.Errorf("Columns() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTableFormatter(t *testing.T) {
	d := convention.Derive(blog.User())
	f := TableFormatter{}

	var buf bytes.Buffer
	if err := f.FormatList(&buf, d, userItems(), Options{Columns: []string{"name", "email", "isAdmin", "password"}}); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d:\n%s", len(lines), buf.String())
	}
	if fields := strings.Fields(lines[0]); strings.Join(fields, " ") != "NAME EMAIL ISADMIN PASSWORD" {
		t.Errorf("header = %q", lines[0])
	}
	if fields := strings.Fields(lines[1]); strings.Join(fields, " ") != "Ada ada@example.com yes set" {
		t.Errorf("row 1 = %q", lines[1])
	}
	if fields := strings.Fields(lines[2]); strings.Join(fields, " ") != "Grace - no -" {
		t.Errorf("row 2 = %q", lines[2])
	}

	buf.Reset()
	f.FormatList(&buf, d, userItems(), Options{Columns: []string{"name"}, NoHeader: true})
	if strings.Contains(buf.String(), "NAME") {
		t.Errorf("NoHeader output has header:\n%s", buf.String())
	}

	buf.Reset()
	f.FormatList(&buf, d, nil, Options{})
	if buf.String() != "No items found.\n" {
		t.Errorf("empty output = %q", buf.String())
	}

	buf.Reset()
	f.FormatItem(&buf, d, userItems()[0], Options{Columns: []string{"id", "created_at"}})
	if !strings.Contains(buf.String(), "created_at:  2024-05-01T12:00:00Z") {
		t.Errorf("item output = %q", buf.String())
	}

	buf.Reset()
	f.FormatItem(&buf, d, nil, Options{})
	if buf.String() != "Item not found.\n" {
		t.Errorf("missing item output = %q", buf.String())
	}
}

func TestFormatValue(t *testing.T) {
	tests := []struct {
		val      any
		maxWidth int
		want     string
	}{
		{nil, 0, "-"},
		{"hello", 0, "hello"},
		{"hello world", 8, "hello..."},
		{true, 0, "yes"},
		{float64(3), 0, "3"},
		{1.5, 0, "1.50"},
		{int64(7), 0, "7"},
		{map[string]any{"a": 1}, 0, `{"a":1}`},
		{created, 0, "2024-05-01T12:00:00Z"},
	}
	for _, tt := range tests {
		if got := formatValue(tt.val, tt.maxWidth); got != tt.want {
			t.Errorf("formatValue(%v, %d) = %q, want %q", tt.val, tt.maxWidth, got, tt.want)
		}
	}
}

func TestJSONFormatter(t *testing.T) {
	d := convention.Derive(blog.User())
	f := JSONFormatter{}

	var buf bytes.Buffer
	if err := f.FormatList(&buf, d, userItems(), Options{}); err != nil {
		t.Fatal(err)
	}
	var list struct {
		List  string           `json:"list"`
		Count int              `json:"count"`
		Items []map[string]any `json:"items"`
	}
	if err := json.Unmarshal(buf.Bytes(), &list); err != nil {
		t.Fatalf("decode: %v\n%s", err, buf.String())
	}
	if list.List != "User" || list.Count != 2 || len(list.Items) != 2 {
		t.Errorf("list = %+v", list)
	}
	if _, ok := list.Items[0]["password"]; ok {
		t.Error("password should not be rendered by default")
	}

	buf.Reset()
	if err := f.FormatItem(&buf, d, userItems()[0], Options{Columns: []string{"password"}, Compact: true}); err != nil {
		t.Fatal(err)
	}
	if got := strings.TrimSpace(buf.String()); got != `{"item":{"password":{"isSet":true}},"list":"User"}` {
		t.Errorf("compact item = %s", got)
	}

	buf.Reset()
	f.FormatItem(&buf, d, nil, Options{Compact: true})
	if got := strings.TrimSpace(buf.String()); got != `{"item":null,"list":"User"}` {
		t.Errorf("missing item = %s", got)
	}
}

func TestYAMLFormatter(t *testing.T) {
	d := convention.Derive(blog.User())
	f := YAMLFormatter{}

	var buf bytes.Buffer
	if err := f.FormatList(&buf, d, userItems(), Options{Columns: []string{"name", "password"}}); err != nil {
		t.Fatal(err)
	}
	var list struct {
		List  string           `yaml:"list"`
		Count int              `yaml:"count"`
		Items []map[string]any `yaml:"items"`
	}
	if err := yaml.Unmarshal(buf.Bytes(), &list); err != nil {
		t.Fatalf("decode: %v\n%s", err, buf.String())
	}
	if list.List != "User" || list.Count != 2 {
		t.Errorf("list = %+v", list)
	}
	pw, _ := list.Items[0]["password"].(map[string]any)
	if pw["isSet"] != true {
		t.Errorf("password = %#v", list.Items[0]["password"])
	}

	buf.Reset()
	if err := f.FormatItem(&buf, d, userItems()[1], Options{Columns: []string{"name"}}); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "name: Grace") {
		t.Errorf("item output:\n%s", buf.String())
	}
}
