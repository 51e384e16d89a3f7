package schema

import (
	"testing"
	"time"
)

func TestFieldIsRequired(t *testing.T) {
	tests := []struct {
		name     string
		field    Field
		expected bool
	}{
		{
			name:     "text default optional",
			field:    F("title", Text{}),
			expected: false,
		},
		{
			name:     "text required",
			field:    F("title", Text{Validation: TextValidation{IsRequired: true}}),
			expected: true,
		},
		{
			name:     "select required",
			field:    F("status", Select{Validation: RequiredValidation{IsRequired: true}}),
			expected: true,
		},
		{
			name:     "checkbox never required",
			field:    F("isAdmin", Checkbox{}),
			expected: false,
		},
		{
			name:     "relationship never required",
			field:    F("author", Relationship{Ref: "User.posts"}),
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.field.IsRequired(); got != tt.expected {
				t.Errorf("Field.IsRequired() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestFieldIsFilterable(t *testing.T) {
	tests := []struct {
		name     string
		field    Field
		expected bool
	}{
		{"text default", F("name", Text{}), true},
		{"text disabled", F("name", Text{IsFilterable: Bool(false)}), false},
		{"password never", F("password", Password{}), false},
		{"document never", F("content", Document{}), false},
		{"relationship", F("author", Relationship{Ref: "User"}), true},
		{"checkbox", F("isAdmin", Checkbox{}), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.field.IsFilterable(); got != tt.expected {
				t.Errorf("Field.IsFilterable() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestFieldIsUnique(t *testing.T) {
	if !F("email", Text{IsIndexed: IndexUnique}).IsUnique() {
		t.Error("unique text should be unique")
	}
	if F("email", Text{IsIndexed: IndexPlain}).IsUnique() {
		t.Error("plain index should not be unique")
	}
	if !F("email", Text{IsIndexed: IndexPlain}).IsIndexed() {
		t.Error("plain index should be indexed")
	}
	if F("password", Password{}).IsUnique() {
		t.Error("password should not be unique")
	}
}

func TestFieldDefaultValue(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("checkbox defaults to its configured value", func(t *testing.T) {
		v, ok := F("isAdmin", Checkbox{}).DefaultValue(now)
		if !ok || v != false {
			t.Errorf("DefaultValue() = %v, %v, want false, true", v, ok)
		}
	})

	t.Run("text without default", func(t *testing.T) {
		if _, ok := F("name", Text{}).DefaultValue(now); ok {
			t.Error("text without default should report no default")
		}
	})

	t.Run("select default", func(t *testing.T) {
		v, ok := F("status", Select{DefaultValue: String("draft")}).DefaultValue(now)
		if !ok || v != "draft" {
			t.Errorf("DefaultValue() = %v, %v, want draft, true", v, ok)
		}
	})

	t.Run("timestamp now", func(t *testing.T) {
		v, ok := F("publishDate", Timestamp{DefaultValue: DefaultNow}).DefaultValue(now)
		if !ok || !v.(time.Time).Equal(now) {
			t.Errorf("DefaultValue() = %v, %v, want %v", v, ok, now)
		}
	})

	t.Run("timestamp fixed", func(t *testing.T) {
		v, ok := F("publishDate", Timestamp{DefaultValue: "2020-01-02T03:04:05Z"}).DefaultValue(now)
		want := time.Date(2020, 1, 2, 3, 4, 5, 0, time.UTC)
		if !ok || !v.(time.Time).Equal(want) {
			t.Errorf("DefaultValue() = %v, %v, want %v", v, ok, want)
		}
	})
}

func TestSelectValues(t *testing.T) {
	s := Select{Options: []SelectOption{{Label: "Published", Value: "published"}, {Label: "Draft", Value: "draft"}}}
	got := s.Values()
	if len(got) != 2 || got[0] != "published" || got[1] != "draft" {
		t.Errorf("Values() = %v", got)
	}
}

func TestListLabel(t *testing.T) {
	tests := []struct {
		name string
		list List
		want string
	}{
		{"name field", NewList("User", F("name", Text{})), "name"},
		{"title field", NewList("Post", F("title", Text{})), "title"},
		{"fallback id", NewList("Thing", F("isOn", Checkbox{})), "id"},
		{"explicit", NewList("Post", F("title", Text{}), F("slug", Text{})).WithUI(ListUI{LabelField: "slug"}), "slug"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.list.Label(); got != tt.want {
				t.Errorf("Label() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestWithAuth(t *testing.T) {
	sys := System{Lists: []List{NewList("User", F("email", Text{}))}}
	wrapped := WithAuth(sys, Auth{ListKey: "User", IdentityField: "email", SecretField: "password"})

	if sys.Auth != nil {
		t.Error("WithAuth must not modify its input")
	}
	if wrapped.Auth == nil || wrapped.Auth.ListKey != "User" {
		t.Errorf("Auth = %+v", wrapped.Auth)
	}
	if _, ok := wrapped.List("User"); !ok {
		t.Error("List(User) not found")
	}
}
