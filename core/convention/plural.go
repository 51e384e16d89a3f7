package convention

import "github.com/jinzhu/inflection"

// Pluralize returns the plural of a list key, e.g. "Post" -> "Posts",
// "Category" -> "Categories". Uncountable keys such as "Equipment" get an
// "s" appended so singular and plural names never collide.
func Pluralize(key string) string {
	if key == "" {
		return ""
	}
	plural := inflection.Plural(key)
	if plural == key {
		plural += "s"
	}
	return plural
}
