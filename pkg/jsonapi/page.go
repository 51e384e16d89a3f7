package jsonapi

import (
	"net/url"
	"strconv"
)

// Page is a window over a list. Numbers are 1-based; Total is filled in
// after the count query.
type Page struct {
	Number int
	Size   int
	Total  int

	// URL is the request URL the links are derived from. Links are
	// omitted when it is nil.
	URL *url.URL
}

// ParsePage reads page[number] and page[size]. Sizes above maxSize are
// clamped. Non-numeric or non-positive values are rejected.
func ParsePage(u *url.URL, defaultSize, maxSize int) (Page, *Error) {
	p := Page{Number: 1, Size: defaultSize, URL: u}
	q := u.Query()

	if v := q.Get("page[number]"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			e := ErrInvalidParameter("page[number]", "page[number] must be a positive integer")
			return p, &e
		}
		p.Number = n
	}
	if v := q.Get("page[size]"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			e := ErrInvalidParameter("page[size]", "page[size] must be a positive integer")
			return p, &e
		}
		p.Size = n
	}
	if maxSize > 0 && p.Size > maxSize {
		p.Size = maxSize
	}
	return p, nil
}

// Take is the number of items to fetch.
func (p Page) Take() int { return p.Size }

// Skip is the number of items before this page.
func (p Page) Skip() int { return (p.Number - 1) * p.Size }

// Count is the number of pages, at least 1.
func (p Page) Count() int {
	if p.Size < 1 || p.Total <= p.Size {
		return 1
	}
	return (p.Total + p.Size - 1) / p.Size
}

// Meta is merged into the collection document's meta.
func (p Page) Meta() Meta {
	return Meta{
		"total":      p.Total,
		"pageNumber": p.Number,
		"pageSize":   p.Size,
		"pageCount":  p.Count(),
	}
}

// Links returns self, first and last links plus prev and next where they
// exist. Other query parameters are preserved.
func (p Page) Links() *Links {
	if p.URL == nil {
		return nil
	}
	last := p.Count()
	l := &Links{
		Self:  p.at(p.Number),
		First: p.at(1),
		Last:  p.at(last),
	}
	if p.Number > 1 {
		l.Prev = p.at(min(p.Number-1, last))
	}
	if p.Number < last {
		l.Next = p.at(p.Number + 1)
	}
	return l
}

func (p Page) at(number int) string {
	u := *p.URL
	q := u.Query()
	q.Set("page[number]", strconv.Itoa(number))
	q.Set("page[size]", strconv.Itoa(p.Size))
	u.RawQuery = q.Encode()
	return u.RequestURI()
}
