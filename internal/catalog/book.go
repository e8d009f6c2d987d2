package catalog

// Reviews maps a username to that user's review text.
type Reviews map[string]string

// Clone returns an independent copy. The result is never nil.
func (r Reviews) Clone() Reviews {
	out := make(Reviews, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Book is a catalog record.
type Book struct {
	Author  string  `json:"author" yaml:"author"`
	Title   string  `json:"title" yaml:"title"`
	Reviews Reviews `json:"reviews" yaml:"reviews,omitempty"`
}

// Listing is a book together with its ISBN, as returned by searches.
type Listing struct {
	ISBN string `json:"isbn"`
	Book
}

// seedEntry is one element of the YAML catalog file.
type seedEntry struct {
	ISBN    string  `yaml:"isbn"`
	Author  string  `yaml:"author"`
	Title   string  `yaml:"title"`
	Reviews Reviews `yaml:"reviews"`
}

type seedFile struct {
	Books []seedEntry `yaml:"books"`
}
