package scraper

import (
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Mode selects what a Field reads from its element.
type Mode string

const (
	// ModeText reads textContent.
	ModeText Mode = "text"
	// ModeFirstText reads the first non-blank direct text node.
	ModeFirstText Mode = "firstText"
	// ModeAttr reads an attribute as written in the markup.
	ModeAttr Mode = "attr"
	// ModeProp reads a DOM property, e.g. the resolved href or src.
	ModeProp Mode = "prop"
)

// Field describes how one product field is read from a card and cleaned.
type Field struct {
	// Selector is matched inside the card. Empty with Self unset means the
	// field is not read from the page.
	Selector string
	// Self reads from the card element itself.
	Self bool
	// Index picks the n-th match of Selector.
	Index int
	Mode  Mode
	Attr  string

	// Value is used verbatim and skips extraction.
	Value string
	// Pattern keeps the first submatch of the raw text.
	Pattern *regexp.Regexp
	// Split and Part keep one piece of the text.
	Split string
	Part  int
	// TrimPrefix is removed from the cleaned text.
	TrimPrefix string
	// Exclude blanks values containing it, e.g. placeholder images.
	Exclude string
	// Prefix is prepended to non-empty values, e.g. a site origin for
	// relative links.
	Prefix string
	// Default replaces an empty value.
	Default string
}

func (f Field) extracted() bool {
	return f.Value == "" && (f.Selector != "" || f.Self)
}

// clean turns the raw string read from the page into the field value.
func (f Field) clean(raw string) string {
	if f.Value != "" {
		return f.Value
	}
	v := raw
	if f.Pattern != nil {
		m := f.Pattern.FindStringSubmatch(v)
		if len(m) < 2 {
			v = ""
		} else {
			v = m[1]
		}
	}
	if f.Split != "" {
		parts := strings.Split(v, f.Split)
		if f.Part < len(parts) {
			v = parts[f.Part]
		} else {
			v = ""
		}
	}
	v = strings.Join(strings.Fields(v), " ")
	if f.TrimPrefix != "" {
		v = strings.TrimSpace(strings.TrimPrefix(v, f.TrimPrefix))
	}
	if f.Exclude != "" && strings.Contains(v, f.Exclude) {
		v = ""
	}
	if v == "" {
		return f.Default
	}
	return f.Prefix + v
}

// Fields lists the product fields of a card.
type Fields struct {
	Name         Field
	SKU          Field
	Price        Field
	Image        Field
	Link         Field
	Availability Field
	Description  Field
	Manufacturer Field
}

func (fs Fields) named() map[string]Field {
	return map[string]Field{
		"name":         fs.Name,
		"sku":          fs.SKU,
		"price":        fs.Price,
		"image":        fs.Image,
		"link":         fs.Link,
		"availability": fs.Availability,
		"description":  fs.Description,
		"manufacturer": fs.Manufacturer,
	}
}

// SearchForm drives a site whose search is only reachable through an
// on-page search box.
type SearchForm struct {
	// Open is clicked to reveal the input.
	Open string
	// Input receives the query as keystrokes.
	Input   string
	Timeout time.Duration
}

// LoadMore clicks a button, found by its label, to append results.
type LoadMore struct {
	ButtonText string
	MaxClicks  int
	Pause      time.Duration
}

// Scroll loads results by scrolling to the bottom of the page until enough
// cards exist or scrolling stops producing new ones.
type Scroll struct {
	MaxCards int
	MaxIdle  int
	Pause    time.Duration
}

// Site is a declarative scraper definition.
type Site struct {
	// Key tags streamed events.
	Key string
	// Name is the display name used in aggregates.
	Name string
	// ProductSite is written to each product; defaults to Name.
	ProductSite string

	// URL may contain {query} and {page}.
	URL string
	// Pages is the maximum number of result pages read. Zero means one.
	Pages int
	// NextSelector, when set, must match for paging to continue.
	NextSelector string
	// LastSelector, when set, stops paging when it matches.
	LastSelector string

	NavTimeout time.Duration

	Form *SearchForm

	WaitSelector string
	WaitVisible  bool
	WaitTimeout  time.Duration
	// Settle is slept after the wait selector appears.
	Settle time.Duration

	LoadMore *LoadMore
	Scroll   *Scroll

	CardSelector string
	Fields       Fields

	// RequireName drops cards without a name.
	RequireName bool
	// NameFromDescription, when positive, derives a missing name, or one
	// equal to the manufacturer, from that many runes of the description.
	NameFromDescription int
}

// Validate checks that the definition can be scraped.
func (s Site) Validate() error {
	switch {
	case strings.TrimSpace(s.Key) == "":
		return fmt.Errorf("%w: key is required", ErrInvalidSite)
	case strings.TrimSpace(s.Name) == "":
		return fmt.Errorf("%w: %s: name is required", ErrInvalidSite, s.Key)
	case s.URL == "":
		return fmt.Errorf("%w: %s: url is required", ErrInvalidSite, s.Key)
	case s.CardSelector == "":
		return fmt.Errorf("%w: %s: card selector is required", ErrInvalidSite, s.Key)
	case s.Pages < 0:
		return fmt.Errorf("%w: %s: pages cannot be negative", ErrInvalidSite, s.Key)
	case s.Form != nil && !strings.Contains(s.URL, "{query}") && s.Form.Input == "":
		return fmt.Errorf("%w: %s: search form needs an input selector", ErrInvalidSite, s.Key)
	case s.Form == nil && !strings.Contains(s.URL, "{query}"):
		return fmt.Errorf("%w: %s: url has no {query} placeholder", ErrInvalidSite, s.Key)
	}
	if _, err := url.Parse(s.BuildURL("probe", 1)); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidSite, s.Key, err)
	}
	return nil
}

// BuildURL expands the URL template for query and page. The query is
// escaped as a URI component, so spaces become %20.
func (s Site) BuildURL(query string, page int) string {
	escaped := strings.ReplaceAll(url.QueryEscape(query), "+", "%20")
	return strings.NewReplacer(
		"{query}", escaped,
		"{page}", strconv.Itoa(page),
	).Replace(s.URL)
}

func (s Site) pages() int {
	if s.Pages <= 0 || s.Form != nil {
		return 1
	}
	return s.Pages
}

func (s Site) productSite() string {
	if s.ProductSite != "" {
		return s.ProductSite
	}
	return s.Name
}
