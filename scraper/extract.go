package scraper

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/jonwraymond/productsearch/catalog"
)

// card holds the raw strings read from one product card, keyed by field.
type card map[string]string

type fieldSpec struct {
	Selector string `json:"sel,omitempty"`
	Self     bool   `json:"self,omitempty"`
	Index    int    `json:"index,omitempty"`
	Mode     Mode   `json:"mode,omitempty"`
	Attr     string `json:"attr,omitempty"`
}

type extractSpec struct {
	Cards  string               `json:"cards"`
	Fields map[string]fieldSpec `json:"fields"`
}

func (s Site) extractSpec() extractSpec {
	spec := extractSpec{Cards: s.CardSelector, Fields: map[string]fieldSpec{}}
	for name, f := range s.Fields.named() {
		if !f.extracted() {
			continue
		}
		mode := f.Mode
		if mode == "" {
			mode = ModeText
		}
		spec.Fields[name] = fieldSpec{
			Selector: f.Selector,
			Self:     f.Self,
			Index:    f.Index,
			Mode:     mode,
			Attr:     f.Attr,
		}
	}
	return spec
}

const extractTemplate = `(() => {
  const spec = %s;
  const read = (card, f) => {
    let el = card;
    if (!f.self) {
      el = card.querySelectorAll(f.sel)[f.index || 0];
    }
    if (!el) return "";
    switch (f.mode) {
    case "attr":
      return el.getAttribute(f.attr) || "";
    case "prop":
      return el[f.attr] == null ? "" : String(el[f.attr]);
    case "firstText": {
      const node = Array.from(el.childNodes)
        .find(n => n.nodeType === Node.TEXT_NODE && n.textContent.trim() !== "");
      return node ? node.textContent : "";
    }
    default:
      return el.textContent || "";
    }
  };
  return Array.from(document.querySelectorAll(spec.cards)).map(card => {
    const out = {};
    for (const [name, f] of Object.entries(spec.fields)) {
      out[name] = read(card, f);
    }
    return out;
  });
})()`

// extractionScript returns a script evaluating to an array of cards.
func (s Site) extractionScript() (string, error) {
	raw, err := json.Marshal(s.extractSpec())
	if err != nil {
		return "", fmt.Errorf("scraper: encode extraction spec: %w", err)
	}
	return fmt.Sprintf(extractTemplate, raw), nil
}

// toProducts cleans raw cards into catalog products.
func (s Site) toProducts(cards []card) []catalog.Product {
	products := make([]catalog.Product, 0, len(cards))
	fs := s.Fields
	for _, c := range cards {
		f := catalog.ProductFields{
			Name:         fs.Name.clean(c["name"]),
			SKU:          fs.SKU.clean(c["sku"]),
			Price:        fs.Price.clean(c["price"]),
			Image:        fs.Image.clean(c["image"]),
			Link:         fs.Link.clean(c["link"]),
			Site:         s.productSite(),
			Availability: fs.Availability.clean(c["availability"]),
			Description:  fs.Description.clean(c["description"]),
			Manufacturer: fs.Manufacturer.clean(c["manufacturer"]),
		}
		if s.NameFromDescription > 0 && (f.Name == "" || f.Name == f.Manufacturer) {
			f.Name = truncate(f.Description, s.NameFromDescription)
		}
		if s.RequireName && f.Name == "" {
			continue
		}
		products = append(products, catalog.NewProduct(f))
	}
	return products
}

func truncate(s string, n int) string {
	if s == "" {
		return ""
	}
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return strings.TrimSpace(string([]rune(s)[:n])) + "..."
}

// selectorExists returns a script reporting whether sel matches.
func selectorExists(sel string) string {
	return fmt.Sprintf(`document.querySelector(%s) !== null`, jsString(sel))
}

// countCards returns a script counting matches of sel.
func countCards(sel string) string {
	return fmt.Sprintf(`document.querySelectorAll(%s).length`, jsString(sel))
}

// clickButtonByText returns a script clicking the first enabled button whose
// label contains text. It evaluates to whether a button was clicked.
func clickButtonByText(text string) string {
	return fmt.Sprintf(`(() => {
  const b = Array.from(document.querySelectorAll("button"))
    .find(b => !b.disabled && b.textContent.includes(%s));
  if (!b) return false;
  b.click();
  return true;
})()`, jsString(text))
}

const scrollToBottom = `window.scrollTo(0, document.body.scrollHeight)`

func jsString(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}
