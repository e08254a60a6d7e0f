package scraper

import (
	"regexp"
	"time"
)

var imlssManufacturer = regexp.MustCompile(`Mfg:[\s\x{00a0}]*([^\n]+)`)

// DefaultSites returns the built-in distributor definitions in aggregate
// order.
func DefaultSites() []Site {
	return []Site{
		{
			Key:          "doorControls",
			Name:         "Door Controls USA",
			URL:          "https://www.doorcontrolsusa.com/products?page={page}&query={query}",
			Pages:        3,
			LastSelector: `a[rel="next"][aria-disabled="true"]`,
			NavTimeout:   100 * time.Second,
			WaitSelector: ".search-hit-item",
			WaitVisible:  true,
			CardSelector: ".search-hit-item",
			Fields: Fields{
				Name:         Field{Selector: ".search-hit-item__title"},
				SKU:          Field{Selector: ".search-hit-item__sku"},
				Price:        Field{Value: "Log in to view pricing"},
				Image:        Field{Selector: ".search-hit-item__image", Mode: ModeProp, Attr: "src"},
				Link:         Field{Selector: ".search-hit-item__link", Mode: ModeAttr, Attr: "href", Prefix: "https://www.doorcontrolsusa.com"},
				Manufacturer: Field{Selector: ".search-hit-item__brand"},
			},
		},
		{
			Key:          "sdepot",
			Name:         "SDEPOT",
			URL:          "https://sdepot.com/search.php?page={page}&section=product&search_query={query}",
			NavTimeout:   30 * time.Second,
			WaitSelector: ".productCards.productCards--grid",
			CardSelector: ".productCard.productCard--grid",
			Fields: Fields{
				Name:         Field{Selector: ".card-title a"},
				SKU:          Field{Selector: ".card-text.card-text--sku", TrimPrefix: "SKU:"},
				Price:        Field{Selector: ".card-text.card-text--price", Default: "Log in for pricing"},
				Image:        Field{Selector: ".card-image", Mode: ModeProp, Attr: "src"},
				Link:         Field{Selector: ".card-title a", Mode: ModeProp, Attr: "href"},
				Manufacturer: Field{Selector: ".card-text.card-text--brand"},
			},
		},
		{
			Key:          "silmar",
			Name:         "Silmar Electronics",
			URL:          "https://www.silmarelectronics.com/advanced_search_result.php?search_in_description=1&q={query}&keywords={query}&page={page}",
			NavTimeout:   60 * time.Second,
			WaitSelector: `table[width="100%"] .item_td`,
			CardSelector: `table[width="100%"] .item_td`,
			Fields: Fields{
				Name:         Field{Selector: ".pr_name", Split: "#", Part: 0},
				SKU:          Field{Selector: ".pr_name", Split: "#", Part: 1},
				Price:        Field{Selector: ".pr_price", Default: "Log In To View Prices"},
				Image:        Field{Selector: `img[loading="lazy"]`, Mode: ModeProp, Attr: "src"},
				Link:         Field{Selector: ".pr_name", Mode: ModeProp, Attr: "href"},
				Manufacturer: Field{Selector: "tr:nth-child(3) a"},
			},
		},
		{
			Key:          "adiGlobal",
			Name:         "ADI Global",
			ProductSite:  "ADI Global Distribution",
			URL:          "https://www.adiglobaldistribution.us/search?q={query}",
			NavTimeout:   60 * time.Second,
			WaitSelector: ".GridItemStyle-sc-1uambol",
			LoadMore:     &LoadMore{ButtonText: "Show More Products", MaxClicks: 10, Pause: 2 * time.Second},
			CardSelector: ".GridItemStyle-sc-1uambol",
			RequireName:  true,
			Fields: Fields{
				Name:         Field{Selector: `[data-test-selector="productDescriptionLink"] span`},
				SKU:          Field{Selector: `[data-test-selector="plpPartNumberGrid"] span:first-child`},
				Price:        Field{Value: "Sign In for Dealer Pricing"},
				Image:        Field{Selector: "img[src]", Mode: ModeProp, Attr: "src"},
				Link:         Field{Selector: `[data-test-selector="productImage"]`, Mode: ModeAttr, Attr: "href", Prefix: "https://www.adiglobaldistribution.us"},
				Manufacturer: Field{Selector: `[data-test-selector="brandLink"] span`},
			},
		},
		{
			Key:          "imlss",
			Name:         "IMLSS",
			URL:          "https://shop.imlss.com/item_view/shop/?_s={query}&_ipp=20&item_page={page}",
			Pages:        5,
			NextSelector: `a[href*="item_page="]`,
			NavTimeout:   60 * time.Second,
			WaitSelector: ".item-list",
			CardSelector: ".item-list",
			Fields: Fields{
				Name:         Field{Selector: ".item-desc-link", Mode: ModeFirstText},
				SKU:          Field{Selector: ".item-desc-link b"},
				Price:        Field{Value: "Log in for pricing"},
				Image:        Field{Selector: "img[src]", Mode: ModeProp, Attr: "src"},
				Link:         Field{Selector: ".search_img_link[href]", Mode: ModeAttr, Attr: "href", Prefix: "https://shop.imlss.com"},
				Availability: Field{Selector: ".cv_item-available b", Prefix: "Available: "},
				Manufacturer: Field{Self: true, Pattern: imlssManufacturer},
			},
		},
		{
			Key:          "wesco",
			Name:         "Wesco",
			ProductSite:  "WESCO",
			URL:          "https://connect.wesco.com/en/us/search?q={query}&page={page}",
			Pages:        5,
			NextSelector: `button[aria-label="Next page"]:not([disabled])`,
			NavTimeout:   120 * time.Second,
			WaitSelector: ".products-card",
			WaitVisible:  true,
			WaitTimeout:  30 * time.Second,
			CardSelector: ".products-card",
			Fields: Fields{
				Name:         Field{Selector: `[data-testid^="product-name-"]`},
				SKU:          Field{Selector: `[data-testid^="Part#-"]`, TrimPrefix: "Part #:"},
				Price:        Field{Value: "Sign In For Price"},
				Image:        Field{Selector: "img[src]", Mode: ModeProp, Attr: "src", Exclude: "noproductimage.png"},
				Link:         Field{Selector: ".details-link[href]", Mode: ModeAttr, Attr: "href", Prefix: "https://connect.wesco.com"},
				Description:  Field{Selector: `[data-testid^="MFR#-"]`, TrimPrefix: "MFR #:", Prefix: "MFR #: "},
				Manufacturer: Field{Selector: `[data-testid^="product-manufacturer-"]`},
			},
		},
		{
			Key:                 "banner",
			Name:                "Banner Solutions",
			URL:                 "https://www.bannersolutions.com/s/{query}",
			NavTimeout:          60 * time.Second,
			WaitSelector:        ".MuiGrid-container",
			WaitTimeout:         15 * time.Second,
			Scroll:              &Scroll{MaxCards: 50, MaxIdle: 10, Pause: 3 * time.Second},
			CardSelector:        ".searchproductcss_card",
			NameFromDescription: 50,
			Fields: Fields{
				Name:         Field{Selector: ".searchproductcss_typo:not(.searchproductcss_typosku)"},
				SKU:          Field{Selector: ".searchproductcss_typosku"},
				Price:        Field{Selector: ".searchproductcss_typoList:last-child", Default: "Price not available"},
				Image:        Field{Selector: "img.searchproductcss_Style", Mode: ModeProp, Attr: "src"},
				Link:         Field{Selector: "a[href]", Mode: ModeProp, Attr: "href"},
				Availability: Field{Selector: ".searchproductcss_typostock > div"},
				Description:  Field{Selector: ".searchproductcss_typodesc > div"},
				Manufacturer: Field{Selector: ".searchproductcss_typo > div"},
			},
		},
		{
			Key:        "seclock",
			Name:       "Seclock",
			URL:        "https://www.seclock.com/",
			NavTimeout: 60 * time.Second,
			Form: &SearchForm{
				Open:    `button.hidden.at1024\:flex`,
				Input:   `input[data-dialog-focus="true"]`,
				Timeout: 15 * time.Second,
			},
			WaitSelector: "ul.mb-16",
			WaitTimeout:  15 * time.Second,
			Settle:       3 * time.Second,
			CardSelector: "ul.mb-16 > li",
			Fields: Fields{
				Name:         Field{Selector: "span.block.text-left.ml-6.w-80 span.type-primary", Index: 1},
				SKU:          Field{Selector: "span.block.text-left.ml-6.w-80 span.type-primary.text-lg"},
				Price:        Field{Value: "Log in for pricing"},
				Image:        Field{Selector: "img[src]", Mode: ModeProp, Attr: "src"},
				Link:         Field{Selector: "a[href]", Mode: ModeProp, Attr: "href"},
				Manufacturer: Field{Selector: "span.block.text-left.ml-6.w-80 span.type-secondary"},
			},
		},
	}
}
