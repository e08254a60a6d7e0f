package scraper

import "errors"

var (
	ErrInvalidSite = errors.New("scraper: invalid site definition")
	ErrNoCards     = errors.New("scraper: no product cards found")
	ErrClosed      = errors.New("scraper: browser closed")
)
