// Package scraper implements catalog providers that read distributor search
// pages with a headless Chrome driven over the DevTools protocol.
//
// Each source is a declarative Site: a URL template, the selectors that
// locate product cards and fields, and how to page or load more results.
// BrowserProvider turns a Site into a catalog.Provider. All providers share
// one Browser allocator and open one tab per fetch; the tab is closed when
// the fetch context ends.
//
// Extraction is split in two: a generated script returns the raw strings of
// every card, and Site.toProducts cleans them into catalog products. The
// second half is pure and carries the per-site quirks.
package scraper
