// Package catalog defines the product model and the provider contract that
// every data source implements.
//
// A Provider turns a search query into a Data value (the products found, the
// URL they came from, and a count). Providers are registered in a Registry,
// whose order is the order results are reported in.
package catalog
