package scraper

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonwraymond/productsearch/catalog"
)

func TestDefaultSites(t *testing.T) {
	sites := DefaultSites()

	names := make([]string, 0, len(sites))
	for _, s := range sites {
		require.NoError(t, s.Validate(), s.Key)
		names = append(names, s.Name)
	}
	assert.Equal(t, []string{
		"Door Controls USA", "SDEPOT", "Silmar Electronics", "ADI Global",
		"IMLSS", "Wesco", "Banner Solutions", "Seclock",
	}, names)

	keys := map[string]bool{}
	for _, s := range sites[:4] {
		keys[s.Key] = true
	}
	for _, k := range []string{"doorControls", "sdepot", "silmar", "adiGlobal"} {
		assert.True(t, keys[k], "stream key %s", k)
	}
}

func TestDefaultSites_Register(t *testing.T) {
	b := NewBrowser(BrowserConfig{Headless: true}, nil)
	t.Cleanup(func() { _ = b.Close() })

	reg, err := catalog.NewRegistry()
	require.NoError(t, err)
	require.NoError(t, b.Register(reg, DefaultSites()...))
	assert.Equal(t, 8, reg.Len())

	sub, err := reg.Subset("adiGlobal", "doorControls")
	require.NoError(t, err)
	require.Len(t, sub, 2)
	assert.Equal(t, "ADI Global", sub[0].Name())
}

func TestDefaultSites_IMLSSManufacturer(t *testing.T) {
	var imlss Site
	for _, s := range DefaultSites() {
		if s.Key == "imlss" {
			imlss = s
		}
	}
	require.NotEmpty(t, imlss.Key)

	products := imlss.toProducts([]card{{
		"name":         "Panic bar ",
		"sku":          "PB-1",
		"availability": "12",
		"manufacturer": "Panic bar PB-1\nMfg: Von Duprin\nAvailable: 12",
	}})

	require.Len(t, products, 1)
	assert.Equal(t, "Von Duprin", products[0].Manufacturer)
	assert.Equal(t, "Available: 12", products[0].Availability)
	assert.Equal(t, "Log in for pricing", products[0].Price)
}
