package mockmerchant

import (
	"github.com/brianvoe/gofakeit/v7"
	"github.com/shopspring/decimal"

	"github.com/dusk-indust/shopsplit/internal/ucp"
)

// catalogSeed keeps the generated filler text identical across runs.
const catalogSeed = 8020

// DemoStorefronts builds the three demo merchants: TechZone (electronics
// specialist), HomeGoods (home and office), and MegaMart (general retailer
// with overlapping products at different prices).
func DemoStorefronts() []*Storefront {
	faker := gofakeit.New(catalogSeed)
	d := decimal.RequireFromString

	product := func(id, name, price string, rating float64, stock int) ucp.Product {
		return ucp.Product{
			ID:          id,
			Name:        name,
			Description: faker.Sentence(8),
			Price:       d(price),
			Currency:    "USD",
			Rating:      rating,
			InStock:     stock > 0,
			Stock:       stock,
		}
	}

	techzone := New("techzone", "TechZone Electronics", d("5.99"), d("150"), []ucp.Product{
		product("tz-kb-01", "Mechanical Keyboard Pro", "79.00", 4.8, 25),
		product("tz-hub-01", "USB-C Hub 7-in-1", "45.00", 4.6, 40),
		product("tz-mon-01", "27in 4K Monitor", "329.00", 4.7, 8),
		product("tz-mouse-01", "Wireless Ergonomic Mouse", "49.00", 4.5, 60),
		product("tz-cam-01", "1080p Webcam", "59.00", 4.2, 30),
		product("tz-hd-01", "Noise Cancelling Headphones", "199.00", 4.9, 12),
	})

	homegoods := New("homegoods", "HomeGoods Office", d("4.99"), d("40"), []ucp.Product{
		product("hg-kb-01", "Quiet Mechanical Keyboard", "89.00", 4.4, 15),
		product("hg-hub-01", "USB-C Hub Compact", "34.00", 4.3, 50),
		product("hg-lamp-01", "LED Desk Lamp", "27.00", 4.6, 80),
		product("hg-chair-01", "Ergonomic Office Chair", "249.00", 4.5, 6),
		product("hg-stand-01", "Bamboo Monitor Stand", "39.00", 4.4, 35),
		product("hg-desk-01", "Standing Desk Converter", "159.00", 4.1, 10),
	})

	megamart := New("megamart", "MegaMart", d("8.99"), d("50"), []ucp.Product{
		product("mm-kb-01", "Mechanical Keyboard", "69.00", 4.2, 100),
		product("mm-hub-01", "USB-C Hub 4-port", "39.00", 4.0, 120),
		product("mm-mouse-01", "Wireless Mouse", "29.00", 3.9, 200),
		product("mm-lamp-01", "Desk Lamp", "19.00", 3.8, 150),
		product("mm-cam-01", "HD Webcam", "44.00", 4.0, 90),
		product("mm-mon-01", "24in Monitor", "139.00", 4.1, 45),
	})

	return []*Storefront{techzone, homegoods, megamart}
}
