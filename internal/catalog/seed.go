package catalog

// seedProducts is the built-in catalog used when every backend is down
// and no local cache exists. The storefront never boots empty.
func seedProducts() []Product {
	return []Product{
		{ID: 1, Name: "Rose", Category: "flowers", Price: 1000, Stock: 0, Image: "images/products/rose.jpg", Popularity: 95},
		{ID: 2, Name: "Sunflower Keychain", Category: "keychains", Price: 500, Stock: 0, Image: "images/products/sunflower-keychain.jpg", Popularity: 88},
		{ID: 3, Name: "Sunflower Pot", Category: "flowers", Price: 1500, Stock: 0, Image: "images/products/sunflower-pot.jpg", Popularity: 75},
		{ID: 4, Name: "Sunflower", Category: "flowers", Price: 1000, Stock: 0, Image: "images/products/sunflower.jpg", Popularity: 92},
		{ID: 5, Name: "Rose Bouquet", Category: "bouquets", Price: 4000, Stock: 0, Image: "images/products/roses-bouquet.jpg", Popularity: 98},
		{ID: 6, Name: "Tulip and Lavender Bouquet", Category: "bouquets", Price: 5000, Stock: 0, Image: "images/products/tulips-lavendar-bouquet.jpg", Popularity: 85},
		{ID: 7, Name: "Daisies Bouquet", Category: "bouquets", Price: 2000, Stock: 0, Image: "images/products/daisies-bouquet.jpg", Popularity: 80},
	}
}

// Categories lists the storefront's category filters, "all" first.
func Categories() []string {
	return []string{"all", "flowers", "bouquets", "keychains", "accessories", "stuffed-toys", "jewellery"}
}
