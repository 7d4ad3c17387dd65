package catalog

import "net/url"

// SeedCategories and SeedProducts are the demo catalog both stores start
// from. Product ids are assigned in order starting at 1.
var SeedCategories = []Category{
	{ID: 1, Name: "Clothes", Image: "https://i.imgur.com/QkIa5tT.jpeg"},
	{ID: 2, Name: "Electronics", Image: "https://i.imgur.com/ZANVnHE.jpeg"},
	{ID: 3, Name: "Furniture", Image: "https://i.imgur.com/Qphac99.jpeg"},
	{ID: 4, Name: "Shoes", Image: "https://i.imgur.com/qNOjJje.jpeg"},
	{ID: 5, Name: "Miscellaneous", Image: "https://i.imgur.com/BG8J0Fj.jpg"},
}

var SeedProducts = []Product{
	seed(1, "Classic Red Pullover Hoodie", 10, 1, "A soft red hoodie with a kangaroo pocket."),
	seed(2, "Classic Heather Gray Hoodie", 69, 1, "Heather gray cotton blend, relaxed fit."),
	seed(3, "Classic Black Baseball Cap", 58, 1, "Adjustable cap in matte black."),
	seed(4, "Sleek Wireless Headphone", 58, 2, "Over-ear headphones with noise cancellation."),
	seed(5, "Sleek Mirror Finish Phone Case", 27, 2, "Slim case with a reflective back."),
	seed(6, "Efficient 2-Slice Toaster", 48, 2, "Compact toaster with six browning levels."),
	seed(7, "Sleek Modern Laptop", 43, 2, "Lightweight laptop for everyday work."),
	seed(8, "Modern Elegance Teal Armchair", 25, 3, "Velvet armchair with wooden legs."),
	seed(9, "Elegant Solid Wood Dining Table", 67, 3, "Seats six, oak finish."),
	seed(10, "Modern Minimalist Workstation", 49, 3, "Desk setup with cable management."),
	seed(11, "Futuristic Holographic Sneakers", 84, 4, "Iridescent upper, cushioned sole."),
	seed(12, "Rainbow Glitter High Heels", 39, 4, "Sparkly heels for a night out."),
	seed(13, "Chic Summer Denim Espadrille Sandals", 33, 4, "Breathable denim with jute sole."),
	seed(14, "Vibrant Pink Classic Sneakers", 84, 4, "Everyday sneakers in bright pink."),
	seed(15, "Radiant Citrus Eau de Parfum", 73, 5, "Fresh citrus top notes."),
	seed(16, "Sleek Olive Green Hardshell Carry-On", 48, 5, "Cabin-size luggage with spinner wheels."),
}

func seed(id int, title string, price float64, categoryID int, desc string) Product {
	return Product{
		ID:          id,
		Title:       title,
		Description: desc,
		Price:       price,
		Images:      []string{"https://placehold.co/600x400?text=" + url.QueryEscape(title)},
		Category:    SeedCategories[categoryID-1],
	}
}
