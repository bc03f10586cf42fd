package catalog

// MaxProductImages caps the images slice on a product. Creates over the limit
// are rejected; updates append and then truncate to the cap.
const MaxProductImages = 5

type Category struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

type Product struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Price       float64 `json:"price"`
	Description string  `json:"description"`
	CategoryID  int64   `json:"categoryId"`
	// CategoryName is a denormalized copy taken at write time; it is not
	// reconciled when the category itself is renamed.
	CategoryName string   `json:"categoryName"`
	Images       []string `json:"images"`
}

// User is a login record, not an account: one row is appended per login and
// the same email may appear any number of times.
type User struct {
	ID        int64  `json:"id"`
	Email     string `json:"email"`
	Username  string `json:"username"`
	LoginTime string `json:"loginTime"`
}

// Document is the entire durable state: read and rewritten wholesale on every
// mutation, always under the store's single-writer guard.
type Document struct {
	Products   []Product  `json:"products"`
	Categories []Category `json:"categories"`
	Users      []User     `json:"users"`
}
