package catalog

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// RawRecord is one undecoded product entry. Datasets arrive with several
// key spellings (lowercase, capitalized, and spreadsheet-export headers like
// "Shelf Quantity"), and numeric fields may be JSON numbers or strings.
type RawRecord map[string]interface{}

// Normalize converts a raw dataset entry into a canonical Product.
//
// Field fallbacks: id -> index -> name -> random token for the identity;
// stock defaults to shelfStock+warehouseStock when not given explicitly;
// category defaults to "Other".
func Normalize(raw RawRecord) Product {
	id, ok := raw.stringValue("id", "ID")
	if !ok {
		if idx, found := raw.stringValue("index", "Index"); found {
			id = idx
		} else if name, found := raw.stringValue("name", "Name"); found {
			id = name
		} else {
			id = uuid.NewString()
		}
	}

	name, _ := raw.stringValue("name", "Name")
	price := raw.numberValue(0, "price", "Price")
	shelfStock := int(raw.numberValue(0, "shelfStock", "Shelf Quantity"))
	warehouseStock := int(raw.numberValue(0, "warehouseStock", "Warehouse Quantity"))
	stock := int(raw.numberValue(float64(shelfStock+warehouseStock), "stock", "Stock"))

	category, ok := raw.stringValue("category", "Category")
	if !ok {
		category = "Other"
	}

	image, _ := raw.stringValue("image", "Picture")
	image = cleanImagePath(image)
	if image == "" && name != "" {
		image = fmt.Sprintf("images/%s.jpg", name)
	}

	return Product{
		ID:             id,
		Name:           name,
		Price:          price,
		Stock:          stock,
		ShelfStock:     shelfStock,
		WarehouseStock: warehouseStock,
		Category:       category,
		Image:          image,
		Index:          int(raw.numberValue(0, "index", "Index")),
	}
}

// cleanImagePath applies the dataset image cleanup rules: strip one pair of
// matching surrounding quotes, convert backslash separators, and drop any
// prefix before a case-insensitive "images/" segment so absolute export
// paths collapse to site-relative ones.
func cleanImagePath(image string) string {
	if image == "" {
		return ""
	}

	if len(image) >= 2 {
		first, last := image[0], image[len(image)-1]
		if first == last && (first == '"' || first == '\'') {
			image = image[1 : len(image)-1]
		}
	}

	image = strings.ReplaceAll(image, `\`, "/")

	if idx := strings.Index(strings.ToLower(image), "images/"); idx != -1 {
		image = image[idx:]
	}

	return image
}

// stringValue returns the first present, non-nil key as a string.
// Numbers are stringified the way a spreadsheet export writes them.
func (r RawRecord) stringValue(keys ...string) (string, bool) {
	for _, key := range keys {
		v, ok := r[key]
		if !ok || v == nil {
			continue
		}
		switch val := v.(type) {
		case string:
			return val, true
		case float64:
			return strconv.FormatFloat(val, 'f', -1, 64), true
		case bool:
			return strconv.FormatBool(val), true
		default:
			return fmt.Sprintf("%v", val), true
		}
	}
	return "", false
}

// numberValue returns the first present key coerced to a number, accepting
// JSON numbers and numeric strings. Unparseable values count as zero rather
// than skipping to the next key.
func (r RawRecord) numberValue(fallback float64, keys ...string) float64 {
	for _, key := range keys {
		v, ok := r[key]
		if !ok || v == nil {
			continue
		}
		switch val := v.(type) {
		case float64:
			return val
		case string:
			n, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
			if err != nil {
				return 0
			}
			return n
		default:
			return 0
		}
	}
	return fallback
}
