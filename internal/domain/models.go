package domain

type Category struct {
	ID        string `db:"id" bson:"_id" json:"id"`
	Name      string `db:"name" bson:"name" json:"name"`
	CreatedAt string `db:"created_at" bson:"created_at" json:"createdAt,omitempty"`
}

type Product struct {
	ID            string `db:"id" bson:"_id" json:"_id"`
	SellerEmail   string `db:"seller_email" bson:"seller_email" json:"sellerEmail"`
	SellerName    string `db:"seller_name" bson:"seller_name" json:"sellerName,omitempty"`
	CategoryID    string `db:"category_id" bson:"category_id" json:"categoryId"`
	Name          string `db:"name" bson:"name" json:"productName"`
	Description   string `db:"description" bson:"description" json:"description,omitempty"`
	Condition     string `db:"condition" bson:"condition" json:"condition,omitempty"` // excellent | good | fair
	Location      string `db:"location" bson:"location" json:"location,omitempty"`
	Price         Price  `db:"price" bson:"price" json:"price"`
	OriginalPrice Price  `db:"original_price" bson:"original_price" json:"originalPrice,omitempty"`
	YearsOfUse    int    `db:"years_of_use" bson:"years_of_use" json:"yearsOfUse,omitempty"`
	Image         string `db:"image" bson:"image" json:"image,omitempty"`
	Advertise     bool   `db:"advertise" bson:"advertise" json:"advertise"`
	Booked        bool   `db:"booked" bson:"booked" json:"booked"`
	Paid          bool   `db:"paid" bson:"paid" json:"paid"`
	CreatedAt     string `db:"created_at" bson:"created_at" json:"createdAt,omitempty"`
}

// Available reports whether the product can still be booked.
func (p Product) Available() bool { return !p.Booked && !p.Paid }

type Booking struct {
	ID              string `db:"id" bson:"_id" json:"_id"`
	ProductID       string `db:"product_id" bson:"product_id" json:"productId"`
	ProductName     string `db:"product_name" bson:"product_name" json:"productName,omitempty"`
	BuyerEmail      string `db:"buyer_email" bson:"buyer_email" json:"buyerEmail"`
	BuyerName       string `db:"buyer_name" bson:"buyer_name" json:"buyerName,omitempty"`
	Phone           string `db:"phone" bson:"phone" json:"phone,omitempty"`
	MeetingLocation string `db:"meeting_location" bson:"meeting_location" json:"meetingLocation,omitempty"`
	ProductPrice    Price  `db:"product_price" bson:"product_price" json:"productPrice"`
	Paid            bool   `db:"paid" bson:"paid" json:"paid"`
	TransactionID   string `db:"transaction_id" bson:"transaction_id" json:"transactionId,omitempty"`
	CreatedAt       string `db:"created_at" bson:"created_at" json:"createdAt,omitempty"`
}

// Payment is append-only: one row per verified charge.
type Payment struct {
	ID               string `db:"id" bson:"_id" json:"_id"`
	BookingProductID string `db:"booking_product_id" bson:"booking_product_id" json:"bookingProductId"`
	ProductID        string `db:"product_id" bson:"product_id" json:"productId"`
	BuyerEmail       string `db:"buyer_email" bson:"buyer_email" json:"email"`
	TransactionID    string `db:"transaction_id" bson:"transaction_id" json:"transactionId"`
	Amount           int64  `db:"amount" bson:"amount" json:"amount"` // minor units
	Currency         string `db:"currency" bson:"currency" json:"currency"`
	CreatedAt        string `db:"created_at" bson:"created_at" json:"createdAt,omitempty"`
}

// WriteResult is the acknowledgment returned by every mutating endpoint.
type WriteResult struct {
	Acknowledged  bool   `json:"acknowledged"`
	InsertedID    string `json:"insertedId,omitempty"`
	MatchedCount  int64  `json:"matchedCount,omitempty"`
	ModifiedCount int64  `json:"modifiedCount,omitempty"`
	DeletedCount  int64  `json:"deletedCount,omitempty"`
}

func Inserted(id string) WriteResult { return WriteResult{Acknowledged: true, InsertedID: id} }

func Modified(n int64) WriteResult {
	return WriteResult{Acknowledged: true, MatchedCount: n, ModifiedCount: n}
}

func Deleted(n int64) WriteResult { return WriteResult{Acknowledged: true, DeletedCount: n} }

// Intent is the processor's view of a card charge.
type Intent struct {
	ID           string
	ClientSecret string
	Status       string
	Amount       int64
	Currency     string
}

// IntentSucceeded is the processor status of a captured charge.
const IntentSucceeded = "succeeded"
