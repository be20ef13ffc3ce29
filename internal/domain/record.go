package domain

// Record is implemented by every flat record managed through the admin console
type Record interface {
	RecordID() int64
}

var (
	_ Record = Product{}
	_ Record = ProductType{}
	_ Record = Carrier{}
)
