package event

// Type identifies an e-commerce interaction kind.
type Type string

const (
	TypeView           Type = "view"
	TypeCart           Type = "cart"
	TypeRemoveFromCart Type = "remove_from_cart"
	TypePurchase       Type = "purchase"
)

// Types returns every dispatchable event type in a stable order.
func Types() []Type {
	return []Type{TypeView, TypeCart, TypeRemoveFromCart, TypePurchase}
}

// Valid reports whether t is one of the known event types.
func (t Type) Valid() bool {
	switch t {
	case TypeView, TypeCart, TypeRemoveFromCart, TypePurchase:
		return true
	}
	return false
}

// Column positions of the recorded dataset.
const (
	colEventTime = iota
	colEventType
	colProductID
	colCategoryID
	colCategoryCode
	colBrand
	colPrice
	colUserID
	colUserSession

	// FullRowLen is the number of fields in a complete row.
	FullRowLen = colUserSession + 1
)

// Record is one normalized row of recorded interaction data.
// Price is kept as text so no precision is lost on the way to the wire.
type Record struct {
	EventTime    string  `json:"event_time"`
	EventType    string  `json:"event_type"`
	ProductID    string  `json:"product_id"`
	CategoryID   string  `json:"category_id"`
	CategoryCode string  `json:"category_code"`
	Brand        string  `json:"brand"`
	Price        string  `json:"price"`
	UserID       string  `json:"user_id"`
	UserSession  *string `json:"user_session"`
}

// FromRow binds a raw row to a Record. Missing trailing fields stay empty;
// UserSession is nil unless the row carries all nine fields.
func FromRow(row []string) Record {
	at := func(i int) string {
		if i < len(row) {
			return row[i]
		}
		return ""
	}
	rec := Record{
		EventTime:    at(colEventTime),
		EventType:    at(colEventType),
		ProductID:    at(colProductID),
		CategoryID:   at(colCategoryID),
		CategoryCode: at(colCategoryCode),
		Brand:        at(colBrand),
		Price:        at(colPrice),
		UserID:       at(colUserID),
	}
	if len(row) > colUserSession {
		s := row[colUserSession]
		rec.UserSession = &s
	}
	return rec
}

// Row renders the record back into dataset column order.
func (r Record) Row() []string {
	row := []string{
		r.EventTime, r.EventType, r.ProductID, r.CategoryID,
		r.CategoryCode, r.Brand, r.Price, r.UserID,
	}
	if r.UserSession != nil {
		row = append(row, *r.UserSession)
	}
	return row
}

// Type returns the record's event type.
func (r Record) Type() Type {
	return Type(r.EventType)
}

// Dispatchable reports whether the record maps to a known endpoint. Rows
// too short to carry an event type bind an empty one and fail here.
func (r Record) Dispatchable() bool {
	return r.Type().Valid()
}

// Payload is the JSON body sent for a record. Event time and type are not
// part of it: the endpoint path already encodes the type.
type Payload struct {
	ProductID    string  `json:"product_id"`
	CategoryID   string  `json:"category_id"`
	CategoryCode string  `json:"category_code"`
	Brand        string  `json:"brand"`
	Price        string  `json:"price"`
	UserID       string  `json:"user_id"`
	UserSession  *string `json:"user_session"`
}

// Payload builds the wire body for r.
func (r Record) Payload() Payload {
	return Payload{
		ProductID:    r.ProductID,
		CategoryID:   r.CategoryID,
		CategoryCode: r.CategoryCode,
		Brand:        r.Brand,
		Price:        r.Price,
		UserID:       r.UserID,
		UserSession:  r.UserSession,
	}
}

// ToRecord rebuilds a full record from a received payload.
func (p Payload) ToRecord(eventTime string, t Type) Record {
	return Record{
		EventTime:    eventTime,
		EventType:    string(t),
		ProductID:    p.ProductID,
		CategoryID:   p.CategoryID,
		CategoryCode: p.CategoryCode,
		Brand:        p.Brand,
		Price:        p.Price,
		UserID:       p.UserID,
		UserSession:  p.UserSession,
	}
}
