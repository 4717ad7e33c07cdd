package catalog

// PropertyType is the category of a listed property.
type PropertyType string

const (
	TypeHouse     PropertyType = "HOUSE"
	TypeApartment PropertyType = "APARTMENT"
	TypeVilla     PropertyType = "VILLA"
	TypePlot      PropertyType = "PLOT"
)

// ForType is the listing intent.
type ForType string

const (
	ForSale ForType = "SALE"
	ForRent ForType = "RENT"
)

// AreaUnit is the unit of the area magnitude.
type AreaUnit string

const (
	UnitSqft AreaUnit = "sqft"
	UnitAcre AreaUnit = "acre"
)

// Media is one image attached to a property, retrievable via its URL.
type Media struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// PropertySummary is the subset of Property returned by search.
// Bedrooms and Area are pointers because they are absent for some
// categories (bedrooms never apply to PLOT).
type PropertySummary struct {
	ID           string       `json:"id"`
	Title        string       `json:"title"`
	Address      string       `json:"address"`
	City         string       `json:"city"`
	Price        float64      `json:"price"`
	ForType      ForType      `json:"forType"`
	PropertyType PropertyType `json:"propertyType"`
	Bedrooms     *int         `json:"bedrooms"`
	Area         *float64     `json:"area"`
	AreaUnit     AreaUnit     `json:"areaUnit"`
	Phone        string       `json:"phone"`
	Files        []Media      `json:"files"`
}

// Property is the full catalog record, read-only from the client's side.
type Property struct {
	ID           string       `json:"id"`
	Title        string       `json:"title"`
	Description  string       `json:"description"`
	Address      string       `json:"address"`
	City         string       `json:"city"`
	State        string       `json:"state"`
	Pincode      string       `json:"pincode"`
	Price        float64      `json:"price"`
	PropertyType PropertyType `json:"propertyType"`
	ForType      ForType      `json:"forType"`
	Bedrooms     *int         `json:"bedrooms"`
	Area         *float64     `json:"area"`
	AreaUnit     AreaUnit     `json:"areaUnit"`
	Phone        string       `json:"phone"`
	Files        []Media      `json:"files"`
}

// CreateRequest is the payload for creating a listing. Optional numerics are
// pointers so "not specified" is omitted from the JSON entirely rather than
// sent as zero.
type CreateRequest struct {
	Title        string       `json:"title"`
	Description  string       `json:"description"`
	Address      string       `json:"address"`
	City         string       `json:"city"`
	State        string       `json:"state"`
	Pincode      string       `json:"pincode"`
	Price        float64      `json:"price" validate:"required,gt=0"`
	PropertyType PropertyType `json:"propertyType" validate:"oneof=HOUSE APARTMENT VILLA PLOT"`
	ForType      ForType      `json:"forType" validate:"oneof=SALE RENT"`
	Bedrooms     *int         `json:"bedrooms,omitempty" validate:"omitempty,gte=0"`
	Area         *float64     `json:"area,omitempty" validate:"omitempty,gt=0"`
	AreaUnit     AreaUnit     `json:"areaUnit" validate:"oneof=sqft acre"`
	Phone        string       `json:"phone,omitempty"`
	UserID       string       `json:"userId"`
}

// MediaFile is one staged image for upload: a filename plus its content.
// Encoding to the wire format is the client's concern, not the caller's.
type MediaFile struct {
	Name    string
	Content []byte
}

// PropertyRef is a property reference attached to an assistant chat reply.
type PropertyRef struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// ChatReply is the assistant's answer to one chat message.
type ChatReply struct {
	Response   string        `json:"response"`
	Properties []PropertyRef `json:"properties"`
}

// User identifies an authenticated account holder.
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}
