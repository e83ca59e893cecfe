package types

type NavbarData struct {
	IsAuthenticated bool
	PhoneNumber     string
}

type NavbarDataSetter interface {
	SetNavbarData(data NavbarData)
}

type BasePageData struct {
	Title  string
	Navbar NavbarData
}

func (d *BasePageData) SetNavbarData(data NavbarData) {
	d.Navbar = data
}

type LoginPageData struct {
	BasePageData
	PhoneNumber  string
	OtpRequested bool
	Notice       string
	Error        string
}

// RecordForm mirrors the add-record form fields. All fields are required;
// the file input travels beside it in the multipart body.
type RecordForm struct {
	ID          string `form:"id"`
	Name        string `form:"name"`
	Year        string `form:"year"`
	State       string `form:"state"`
	District    string `form:"district"`
	City        string `form:"city"`
	Address     string `form:"address"`
	PhoneNumber string `form:"phone_number"`
}

type AddPageData struct {
	BasePageData
	Form        RecordForm
	States      []string
	Districts   []string
	Cities      []string
	FieldErrors map[string]string
	Notice      string
	Error       string
}

// DistrictDisabled reports whether the district selector should be
// non-interactive, which is the case until a state narrows its options.
func (d AddPageData) DistrictDisabled() bool {
	return len(d.Districts) == 0
}

func (d AddPageData) CityDisabled() bool {
	return len(d.Cities) == 0
}

// ViewedRecord is the fetched projection formatted for display.
type ViewedRecord struct {
	ID          string
	Year        string
	District    string
	City        string
	Address     string
	Name        string
	PhoneNumber string
	UploadDate  string
	LastViewed  string
	FileURL     string
}

type ViewPageData struct {
	BasePageData
	ID     string
	Year   string
	Record *ViewedRecord
	Notice string
	Error  string
}
