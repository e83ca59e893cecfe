// Package geo holds the static state/district/city table that drives the
// cascading selectors on the add-record form. The table is bundled with the
// binary and never changes at runtime.
package geo

type district struct {
	name   string
	cities []string
}

type state struct {
	name      string
	districts []district
}

// Declaration order is the display order.
var table = []state{
	{
		name: "Delhi",
		districts: []district{
			{name: "Central Delhi", cities: []string{
				"Pahar Ganj", "Karol Bagh", "Connaught Place", "Rajender Nagar", "Darya Ganj",
			}},
			{name: "North Delhi", cities: []string{
				"Civil Lines", "Narela", "Burari", "Khera Dabar", "Sadar Bazar",
			}},
			{name: "South Delhi", cities: []string{
				"Kalkaji", "Greater Kailash", "Saket", "Chattarpur", "Mehrauli",
			}},
			{name: "East Delhi", cities: []string{
				"Laxmi Nagar", "Preet Vihar", "Vikas Marg", "Krishna Nagar", "Mayur Vihar",
			}},
			{name: "West Delhi", cities: []string{
				"Punjabi Bagh", "Janakpuri", "Dwarka", "Rajouri Garden", "Paschim Vihar",
			}},
			{name: "North East Delhi", cities: []string{
				"Seelampur", "Gokulpuri", "Shahdara", "Bhajanpura", "Jahangirpuri",
			}},
		},
	},
	{
		name: "UttarPradesh",
		districts: []district{
			{name: "Noida", cities: []string{
				"Sector 1", "Sector 2", "Sector 15", "Sector 16", "Sector 18",
				"Sector 63", "Sector 19", "Sector 20", "Sector 27", "Sector 34",
				"Sector 50", "Sector 62", "Sector 75", "Sector 76", "Sector 78",
				"Sector 82",
			}},
			{name: "Ghaziabad", cities: []string{
				"Anand Vihar", "Ashok Park", "Bagdogra", "Bhajanpura", "Bhopura",
				"Chandpur", "Crossings Republik", "Dasna", "Dhanapur", "Duhai",
				"Ghaziabad City", "Gobindpur", "Hapur Road", "Hariharpur",
				"Harsh Vihar", "Indirapuram", "Kavi Nagar", "Kaushambi", "Kheda",
				"Laxmi Nagar", "Madhya Mohalla", "Mohan Nagar", "Nand Nagri",
				"Nehru Nagar", "Neelam Vihar", "Raj Nagar Extension",
				"Rajendra Nagar", "Sanjay Nagar", "Satyanagar", "Shastri Nagar",
				"Shiv Vihar", "Shyampur", "Siddharth Vihar", "Sushant Vihar",
				"Vaibhav Khand", "Vaishali", "Vaishali Extension", "Vasundhara",
			}},
		},
	},
}

// States returns every state name in declaration order.
func States() []string {
	out := make([]string, 0, len(table))
	for _, s := range table {
		out = append(out, s.name)
	}
	return out
}

// Districts returns the district names for a state, in declaration order.
// Unknown states yield an empty slice.
func Districts(stateName string) []string {
	s := findState(stateName)
	if s == nil {
		return []string{}
	}

	out := make([]string, 0, len(s.districts))
	for _, d := range s.districts {
		out = append(out, d.name)
	}
	return out
}

// Cities returns the city names for a district within a state, in
// declaration order. An unknown state or district yields an empty slice.
func Cities(stateName, districtName string) []string {
	d := findDistrict(stateName, districtName)
	if d == nil {
		return []string{}
	}

	out := make([]string, len(d.cities))
	copy(out, d.cities)
	return out
}

func findState(name string) *state {
	for i := range table {
		if table[i].name == name {
			return &table[i]
		}
	}
	return nil
}

func findDistrict(stateName, districtName string) *district {
	s := findState(stateName)
	if s == nil {
		return nil
	}

	for i := range s.districts {
		if s.districts[i].name == districtName {
			return &s.districts[i]
		}
	}
	return nil
}

// Selection is a user's (possibly partial) pick across the three levels.
type Selection struct {
	State    string
	District string
	City     string
}

// Options is a Selection normalized against the table plus the option lists
// its downstream selectors should offer.
type Options struct {
	Selection Selection
	States    []string
	Districts []string
	Cities    []string
}

// Resolve normalizes a selection against the table. A district that does not
// belong to the selected state is cleared, as is any city once its district
// is gone or does not list it. The returned option lists are empty for any
// selector whose upstream choice is unresolved, which is what disables the
// control in the view.
func Resolve(sel Selection) Options {
	opts := Options{
		States:    States(),
		Districts: []string{},
		Cities:    []string{},
	}

	if findState(sel.State) == nil {
		return opts
	}
	opts.Selection.State = sel.State
	opts.Districts = Districts(sel.State)

	d := findDistrict(sel.State, sel.District)
	if d == nil {
		return opts
	}
	opts.Selection.District = sel.District
	opts.Cities = Cities(sel.State, sel.District)

	for _, c := range d.cities {
		if c == sel.City {
			opts.Selection.City = sel.City
			break
		}
	}

	return opts
}

// Valid reports whether the selection names an existing state, district and
// city chain. Used at the submission boundary before transmission.
func Valid(sel Selection) bool {
	resolved := Resolve(sel)
	return resolved.Selection == sel && sel.City != ""
}
