package models

// NGO is an entry in the NGO directory. ID is a stable slug of the name.
type NGO struct {
	ID    string `json:"id" db:"id"`
	Name  string `json:"name" db:"name"`
	Email string `json:"email" db:"email"`
}

// DashboardTotals are the per-category sums for one NGO
type DashboardTotals struct {
	NGO       NGO `json:"ngo"`
	Food      int `json:"food"`
	Books     int `json:"books"`
	Clothes   int `json:"clothes"`
	Medical   int `json:"medical"`
	Total     int `json:"total"`
	Donations int `json:"donations"`
}
