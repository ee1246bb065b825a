package model

// MedicineInfo is the answer returned by the medicine-info lookup endpoint.
// Exactly one of Answer and Error is set.
type MedicineInfo struct {
	Answer string `json:"answer,omitempty"`
	Error  string `json:"error,omitempty"`
}

// NewMedicine is one entry of the new-medicines feed.
type NewMedicine struct {
	Name        string `json:"name"`
	Category    string `json:"category"`
	Description string `json:"description"`
}
