package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/robibiruk/meditrack/internal/logging"
	"github.com/robibiruk/meditrack/internal/model"
)

// medicineDB maps lowercased medicine names to a one-line description.
var medicineDB = map[string]string{
	"lisinopril":          "ACE inhibitor used for hypertension and heart failure.",
	"levothyroxine":       "Thyroid hormone replacement for hypothyroidism.",
	"atorvastatin":        "Statin used to lower cholesterol.",
	"metformin":           "Oral medicine for type 2 diabetes.",
	"amlodipine":          "Calcium channel blocker for hypertension.",
	"metoprolol":          "Beta-blocker used for hypertension and angina.",
	"omeprazole":          "PPI used for GERD and ulcers.",
	"simvastatin":         "Statin used to lower cholesterol.",
	"losartan":            "ARB used for hypertension.",
	"albuterol":           "Inhaler for asthma and COPD.",
	"gabapentin":          "Used for neuropathic pain and seizures.",
	"hydrochlorothiazide": "Diuretic used for hypertension and edema.",
	"sertraline":          "SSRI antidepressant.",
	"montelukast":         "Leukotriene receptor antagonist for asthma.",
	"escitalopram":        "SSRI antidepressant.",
	"fluticasone":         "Corticosteroid nasal spray for allergies.",
	"amoxicillin":         "Antibiotic for bacterial infections.",
	"furosemide":          "Loop diuretic used for hypertension and edema.",
	"pantoprazole":        "PPI for GERD and ulcers.",
	"trazodone":           "Antidepressant, often used for insomnia.",
	"ibuprofen":           "NSAID for pain, fever and inflammation.",
	"acetaminophen":       "Analgesic and antipyretic.",
	"paracetamol":         "Analgesic and antipyretic.",
	"aspirin":             "NSAID; also used as an antiplatelet.",
	"naproxen":            "NSAID for pain and inflammation.",
	"loratadine":          "Non-drowsy antihistamine for allergies.",
	"cetirizine":          "Antihistamine for allergies.",
	"diphenhydramine":     "Antihistamine, also used as a sleep aid.",
	"sudafed":             "Decongestant.",
	"phenylephrine":       "Decongestant.",
	"ondansetron":         "Antiemetic for nausea.",
	"meclizine":           "Motion sickness and vertigo.",
	"calcium carbonate":   "Antacid for heartburn.",
	"tums":                "Antacid for heartburn.",
	"magnesium hydroxide": "Antacid and laxative.",
	"milk of magnesia":    "Antacid and laxative.",
	"docusate sodium":     "Stool softener.",
	"colace":              "Stool softener.",
	"bisacodyl":           "Stimulant laxative.",
	"senna":               "Laxative.",
	"polyethylene glycol": "Osmotic laxative.",
	"miralax":             "Osmotic laxative.",
	"aluminum hydroxide":  "Antacid.",
	"simethicone":         "Anti-gas.",
	"pepcid ac":           "H2 blocker for GERD.",
	"zantac":              "H2 blocker for GERD (withdrawn in many markets).",
}

// newMedicines is the recent-approvals feed, newest first.
var newMedicines = []model.NewMedicine{
	{Name: "Zurnaive", Category: "Antiviral", Description: "Oral antiviral for seasonal influenza."},
	{Name: "Cardevia", Category: "Cardiology", Description: "Selective beta-blocker for chronic heart failure."},
	{Name: "Glucorin XR", Category: "Diabetes", Description: "Extended-release oral therapy for type 2 diabetes."},
	{Name: "Respilen", Category: "Respiratory", Description: "Once-daily inhaler for moderate asthma."},
	{Name: "Neurostat", Category: "Neurology", Description: "Adjunct therapy for focal-onset seizures."},
	{Name: "Dermaquil", Category: "Dermatology", Description: "Topical treatment for plaque psoriasis."},
	{Name: "Oncovera", Category: "Oncology", Description: "Targeted therapy for HER2-positive tumors."},
	{Name: "Somniret", Category: "Sleep", Description: "Dual orexin receptor antagonist for insomnia."},
}

const medicineNotFoundAnswer = "Sorry, I don't have information about this medicine."

// handleMedicineInfo answers a lookup by name.
func (s *Server) handleMedicineInfo(w http.ResponseWriter, r *http.Request) {
	q := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("q")))
	if q == "" {
		writeError(w, http.StatusBadRequest, "missing query")
		return
	}

	answer, ok := medicineDB[q]
	if !ok {
		answer = medicineNotFoundAnswer
	}
	writeJSON(w, http.StatusOK, model.MedicineInfo{Answer: answer})
}

// handleNewMedicines serves the recent-approvals feed.
func (s *Server) handleNewMedicines(w http.ResponseWriter, r *http.Request) {
	limit := len(newMedicines)
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		if n < limit {
			limit = n
		}
	}
	writeJSON(w, http.StatusOK, newMedicines[:limit])
}

type smsRequest struct {
	Phone   string `json:"phone"`
	Message string `json:"message"`
}

// handleSMS is a placeholder for a real SMS provider: it logs the message
// and acknowledges.
func (s *Server) handleSMS(w http.ResponseWriter, r *http.Request) {
	var req smsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Phone == "" {
		writeError(w, http.StatusBadRequest, "invalid SMS request")
		return
	}

	logging.Info("sending SMS", "phone", req.Phone, "message", req.Message)
	writeJSON(w, http.StatusOK, map[string]string{"status": "SMS sent", "phone": req.Phone})
}
