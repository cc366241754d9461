package model

import "fmt"

// procedureDescriptions is a small static CPT/HCPCS description map used for
// prompt context. Lookup never touches the database; unknown codes get a
// generic label.
var procedureDescriptions = map[string]string{
	"27130": "Total hip arthroplasty",
	"27447": "Total knee arthroplasty",
	"74170": "CT abdomen and pelvis with contrast",
	"99213": "Office visit, established patient, 20-29 minutes",
	"99214": "Office visit, established patient, 30-39 minutes",
	"99215": "Office visit, established patient, 40-54 minutes",
	"99201": "Office visit, new patient, 10 minutes",
	"99202": "Office visit, new patient, 20 minutes",
	"99203": "Office visit, new patient, 30 minutes",
	"99204": "Office visit, new patient, 45 minutes",
	"99205": "Office visit, new patient, 60 minutes",
	"74176": "CT abdomen with contrast",
	"74177": "CT pelvis with contrast",
	"74178": "CT abdomen and pelvis without contrast",
	"93000": "Electrocardiogram, routine ECG with at least 12 leads",
	"80053": "Comprehensive metabolic panel",
	"85025": "Complete blood count with automated differential",
	"G0299": "Direct skilled nursing services of a registered nurse",
}

// ProcedureDescription returns a human-readable description for a CPT/HCPCS
// code.
func ProcedureDescription(code string) string {
	if desc, ok := procedureDescriptions[code]; ok {
		return desc
	}
	return fmt.Sprintf("Medical procedure %s", code)
}
