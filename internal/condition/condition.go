// Package condition holds the fixed table of condition records that
// classification results are drawn from.
package condition

import "slices"

// Record describes one condition a classification can resolve to.
type Record struct {
	Key             string
	DisplayName     string
	Description     string
	Recommendations []string
}

// The order of this table is part of the classification contract: the
// fingerprint index selects records by position.
var records = [...]Record{
	{
		Key:         "lung",
		DisplayName: "Lung Cancer",
		Description: "Lung cancer is a malignant tumor that begins in the lungs. It's often associated with smoking but can also occur in non-smokers. Common symptoms include persistent cough, chest pain, and shortness of breath.",
		Recommendations: []string{
			"Consult a pulmonologist or oncologist immediately",
			"Get a comprehensive CT scan and biopsy for confirmation",
			"Discuss treatment options including surgery, chemotherapy, or radiation",
			"Consider smoking cessation programs if applicable",
			"Join support groups for lung cancer patients",
		},
	},
	{
		Key:         "breast",
		DisplayName: "Breast Cancer",
		Description: "Breast cancer is a malignant tumor that develops from breast cells. It's one of the most common cancers affecting women worldwide. Early detection through regular screenings significantly improves treatment outcomes.",
		Recommendations: []string{
			"Schedule an appointment with a breast oncologist",
			"Get a mammogram and ultrasound for detailed imaging",
			"Consider genetic testing if there's a family history",
			"Discuss surgical options and hormone therapy",
			"Explore reconstruction options if surgery is needed",
		},
	},
	{
		Key:         "brain",
		DisplayName: "Brain Tumor",
		Description: "Brain tumors are abnormal growths of cells in the brain. They can be benign or malignant and may cause various neurological symptoms including headaches, seizures, and cognitive changes.",
		Recommendations: []string{
			"Consult a neuro-oncologist immediately",
			"Get an MRI scan for detailed brain imaging",
			"Consider a biopsy to determine tumor type and grade",
			"Discuss treatment options including surgery and radiation",
			"Monitor for neurological symptoms and report changes",
		},
	},
	{
		Key:         "skin",
		DisplayName: "Skin Cancer (Melanoma)",
		Description: "Melanoma is the most serious type of skin cancer, developing from pigment-producing cells. It can spread to other parts of the body if not detected and treated early. Regular skin checks are crucial.",
		Recommendations: []string{
			"See a dermatologist or oncologist immediately",
			"Get a skin biopsy for confirmation",
			"Check for lymph node involvement",
			"Discuss surgical excision and immunotherapy options",
			"Avoid sun exposure and use high SPF sunscreen",
		},
	},
	{
		Key:         "colon",
		DisplayName: "Colorectal Cancer",
		Description: "Colorectal cancer begins in the colon or rectum. It often develops from polyps that become cancerous over time. Regular colonoscopy screenings can detect and prevent this cancer.",
		Recommendations: []string{
			"Consult a gastroenterologist or colorectal surgeon",
			"Get a colonoscopy and CT scan",
			"Discuss surgical options and chemotherapy",
			"Consider dietary changes and lifestyle modifications",
			"Join colorectal cancer support groups",
		},
	},
	{
		Key:         "prostate",
		DisplayName: "Prostate Cancer",
		Description: "Prostate cancer occurs in the prostate gland in men. It's one of the most common cancers in men, typically growing slowly. Early detection through PSA testing and digital rectal exams is important.",
		Recommendations: []string{
			"Schedule an appointment with a urologist or oncologist",
			"Get PSA blood tests and prostate biopsy",
			"Discuss active surveillance vs. treatment options",
			"Consider surgery, radiation, or hormone therapy",
			"Monitor PSA levels regularly",
		},
	},
	{
		Key:         "leukemia",
		DisplayName: "Leukemia (Blood Cancer)",
		Description: "Leukemia is a cancer of blood-forming tissues, including bone marrow. It affects the production and function of blood cells, leading to symptoms like fatigue, frequent infections, and easy bruising.",
		Recommendations: []string{
			"Consult a hematologist-oncologist immediately",
			"Get comprehensive blood tests and bone marrow biopsy",
			"Discuss chemotherapy and targeted therapy options",
			"Consider stem cell transplantation if applicable",
			"Monitor blood counts regularly",
		},
	},
	{
		Key:         "lymphoma",
		DisplayName: "Lymphoma",
		Description: "Lymphoma is a cancer of the lymphatic system, which is part of the immune system. It causes abnormal growth of lymphocytes, leading to swollen lymph nodes and other symptoms.",
		Recommendations: []string{
			"See a hematologist-oncologist immediately",
			"Get a lymph node biopsy and PET scan",
			"Discuss chemotherapy and immunotherapy options",
			"Consider radiation therapy for localized disease",
			"Join lymphoma patient support groups",
		},
	},
}

var byKey = func() map[string]int {
	m := make(map[string]int, len(records))
	for i, r := range records {
		m[r.Key] = i
	}
	return m
}()

// Len returns the number of records in the table.
func Len() int {
	return len(records)
}

// Keys returns the record keys in table order.
func Keys() []string {
	keys := make([]string, len(records))
	for i, r := range records {
		keys[i] = r.Key
	}
	return keys
}

// At returns a copy of the record at index. It panics when index is out of range.
func At(index int) Record {
	return clone(records[index])
}

// Lookup returns a copy of the record for key.
func Lookup(key string) (Record, bool) {
	i, ok := byKey[key]
	if !ok {
		return Record{}, false
	}
	return clone(records[i]), true
}

// All returns copies of every record in table order.
func All() []Record {
	out := make([]Record, len(records))
	for i, r := range records {
		out[i] = clone(r)
	}
	return out
}

func clone(r Record) Record {
	r.Recommendations = slices.Clone(r.Recommendations)
	return r
}
