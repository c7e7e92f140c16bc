package models

import "gorm.io/gorm"

// CreateDefaultTargetCompanies seeds a starter target-company list so the
// job_target segment has something to match before the user curates their own.
func CreateDefaultTargetCompanies(db *gorm.DB) error {
	defaults := []TargetCompany{
		{Name: "Anthropic", Notes: "AI research"},
		{Name: "Stripe", Notes: "Payments infrastructure"},
		{Name: "Microsoft", Notes: "Seattle-area"},
		{Name: "Amazon", Notes: "Seattle-area"},
	}
	for _, company := range defaults {
		if err := db.FirstOrCreate(&company, "name = ?", company.Name).Error; err != nil {
			return err
		}
	}
	return nil
}
