package workday

// Selectors for a Workday job board. Values may be overridden per-board
// via platform config (caller config wins over these defaults), since
// different Workday tenants occasionally customize their career-site
// theme's markup.
type Selectors struct {
	JobList            string
	JobItem            string
	JobTitle           string
	JobLocation        string
	JobPostedDate      string
	NextPageButton     string
	PaginationBox      string
	JobDescription     string
	JobIDDetail        string
	JobIDFallbackLabel string
}

func defaultSelectors() Selectors {
	return Selectors{
		JobList:            "[data-automation-id='jobResults']",
		JobItem:            "li[data-automation-id='jobItem']",
		JobTitle:           "a[data-automation-id='jobTitle']",
		JobLocation:        "[data-automation-id='locations']",
		JobPostedDate:      "[data-automation-id='postedOn']",
		NextPageButton:     "button[data-automation-id='bottom-pagination-button-next']",
		PaginationBox:      "[data-automation-id='pagination']",
		JobDescription:     "[data-automation-id='jobPostingDescription']",
		JobIDDetail:        "[data-automation-id='postingId']",
		JobIDFallbackLabel: "span",
	}
}

func (s *Selectors) applyOverrides(cfg map[string]string) {
	if v, ok := cfg["jobListSelector"]; ok {
		s.JobList = v
	}
	if v, ok := cfg["jobItemSelector"]; ok {
		s.JobItem = v
	}
	if v, ok := cfg["jobTitleSelector"]; ok {
		s.JobTitle = v
	}
	if v, ok := cfg["jobLocationSelector"]; ok {
		s.JobLocation = v
	}
	if v, ok := cfg["jobPostedDateSelector"]; ok {
		s.JobPostedDate = v
	}
	if v, ok := cfg["nextPageButtonSelector"]; ok {
		s.NextPageButton = v
	}
	if v, ok := cfg["paginationSelector"]; ok {
		s.PaginationBox = v
	}
	if v, ok := cfg["jobDescriptionSelector"]; ok {
		s.JobDescription = v
	}
	if v, ok := cfg["jobIdDetailSelector"]; ok {
		s.JobIDDetail = v
	}
	if v, ok := cfg["jobIdFallbackLabelSelector"]; ok {
		s.JobIDFallbackLabel = v
	}
}
