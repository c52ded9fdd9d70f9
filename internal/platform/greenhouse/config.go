package greenhouse

// Selectors for a Greenhouse job board's static HTML. Values may be
// overridden per-board via platform config, since some boards embed a
// custom theme on top of Greenhouse's default markup.
type Selectors struct {
	JobAnchor      string
	ListLocation   string
	DetailTitle    string
	DetailLocation string
	DetailContent  string
}

func defaultSelectors() Selectors {
	return Selectors{
		JobAnchor:      "a[href]",
		ListLocation:   ".location",
		DetailTitle:    "h1",
		DetailLocation: ".location",
		DetailContent:  "#content",
	}
}

func (s *Selectors) applyOverrides(cfg map[string]string) {
	if v, ok := cfg["jobAnchorSelector"]; ok {
		s.JobAnchor = v
	}
	if v, ok := cfg["listLocationSelector"]; ok {
		s.ListLocation = v
	}
	if v, ok := cfg["detailTitleSelector"]; ok {
		s.DetailTitle = v
	}
	if v, ok := cfg["detailLocationSelector"]; ok {
		s.DetailLocation = v
	}
	if v, ok := cfg["detailContentSelector"]; ok {
		s.DetailContent = v
	}
}
