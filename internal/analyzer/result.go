package analyzer

import (
	"shot-sorter/internal/features"
	"shot-sorter/internal/location"
	"shot-sorter/internal/trigger"
)

// Reasons a file was not classified.
const (
	ReasonLoad      = "load failed"
	ReasonNoBodycam = "no body camera"
	ReasonNoTrigger = "no trigger"
)

// Folder tag parts.
const (
	folderUnknown  = "Неизвестно"
	folderTablets  = "Таблетки"
	folderVaccines = "Вакцины"
	folderPMP      = "ПМП"
	districtCity   = "Город"
	districtSuburb = "Пригород"
	nightSuffix    = " [НОЧЬ]"
)

// Result is the classification of one file.
type Result struct {
	Path       string
	Category   trigger.Category
	Location   location.Location
	Night      bool
	Confidence float64
	Method     string

	// Err is the reason the pipeline stopped early; empty on success.
	Err string
	OK  bool

	Bodycam      bool
	BodycamRatio float64
	Inherited    bool

	Features features.Vector
	Texts    []string
	Trace    []string
}

// Folder returns the output folder tag. Resuscitations are grouped by
// district; tablets and vaccinations by hospital.
func (r Result) Folder() string {
	night := ""
	if r.Night {
		night = nightSuffix
	}

	switch r.Category {
	case trigger.PMP:
		district := folderUnknown
		switch r.Location {
		case location.ELSH:
			district = districtCity
		case location.Sandy, location.Paleto:
			district = districtSuburb
		}
		return folderPMP + " - " + district + night
	case trigger.Tablets:
		return withLocation(folderTablets, r.Location) + night
	case trigger.Vaccines:
		return withLocation(folderVaccines, r.Location) + night
	}
	return withLocation(folderUnknown, r.Location) + night
}

func withLocation(base string, loc location.Location) string {
	if loc == location.Unknown {
		return base
	}
	return base + " - " + string(loc)
}

// cached returns the copy served on a result-cache hit: the outcome fields
// only, with the method marked.
func (r Result) cached(path string) Result {
	return Result{
		Path:         path,
		Category:     r.Category,
		Location:     r.Location,
		Night:        r.Night,
		Confidence:   r.Confidence,
		Method:       r.Method + "+cached",
		Err:          r.Err,
		OK:           r.OK,
		Bodycam:      r.Bodycam,
		BodycamRatio: r.BodycamRatio,
		Inherited:    r.Inherited,
	}
}
