// Package schools defines the column schema of the London schools dataset:
// one row per school, joined with borough-level deprivation sub-scores and
// school coordinates.
package schools

import "schoolscope/domain/table"

// Column names as they appear in the source extract
const (
	ColURN        = "urn" // unique record number, the record identifier
	ColBorough    = "borough"
	ColSchoolType = "school_type"
	ColDenom      = "denomination"
	ColAdmissions = "admissions"
	ColGender     = "gender"
	ColOfsted     = "ofsted_rating" // ordinal 1 (outstanding) .. 4 (inadequate)

	ColNumPupils        = "num_pupils"
	ColNumBoys          = "num_boys"
	ColNumGirls         = "num_girls"
	ColPupilsPerTeacher = "pupils_per_teacher"
	ColPctAttainment    = "pct_attainment"
	ColPctFSM           = "pct_fsm" // free school meals
	ColPctAbsence       = "pct_absence"
	ColPctPersistentAbs = "pct_persistent_absence"

	ColIncomeScore     = "income_score"
	ColEmploymentScore = "employment_score"
	ColEducationScore  = "education_score"
	ColCrimeScore      = "crime_score"

	ColLatitude  = "latitude"
	ColLongitude = "longitude"

	ColBoyGirlRatio = "boy_girl_ratio" // derived, recomputed by the repairer
)

// Gender policy levels
const (
	GenderMixed = "Mixed"
	GenderBoys  = "Boys"
	GenderGirls = "Girls"
)

// Schema maps every known column to its declared kind
func Schema() map[string]table.Kind {
	return map[string]table.Kind{
		ColBorough:          table.KindCategorical,
		ColSchoolType:       table.KindCategorical,
		ColDenom:            table.KindCategorical,
		ColAdmissions:       table.KindCategorical,
		ColGender:           table.KindCategorical,
		ColOfsted:           table.KindNumeric,
		ColNumPupils:        table.KindNumeric,
		ColNumBoys:          table.KindNumeric,
		ColNumGirls:         table.KindNumeric,
		ColPupilsPerTeacher: table.KindNumeric,
		ColPctAttainment:    table.KindNumeric,
		ColPctFSM:           table.KindNumeric,
		ColPctAbsence:       table.KindNumeric,
		ColPctPersistentAbs: table.KindNumeric,
		ColIncomeScore:      table.KindNumeric,
		ColEmploymentScore:  table.KindNumeric,
		ColEducationScore:   table.KindNumeric,
		ColCrimeScore:       table.KindNumeric,
		ColLatitude:         table.KindNumeric,
		ColLongitude:        table.KindNumeric,
		ColBoyGirlRatio:     table.KindNumeric,
	}
}

// KeyColumns are the columns a row must have observed to survive the
// profiler's row-retention phase
func KeyColumns() []string {
	return []string{ColPctAttainment, ColPctFSM, ColPupilsPerTeacher}
}

// DeprivationColumns are the borough-level deprivation sub-scores
func DeprivationColumns() []string {
	return []string{ColIncomeScore, ColEmploymentScore, ColEducationScore, ColCrimeScore}
}

// IdentityColumns are excluded from outlier reporting and from the default
// clustering feature subset
func IdentityColumns() []string {
	return []string{ColURN, ColLatitude, ColLongitude}
}

// PerformanceColumns is the focused clustering subset used for the
// school-performance grouping
func PerformanceColumns() []string {
	return []string{ColPctAttainment, ColPctAbsence, ColOfsted, ColPupilsPerTeacher}
}
