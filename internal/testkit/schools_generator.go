// Package testkit builds deterministic synthetic London-schools tables for
// tests and for the CLI demo mode. The generator plants the defects the
// pipeline exists to fix: blanks, count mismatches, single-gender conflicts
// and zero-pupil records, all at known rates for a given seed.
package testkit

import (
	"math/rand"

	"schoolscope/domain/core"
	"schoolscope/domain/schools"
	"schoolscope/domain/table"
)

// GeneratorOptions controls the planted defects
type GeneratorOptions struct {
	Rows             int
	Seed             int64
	MissingRate      float64 // per designated-cell chance of a blank
	MismatchRate     float64 // chance a row gets num_pupils != boys+girls
	ConflictRate     float64 // chance a single-gender row gets an opposite count
	ZeroRecordEveryN int     // every Nth row becomes a zero-pupil record; 0 disables
}

// DefaultOptions returns a moderately dirty 400-school table
func DefaultOptions() GeneratorOptions {
	return GeneratorOptions{
		Rows:         400,
		Seed:         7,
		MissingRate:  0.08,
		MismatchRate: 0.05,
		ConflictRate: 0.10,
	}
}

var boroughs = []string{
	"Camden", "Hackney", "Islington", "Lambeth", "Newham",
	"Croydon", "Barnet", "Ealing", "Greenwich", "Tower Hamlets",
}

var schoolTypes = []string{"Community", "Academy", "Voluntary Aided", "Free School"}
var denominations = []string{"None", "Church of England", "Roman Catholic", "Muslim"}
var admissions = []string{"Comprehensive", "Selective"}

// Generate builds a synthetic table. The same options always produce the
// same table.
func Generate(opts GeneratorOptions) *table.Table {
	rnd := rand.New(rand.NewSource(opts.Seed))
	n := opts.Rows

	ids := make([]core.RecordID, n)
	for i := range ids {
		ids[i] = core.RecordID(100000 + i)
	}

	borough := make([]string, n)
	schoolType := make([]string, n)
	denom := make([]string, n)
	admission := make([]string, n)
	gender := make([]string, n)
	ofsted := make([]float64, n)
	boys := make([]float64, n)
	girls := make([]float64, n)
	pupils := make([]float64, n)
	ppt := make([]float64, n)
	attainment := make([]float64, n)
	fsm := make([]float64, n)
	absence := make([]float64, n)
	income := make([]float64, n)
	employment := make([]float64, n)
	education := make([]float64, n)
	crime := make([]float64, n)
	lat := make([]float64, n)
	lon := make([]float64, n)

	for i := 0; i < n; i++ {
		b := rnd.Intn(len(boroughs))
		borough[i] = boroughs[b]
		schoolType[i] = schoolTypes[rnd.Intn(len(schoolTypes))]
		denom[i] = denominations[rnd.Intn(len(denominations))]
		admission[i] = admissions[rnd.Intn(len(admissions))]
		ofsted[i] = float64(1 + rnd.Intn(4))

		// Borough index drives deprivation so clusters exist to find.
		base := float64(b) / float64(len(boroughs))
		income[i] = clamp(base*0.4+rnd.NormFloat64()*0.05, 0, 1)
		employment[i] = clamp(base*0.35+rnd.NormFloat64()*0.05, 0, 1)
		education[i] = clamp(base*30+rnd.NormFloat64()*4, 0, 60)
		crime[i] = clamp(base*2-1+rnd.NormFloat64()*0.3, -3, 3)

		switch g := rnd.Float64(); {
		case g < 0.1:
			gender[i] = schools.GenderBoys
		case g < 0.2:
			gender[i] = schools.GenderGirls
		default:
			gender[i] = schools.GenderMixed
		}

		size := 200 + rnd.Intn(1200)
		switch gender[i] {
		case schools.GenderBoys:
			boys[i], girls[i] = float64(size), 0
		case schools.GenderGirls:
			boys[i], girls[i] = 0, float64(size)
		default:
			boys[i] = float64(size / 2)
			girls[i] = float64(size) - boys[i]
		}
		pupils[i] = boys[i] + girls[i]

		ppt[i] = clamp(14+rnd.NormFloat64()*3, 8, 30)
		attainment[i] = clamp(55-income[i]*40+rnd.NormFloat64()*8, 5, 95)
		fsm[i] = clamp(income[i]*60+rnd.NormFloat64()*6, 0, 80)
		absence[i] = clamp(4+income[i]*4+rnd.NormFloat64()*1.2, 0, 20)
		lat[i] = 51.3 + rnd.Float64()*0.4
		lon[i] = -0.4 + rnd.Float64()*0.6

		if rnd.Float64() < opts.MismatchRate {
			pupils[i] += float64(5 + rnd.Intn(40))
		}
		if gender[i] != schools.GenderMixed && rnd.Float64() < opts.ConflictRate {
			if gender[i] == schools.GenderBoys {
				girls[i] = float64(1 + rnd.Intn(20))
			} else {
				boys[i] = float64(1 + rnd.Intn(20))
			}
		}
		if opts.ZeroRecordEveryN > 0 && i%opts.ZeroRecordEveryN == opts.ZeroRecordEveryN-1 {
			pupils[i], boys[i], girls[i] = 0, 0, 0
		}
	}

	// Plant blanks in the imputable columns.
	blank := func(vals []float64) {
		for i := range vals {
			if rnd.Float64() < opts.MissingRate {
				vals[i] = table.Missing()
			}
		}
	}
	blankStr := func(vals []string) {
		for i := range vals {
			if rnd.Float64() < opts.MissingRate {
				vals[i] = ""
			}
		}
	}
	blank(absence)
	blank(ofsted)
	blankStr(denom)
	blankStr(admission)

	t := table.New(ids)
	mustAdd(t, table.CategoricalColumn(schools.ColBorough, borough))
	mustAdd(t, table.CategoricalColumn(schools.ColSchoolType, schoolType))
	mustAdd(t, table.CategoricalColumn(schools.ColDenom, denom))
	mustAdd(t, table.CategoricalColumn(schools.ColAdmissions, admission))
	mustAdd(t, table.CategoricalColumn(schools.ColGender, gender))
	mustAdd(t, table.NumericColumn(schools.ColOfsted, ofsted))
	mustAdd(t, table.NumericColumn(schools.ColNumPupils, pupils))
	mustAdd(t, table.NumericColumn(schools.ColNumBoys, boys))
	mustAdd(t, table.NumericColumn(schools.ColNumGirls, girls))
	mustAdd(t, table.NumericColumn(schools.ColPupilsPerTeacher, ppt))
	mustAdd(t, table.NumericColumn(schools.ColPctAttainment, attainment))
	mustAdd(t, table.NumericColumn(schools.ColPctFSM, fsm))
	mustAdd(t, table.NumericColumn(schools.ColPctAbsence, absence))
	mustAdd(t, table.NumericColumn(schools.ColIncomeScore, income))
	mustAdd(t, table.NumericColumn(schools.ColEmploymentScore, employment))
	mustAdd(t, table.NumericColumn(schools.ColEducationScore, education))
	mustAdd(t, table.NumericColumn(schools.ColCrimeScore, crime))
	mustAdd(t, table.NumericColumn(schools.ColLatitude, lat))
	mustAdd(t, table.NumericColumn(schools.ColLongitude, lon))
	return t
}

func mustAdd(t *table.Table, c *table.Column) {
	if err := t.AddColumn(c); err != nil {
		panic(err)
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
