package clean

import (
	"schoolscope/domain/clean"
	"schoolscope/domain/schools"
	"schoolscope/domain/table"
	"schoolscope/internal"
)

// Repairer applies the record-level consistency corrections, in a fixed
// order because later steps depend on earlier fixes:
//  1. flag gender-count mismatches and single-gender conflicts
//  2. rewrite num_pupils from known gender counts on flagged mismatches
//  3. force the excluded gender's count to zero at single-gender schools
//  4. recompute the boy/girl ratio, undefined when girls == 0
//  5. flags stay transient, never columns
//  6. drop records with zero pupils or zero pupils-per-teacher
type Repairer struct {
	log *internal.Logger
}

// NewRepairer creates a repairer
func NewRepairer(log *internal.Logger) *Repairer {
	return &Repairer{log: log.Stage("repairer")}
}

// Run repairs the table and tallies every correction
func (r *Repairer) Run(t *table.Table) (*table.Table, *clean.RepairReport, error) {
	boysCol, err := t.Numeric(schools.ColNumBoys)
	if err != nil {
		return nil, nil, err
	}
	girlsCol, err := t.Numeric(schools.ColNumGirls)
	if err != nil {
		return nil, nil, err
	}
	pupilsCol, err := t.Numeric(schools.ColNumPupils)
	if err != nil {
		return nil, nil, err
	}
	gender, err := t.Categorical(schools.ColGender)
	if err != nil {
		return nil, nil, err
	}
	ppt, err := t.Numeric(schools.ColPupilsPerTeacher)
	if err != nil {
		return nil, nil, err
	}

	boys := append([]float64(nil), boysCol...)
	girls := append([]float64(nil), girlsCol...)
	pupils := append([]float64(nil), pupilsCol...)
	report := &clean.RepairReport{}
	n := t.Rows()

	// Step 1: transient flags. A missing total with both gender counts known
	// is a mismatch too; only unknown gender counts leave a record unresolved.
	mismatch := make([]bool, n)
	conflict := make([]bool, n)
	for i := 0; i < n; i++ {
		if known(boys[i]) && known(girls[i]) && (!known(pupils[i]) || boys[i]+girls[i] != pupils[i]) {
			mismatch[i] = true
			report.CountMismatches++
		}
		switch gender[i] {
		case schools.GenderBoys:
			if known(girls[i]) && girls[i] != 0 {
				conflict[i] = true
			}
		case schools.GenderGirls:
			if known(boys[i]) && boys[i] != 0 {
				conflict[i] = true
			}
		}
		if conflict[i] {
			report.GenderConflicts++
		}
	}

	// Step 2: rewrite the pupil total where both gender counts are known.
	// Records with unknown gender counts stay unresolved.
	for i := 0; i < n; i++ {
		if mismatch[i] && known(boys[i]) && known(girls[i]) {
			pupils[i] = boys[i] + girls[i]
			report.CountsRewritten++
		}
	}

	// Step 3: single-gender schools get a zero opposite count regardless of
	// the mismatch flag. Forcing a zero can invalidate a previously
	// consistent total, so those records get their total rewritten too;
	// otherwise the count identity would not hold at conflict records.
	for i := 0; i < n; i++ {
		forced := false
		switch gender[i] {
		case schools.GenderBoys:
			if !known(girls[i]) || girls[i] != 0 {
				girls[i] = 0
				forced = true
			}
		case schools.GenderGirls:
			if !known(boys[i]) || boys[i] != 0 {
				boys[i] = 0
				forced = true
			}
		}
		if forced {
			report.CountsForcedZero++
			if known(boys[i]) && known(girls[i]) && (!known(pupils[i]) || boys[i]+girls[i] != pupils[i]) {
				pupils[i] = boys[i] + girls[i]
				report.CountsRewritten++
			}
		}
	}

	// Step 4: the ratio is boys/girls, undefined when girls == 0. Never a
	// division artifact.
	ratio := make([]float64, n)
	for i := 0; i < n; i++ {
		if !known(boys[i]) || !known(girls[i]) || girls[i] == 0 {
			ratio[i] = table.Missing()
			report.RatiosUndefined++
			continue
		}
		ratio[i] = boys[i] / girls[i]
	}

	out, err := t.WithNumeric(schools.ColNumBoys, boys)
	if err != nil {
		return nil, nil, err
	}
	if out, err = out.WithNumeric(schools.ColNumGirls, girls); err != nil {
		return nil, nil, err
	}
	if out, err = out.WithNumeric(schools.ColNumPupils, pupils); err != nil {
		return nil, nil, err
	}
	if out, err = out.WithNumeric(schools.ColBoyGirlRatio, ratio); err != nil {
		return nil, nil, err
	}

	// Step 6: zero-pupil or zero-ratio-denominator records cannot support
	// the later per-pupil computations.
	keep := make([]bool, n)
	for i := 0; i < n; i++ {
		keep[i] = !(pupils[i] == 0 || ppt[i] == 0)
		if !keep[i] {
			report.RowsDroppedZeroes++
		}
	}
	out = out.Filter(keep)

	r.log.Info("rewrote %d totals, forced %d zero counts, dropped %d zero records",
		report.CountsRewritten, report.CountsForcedZero, report.RowsDroppedZeroes)
	return out, report, nil
}

func known(v float64) bool {
	return !table.IsMissingValue(v)
}
